package normalize

import "testing"

func TestEmail(t *testing.T) {
	if got := Email("  Sarah@GMAIL.com "); got != "sarah@gmail.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
	if got := Email("already@lower.com"); got != "already@lower.com" {
		t.Fatalf("normalization changed an already-normal email: %q", got)
	}
}
