package autoreply

import "testing"

func TestRespondCaseInsensitive(t *testing.T) {
	if Respond("I want to SCHEDULE") != Respond("schedule") {
		t.Fatalf("matching should be case-insensitive")
	}
	if got := Respond("HELLO there"); got != ReplyGreeting {
		t.Fatalf("expected greeting, got %q", got)
	}
}

func TestRespondPriority(t *testing.T) {
	// "schedule" outranks everything that follows it, including the
	// greeting, because rules are checked in declaration order.
	if got := Respond("hello, can I schedule a visit?"); got != ReplySchedule {
		t.Fatalf("expected schedule referral to win, got %q", got)
	}

	// "reschedule" contains "schedule", so the schedule rule claims it
	// first. That is the observed behavior and the rule order preserves
	// it.
	if got := Respond("I need to reschedule"); got != ReplySchedule {
		t.Fatalf("expected schedule rule to claim 'reschedule', got %q", got)
	}
}

func TestRespondTable(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"how much does it cost?", ReplyPricing},
		{"what is the price", ReplyPricing},
		{"do I have a hernia?", ReplyHernia},
		{"is my insurance accepted", ReplyInsurance},
		{"hi", ReplyGreeting},
		{"when are you open on weekends", ReplyDefault},
		{"", ReplyDefault},
	}
	for _, c := range cases {
		if got := Respond(c.in); got != c.want {
			t.Fatalf("Respond(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRespondDeterministic(t *testing.T) {
	first := Respond("tell me about pricing")
	for i := 0; i < 10; i++ {
		if got := Respond("tell me about pricing"); got != first {
			t.Fatalf("responder is not deterministic: %q vs %q", got, first)
		}
	}
	if first == "" {
		t.Fatalf("responder returned an empty reply")
	}
}
