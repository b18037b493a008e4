// Package visibility decides which conversations a viewer may see.
package visibility

import "github.com/herniaclinic/clinic-chat/internal/data"

// Visible reports whether a viewer may see a conversation. Patients see
// only conversations they created or have sent a message in; every other
// role — including an empty one — sees everything.
//
// Note the allow-list shape: a role added later defaults to full
// visibility unless this predicate learns about it. Keep that in mind
// before introducing new roles.
func Visible(viewerID, viewerRole string, createdByUserID *string, authoredMessage bool) bool {
	if viewerRole != data.RolePatient || viewerID == "" {
		return true
	}
	if createdByUserID != nil && *createdByUserID == viewerID {
		return true
	}
	return authoredMessage
}
