// Package autoreply implements the scripted responder that stands in for
// clinic staff until someone picks the conversation up.
package autoreply

import "strings"

// rule pairs keywords with the canned reply sent when any keyword appears
// in the inbound text. Rules are checked in declaration order and the
// first match wins, so more specific rules must come first.
type rule struct {
	keywords []string
	reply    string
}

// Reply texts, exported so tests and the ingress path can assert against
// them without duplicating strings.
const (
	ReplySchedule   = "Please call us at 555-0123 to schedule an appointment."
	ReplyReschedule = "To reschedule, please call our office at 555-0123."
	ReplyPricing    = "Pricing varies based on insurance. Please contact us for details."
	ReplyHernia     = "A hernia occurs when an organ pushes through an opening in the muscle. Our specialists can help."
	ReplyInsurance  = "We accept most major insurance plans. Please call to verify coverage."
	ReplyGreeting   = "Hello! How can I help you today?"
	ReplyDefault    = "Thank you for your message. Our team will get back to you soon."
)

var rules = []rule{
	{keywords: []string{"schedule", "appointment"}, reply: ReplySchedule},
	{keywords: []string{"reschedule"}, reply: ReplyReschedule},
	{keywords: []string{"price", "cost", "how much"}, reply: ReplyPricing},
	{keywords: []string{"hernia"}, reply: ReplyHernia},
	{keywords: []string{"insurance"}, reply: ReplyInsurance},
	{keywords: []string{"hello", "hi"}, reply: ReplyGreeting},
}

// Respond maps inbound message text to a canned reply. Matching is
// case-insensitive substring containment. The catch-all means the result
// is never empty today, but callers should still treat "" as "do not
// reply". No I/O, no randomness: a fixed input always yields the same
// output.
func Respond(message string) string {
	message = strings.ToLower(message)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(message, kw) {
				return r.reply
			}
		}
	}
	return ReplyDefault
}
