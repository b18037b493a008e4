package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is the catch-all refresh cadence while a
// conversation is open.
const DefaultPollInterval = 3 * time.Second

// PollConversation fetches the conversation history every interval and
// reconciles it into the view. It is the safety net under the live
// channel: anything a dropped socket missed arrives here. Blocks until
// the context is cancelled.
func (c *Client) PollConversation(ctx context.Context, view *ConversationView, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		hist, err := c.GetConversationMessages(ctx, view.ConversationID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug().Err(err).Str("conversation", view.ConversationID).Msg("poll fetch failed")
			continue
		}
		view.ReconcilePoll(hist.Messages)
	}
}
