package service

import (
	"context"
	"log"
	"time"

	"github.com/benwyw/botboard/internal/queue"
)

// StartPurgeLoop deletes expired and revoked refresh token records on
// a fixed interval until the context is cancelled. Each sweep logs its
// count and publishes a tokens.purged event; a failed sweep is logged
// and retried on the next tick rather than stopping the loop.
func (s *AuthService) StartPurgeLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	log.Printf("maintenance: purge loop started (every %s)", every)
	for {
		select {
		case <-ctx.Done():
			log.Printf("maintenance: purge loop stopped")
			return
		case <-t.C:
			n, err := s.Purge(ctx, false)
			if err != nil {
				log.Printf("maintenance: purge failed: %v", err)
				continue
			}
			log.Printf("maintenance: purged %d refresh token rows", n)
			_ = PublishAuthEvent(ctx, queue.AuthEvent{
				Type:  queue.EventTokensPurged,
				Count: n,
				At:    time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}
