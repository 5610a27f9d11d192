package notify

import (
	"context"
	"log"
	"time"

	"github.com/adhocore/gronx"

	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/metrics"
)

// ReadRetentionDays is how long read notifications are kept.
const ReadRetentionDays = 30

// Sweeper periodically deletes read notifications past retention and
// dead refresh tokens. The cron expression gates which ticks actually
// sweep.
type Sweeper struct {
	db       *database.Queries
	cronExpr string
	gron     *gronx.Gronx
}

func NewSweeper(db *database.Queries, cronExpr string) *Sweeper {
	return &Sweeper{
		db:       db,
		cronExpr: cronExpr,
		gron:     gronx.New(),
	}
}

// Run checks the schedule once a minute until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.gron.IsValid(s.cronExpr) {
		log.Printf("sweeper: invalid cron expression %q; retention disabled", s.cronExpr)
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := s.gron.IsDue(s.cronExpr, now)
			if err != nil || !due {
				continue
			}
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	purged, err := s.db.PurgeReadNotifications(ctx, ReadRetentionDays)
	if err != nil {
		log.Printf("sweeper: failed to purge notifications: %v", err)
	} else if purged > 0 {
		metrics.RetentionPurged.WithLabelValues("notifications").Add(float64(purged))
		log.Printf("sweeper: purged %d read notifications", purged)
	}

	tokens, err := s.db.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("sweeper: failed to delete refresh tokens: %v", err)
	} else if tokens > 0 {
		metrics.RetentionPurged.WithLabelValues("refresh_tokens").Add(float64(tokens))
		log.Printf("sweeper: deleted %d dead refresh tokens", tokens)
	}
}
