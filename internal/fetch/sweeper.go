package fetch

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartCORSCacheSweeper schedules a periodic eviction pass over the
// Engine's shared CORS cache using a cron expression of the form "@every
// <interval>". Lazy expiry-on-read already keeps the cache semantically
// correct (§4.6); this only bounds memory growth in an Engine that lives
// for a long time. Callers should keep the returned *cron.Cron around and
// call Stop on it during shutdown.
func (e *Engine) StartCORSCacheSweeper(logger *slog.Logger, interval time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("@every "+interval.String(), func() {
		swept := e.env.corsCache.Sweep(time.Now())
		if swept > 0 {
			logger.Debug("cors cache swept", "entries_removed", swept, "keys_remaining", e.env.corsCache.Len())
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
