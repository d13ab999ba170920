package opstage

import (
	"context"
	"time"

	"github.com/ec-jrc/abcd-go/internal/stage"
)

// Run builds a *stage.Stage around hooks, overrides the tunables that
// are nonzero, installs the terminate-signal watcher, and blocks until
// the state machine reaches STOP.
func Run(ctx context.Context, hooks stage.Hooks, basePeriod, statusPeriod, dataTimeout time.Duration, highWaterMark int) {
	s := stage.New(hooks)
	if basePeriod > 0 {
		s.BasePeriod = basePeriod
	}
	if statusPeriod > 0 {
		s.StatusPublishPeriod = statusPeriod
	}
	if dataTimeout > 0 {
		s.DataPublishTimeout = dataTimeout
	}
	if highWaterMark > 0 {
		s.HighWaterMark = highWaterMark
	}
	stop := stage.WatchTerminate(s)
	defer stop()
	s.Run(ctx)
}
