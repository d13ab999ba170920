package stage

import (
	"os"
	"os/signal"
	"syscall"
)

// WatchTerminate registers SIGINT/SIGTERM handlers that flip stage's
// Terminate flag instead of killing the process outright, so the tick
// loop can run its shutdown chain and flush pending data. Mirrors the
// teacher's runtimeEnv signal.Notify(sigs, syscall.SIGINT,
// syscall.SIGTERM) pattern. Returns a func to stop watching.
func WatchTerminate(s *Stage) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			s.Terminate.Store(true)
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(sigs)
	}
}
