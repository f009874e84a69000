package recording

import (
	"context"
	"fmt"
	"time"
)

// FormatElapsed renders d as MM:SS; minutes keep growing past 99
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Ticker delivers periodic ticks
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the wall clock TickerFactory
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// RunElapsed calls update with the formatted elapsed time on every tick while
// the recording that was running when it was called is still running. It
// returns as soon as that recording ends or ctx is cancelled.
func RunElapsed(ctx context.Context, s *Session, interval time.Duration, newTicker TickerFactory, update func(string)) {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}

	id := s.Snapshot().ID
	if id == "" {
		return
	}

	ticker := newTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			info := s.Snapshot()
			if info.State != StateRecording || info.ID != id {
				return
			}
			update(FormatElapsed(s.Elapsed()))
		}
	}
}
