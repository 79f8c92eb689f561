package ratelimit

import (
	"log"
	"time"
)

// StartSweeper launches the background cleanup loop. It removes expired
// records and idle burst guards on the given interval and trims usage
// history beyond the retention window. Call Stop before closing the mirror.
func (l *Limiter) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		defer close(l.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the sweeper and waits for it to drain.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	<-l.doneCh
}

func (l *Limiter) sweep() {
	now := l.now()
	cutoff := now.Add(-l.retention)

	l.mu.Lock()
	sweepBucket(l.records, now, cutoff)
	sweepBucket(l.globals, now, cutoff)
	for userID, until := range l.bursts {
		if !until.After(now) {
			delete(l.bursts, userID)
		}
	}
	l.mu.Unlock()

	if l.mirror != nil {
		if err := l.mirror.PruneCooldowns(now); err != nil {
			log.Printf("ratelimit: mirror prune failed: %v", err)
		}
	}
}

func sweepBucket(bucket map[string]*record, now, cutoff time.Time) {
	for k, rec := range bucket {
		if rec.Expired(now) {
			delete(bucket, k)
			continue
		}
		trimmed := rec.history[:0]
		for _, t := range rec.history {
			if t.After(cutoff) {
				trimmed = append(trimmed, t)
			}
		}
		rec.history = trimmed
	}
}
