package trigger

import (
	"sync"
	"time"
)

// SearchLimiter enforces the per-project search cooldown. Saves are
// never rate limited. The check-and-set is atomic per project so that
// concurrent messages in the same project cannot both pass.
type SearchLimiter struct {
	cooldown time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func NewSearchLimiter(cooldown time.Duration) *SearchLimiter {
	return &SearchLimiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
	}
}

// Reserve atomically claims the search slot for the project. The
// returned restore func undoes the reservation when the search itself
// fails, so an I/O error does not burn the cooldown window.
func (l *SearchLimiter) Reserve(project string) (restore func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	prev, hadPrev := l.last[project]
	if hadPrev && now.Sub(prev) < l.cooldown {
		return nil, false
	}

	l.last[project] = now
	restore = func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only roll back our own reservation.
		if !l.last[project].Equal(now) {
			return
		}
		if hadPrev {
			l.last[project] = prev
		} else {
			delete(l.last, project)
		}
	}
	return restore, true
}
