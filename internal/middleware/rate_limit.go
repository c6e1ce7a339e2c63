package middleware

import (
	"context"
	"sync"
	"time"

	"server-kidnap/internal/command"
	"server-kidnap/pkg/cmd"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per user, shared by every command.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	users     map[string]*userLimiter
	lastSweep time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		now:   time.Now,
		users: make(map[string]*userLimiter),
	}
}

// Allow takes a token for userID.
func (r *RateLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	u, ok := r.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.users[userID] = u
	}
	u.lastSeen = now
	return u.limiter.AllowN(now, 1)
}

// sweep drops limiters nobody used for a while. Called with r.mu held.
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < limiterIdleTTL {
		return
	}
	r.lastSweep = now
	for id, u := range r.users {
		if now.Sub(u.lastSeen) > limiterIdleTTL {
			delete(r.users, id)
		}
	}
}

func (r *RateLimiter) tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// WithRateLimit drops commands from users who exceed their bucket.
func WithRateLimit(limiter *RateLimiter) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.MessageContext)
			if !ok || limiter == nil {
				return c.Run(ctx, inv)
			}
			if !limiter.Allow(v.Author().ID) {
				v.Respond.Reply("Slow down! Try again in a few seconds.")
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
