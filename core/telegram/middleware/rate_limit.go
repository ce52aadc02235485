package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/tosbook/core/logger"
	tghelpers "github.com/m3rciful/tosbook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitOptions configures behaviour of the rate limit middleware.
// One token is refilled every Interval; Burst tokens may be spent at once.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// now is replaced in tests.
	now func() time.Time
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	users     map[int64]*userLimiter
	lastSweep time.Time
}

func (s *limiterSet) allow(userID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for id, u := range s.users {
			if now.Sub(u.lastSeen) > limiterIdleTTL {
				delete(s.users, id)
			}
		}
		s.lastSweep = now
	}

	u, ok := s.users[userID]
	if !ok {
		u = &userLimiter{lim: rate.NewLimiter(s.every, s.burst)}
		s.users[userID] = u
	}
	u.lastSeen = now
	return u.lim.AllowN(now, 1)
}

// RateLimitMiddleware returns a middleware that throttles updates per user
// with a token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	set := &limiterSet{
		every: rate.Every(opts.Interval),
		burst: opts.Burst,
		users: make(map[int64]*userLimiter),
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if set.allow(user.ID, opts.now()) {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			logger.Warn(ctx, logger.CompTG, "update.rate_limited",
				slog.String("outcome", "rate_limited"),
				slog.String("kind", updateKind(c.Update())),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
