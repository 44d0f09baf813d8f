package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReporterLimiter bounds how many scam reports one reporter may file within
// a sliding window. It is a best-effort, defense-in-depth layer: the
// per-(project, reporter) unique constraint stays the authoritative guard,
// so the limiter fails open on backend errors.
type ReporterLimiter interface {
	// Allow records an attempt and reports whether it is within the cap.
	// retryAfter is a hint for rejected attempts.
	Allow(ctx context.Context, reporter string) (allowed bool, retryAfter time.Duration, err error)
}

type redisReporterLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// Allow keeps a per-reporter sorted set of submission timestamps, prunes
// entries older than the window, and rejects once the cap is reached.
func (l *redisReporterLimiter) Allow(ctx context.Context, reporter string) (bool, time.Duration, error) {
	key := l.prefix + ":" + reporter
	now := time.Now()
	cutoff := now.Add(-l.window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}

	if countCmd.Val() >= int64(l.max) {
		retryAfter := l.window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			retryAfter = time.Until(oldestAt.Add(l.window))
		}
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	pipe = l.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: strconv.FormatInt(now.UnixNano(), 10)})
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}
	return true, 0, nil
}

type memoryReporterLimiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
	max     int
	window  time.Duration
	nextGC  time.Time
	now     func() time.Time
}

func newMemoryReporterLimiter(max int, window time.Duration) *memoryReporterLimiter {
	return &memoryReporterLimiter{
		history: make(map[string][]time.Time),
		max:     max,
		window:  window,
		nextGC:  time.Now().Add(window),
		now:     time.Now,
	}
}

func (l *memoryReporterLimiter) Allow(_ context.Context, reporter string) (bool, time.Duration, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.history[reporter][:0]
	for _, t := range l.history[reporter] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.history[reporter] = kept

	if now.After(l.nextGC) {
		for key, times := range l.history {
			if len(times) == 0 || !times[len(times)-1].After(cutoff) {
				delete(l.history, key)
			}
		}
		l.nextGC = now.Add(l.window)
	}

	if len(kept) >= l.max {
		retryAfter := kept[0].Add(l.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	l.history[reporter] = append(kept, now)
	return true, 0, nil
}

// NewReporterLimiter builds a Redis-backed limiter and falls back to an
// in-memory window when Redis is unreachable. The in-memory window resets on
// restart and is not shared across instances; that is an accepted property
// of this layer.
func NewReporterLimiter(addr, pass string, db, max int, window time.Duration) (ReporterLimiter, error) {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if addr == "" {
		return newMemoryReporterLimiter(max, window), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryReporterLimiter(max, window), err
	}

	return &redisReporterLimiter{
		client: client,
		prefix: "reports:rl",
		max:    max,
		window: window,
	}, nil
}
