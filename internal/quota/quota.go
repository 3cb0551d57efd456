package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
	"golang.org/x/time/rate"
)

// Gate is the rate-limiter contract consumed before any upstream work: check
// and consume one quota unit for a key, reporting whether the call may
// proceed. Implementations may be network-backed; the caller treats the gate
// as a black box.
type Gate interface {
	Check(ctx context.Context, key string) (bool, error)
}

// Key builds the namespaced quota key for an operation and caller identity.
func Key(namespace, operation, clientID string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, clientID)
}

// idleKeyTTL evicts limiters for callers that have gone quiet.
const idleKeyTTL = time.Hour

// Local is an in-process Gate backed by a token bucket per key. The limiter
// store is non-locking: two concurrent first requests for the same key can
// each create a bucket, and the last write wins. A caller gaining one extra
// request in that window is acceptable for the gains of skipping locking.
type Local struct {
	limiters *otter.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewLocal creates a gate allowing perMinute sustained requests per key with
// the given burst allowance, tracking at most maxKeys callers.
func NewLocal(perMinute int, burst int, maxKeys int) *Local {
	limiters := otter.Must(&otter.Options[string, *rate.Limiter]{
		MaximumSize:      maxKeys,
		ExpiryCalculator: otter.ExpiryAccessing[string, *rate.Limiter](idleKeyTTL),
	})

	return &Local{
		limiters: limiters,
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (l *Local) Check(ctx context.Context, key string) (bool, error) {
	entry, ok := l.limiters.GetEntry(key)

	var limiter *rate.Limiter
	if ok {
		limiter = entry.Value
	} else {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Set(key, limiter)
	}

	return limiter.Allow(), nil
}

// Unlimited is a Gate that always admits. Testing use.
type Unlimited struct{}

func (Unlimited) Check(ctx context.Context, key string) (bool, error) {
	return true, nil
}
