package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var errStillDown = errors.New("still down")

// Retry re-runs failing probes with a fixed backoff. Only manual
// checks go through it; the scheduled loop takes single samples and
// lets the next tick be the retry.
type Retry struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

func (r *Retry) Probe(ctx context.Context, t *domain.Target, ct domain.CheckType) domain.CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var last domain.CheckResult
	var tries int
	err := retry.Do(
		func() error {
			tries++
			last = r.Inner.Probe(ctx, t, ct)
			if last.Status == domain.StatusUp {
				return nil
			}
			return errStillDown
		},
		retry.Attempts(uint(attempts)),
		retry.Delay(r.Backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil && tries > 1 {
		last.Message = fmt.Sprintf("%s (after %d attempts)", last.Message, tries)
	}
	return last
}
