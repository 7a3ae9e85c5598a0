package shipper

import (
	"context"
	"fmt"
	"strings"
)

// RetryDecision tells RetryPolicy.Run what to do after a failed attempt.
type RetryDecision int

const (
	// Abort surfaces the error immediately.
	Abort RetryDecision = iota
	// Retry moves on to the next candidate.
	Retry
)

// RetryPolicy retries an operation over an ordered list of input variations.
type RetryPolicy struct {
	// Carrier labels errors.
	Carrier string
	// Candidates yields the variations to try, in order.
	Candidates func() []string
	// Decide inspects a failed attempt (1-based) and picks Retry or Abort.
	Decide func(attempt int, err error) RetryDecision
}

// Run calls attempt for each candidate until one succeeds. It returns the
// candidate that was accepted. An Abort decision returns that attempt's
// error as is; running out of candidates returns ErrVariationsExhausted.
func (p RetryPolicy) Run(ctx context.Context, attempt func(ctx context.Context, candidate string) error) (string, error) {
	candidates := p.Candidates()
	if len(candidates) == 0 {
		return "", ValidationError(p.Carrier, "no address variations to try")
	}

	var lastErr error
	tried := make([]string, 0, len(candidates))
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", TransientError(p.Carrier, err)
		}

		err := attempt(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		tried = append(tried, candidate)
		lastErr = err

		if p.Decide == nil || p.Decide(i+1, err) == Abort {
			return "", err
		}
	}

	return "", &ShipperError{
		Carrier: p.Carrier,
		Kind:    ErrVariationsExhausted,
		Code:    "VARIATIONS_EXHAUSTED",
		Message: fmt.Sprintf("tried %s; last error: %s", quoteAll(tried), RawText(lastErr)),
		Raw:     RawText(lastErr),
		Cause:   lastErr,
	}
}

// RetryOnMatch retries while the provider error text contains needle,
// compared case-insensitively. Anything else aborts.
func RetryOnMatch(needle string) func(int, error) RetryDecision {
	needle = strings.ToLower(needle)
	return func(_ int, err error) RetryDecision {
		if strings.Contains(strings.ToLower(RawText(err)), needle) {
			return Retry
		}
		return Abort
	}
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}
