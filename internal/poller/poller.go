package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio/internal/domain"
	"studio/internal/providers/genai"
)

// ErrAttemptsExhausted is returned when a bounded policy runs out of checks
// before the backend reports completion.
var ErrAttemptsExhausted = errors.New("poll attempts exhausted")

// Fetcher re-reads a long-running operation's status by name.
type Fetcher interface {
	FetchOperation(ctx context.Context, name string) (*genai.Operation, error)
}

// Policy controls the poll loop. MaxAttempts of zero reproduces the original
// unbounded wait: the loop terminates only when the backend reports done.
// The bound exists so the gap is explicit configuration rather than an
// accident.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolicy matches the source behavior: a fixed five-second interval and
// no attempt ceiling.
func DefaultPolicy() Policy {
	return Policy{Interval: 5 * time.Second}
}

// Poller drives a submitted video operation to completion.
type Poller struct {
	fetcher Fetcher
	policy  Policy
}

func New(fetcher Fetcher, policy Policy) *Poller {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPolicy().Interval
	}
	return &Poller{fetcher: fetcher, policy: policy}
}

// Await blocks until the operation settles, then returns the artifact URI.
// A done operation without an artifact is a failure, not an empty success.
// The context is honored at each wait, so a caller can abandon the poll even
// though the backend job itself runs on.
func (p *Poller) Await(ctx context.Context, op *genai.Operation) (string, error) {
	if op == nil {
		return "", errors.New("nil operation handle")
	}

	attempts := 0
	for !op.Done {
		if p.policy.MaxAttempts > 0 && attempts >= p.policy.MaxAttempts {
			return "", fmt.Errorf("operation %s: %w", op.Name, ErrAttemptsExhausted)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.policy.Interval):
		}

		next, err := p.fetcher.FetchOperation(ctx, op.Name)
		if err != nil {
			return "", fmt.Errorf("refresh operation %s: %w", op.Name, err)
		}
		op = next
		attempts++
	}

	if op.Error != nil {
		return "", fmt.Errorf("video synthesis failed: %s", op.Error.Message)
	}
	uri := op.VideoURI()
	if uri == "" {
		return "", fmt.Errorf("operation %s: %w", op.Name, domain.ErrNoArtifact)
	}
	return uri, nil
}
