package credentials

import (
	"context"
	"strings"
	"sync/atomic"
)

// Source is the injected credential capability. The generation client asks
// for the active token at call time, so a credential rotated mid-session is
// honored on the next call. A nil Source is treated as "assume ready" with an
// empty token.
type Source interface {
	// Token returns the active API credential, or empty when none is selected.
	Token(ctx context.Context) (string, error)
	// Ready reports whether a credential is currently selected.
	Ready(ctx context.Context) bool
	// RequestSelection asks the host environment to prompt the user to select
	// or re-select a credential.
	RequestSelection(ctx context.Context) error
}

// Static serves a fixed token, typically sourced from the environment.
// RequestSelection only flags that a re-selection was asked for; rotating the
// value is up to the operator.
type Static struct {
	token     string
	requested atomic.Bool
}

func NewStatic(token string) *Static {
	return &Static{token: strings.TrimSpace(token)}
}

func (s *Static) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

func (s *Static) Ready(ctx context.Context) bool {
	return s.token != ""
}

func (s *Static) RequestSelection(ctx context.Context) error {
	s.requested.Store(true)
	return nil
}

// SelectionRequested reports whether a credential re-selection has been asked
// for since startup.
func (s *Static) SelectionRequested() bool {
	return s.requested.Load()
}

var _ Source = (*Static)(nil)
