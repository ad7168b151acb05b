package credentials

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"studio/internal/infra"
	"studio/internal/sqlinline"
)

const ProviderGemini = "gemini"

// Store looks the active credential up from the database on every call, so a
// token rotated while the service is running takes effect on the next
// generation call without a restart.
type Store struct {
	sql       infra.SQLExecutor
	provider  string
	requested atomic.Bool
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, provider: ProviderGemini}
}

func (s *Store) Token(ctx context.Context) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectCredential, s.provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) Ready(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// RequestSelection flags that the UI should prompt the user to provide a
// fresh credential. The flag is cleared the next time a token is stored.
func (s *Store) RequestSelection(ctx context.Context) error {
	s.requested.Store(true)
	return nil
}

// SelectionRequested reports whether a re-selection prompt is pending.
func (s *Store) SelectionRequested() bool {
	return s.requested.Load()
}

// SetToken stores or rotates the credential.
func (s *Store) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("credential token is required")
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertCredential, s.provider, token); err != nil {
		return err
	}
	s.requested.Store(false)
	return nil
}

var _ Source = (*Store)(nil)
