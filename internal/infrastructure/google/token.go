package google

import (
	"context"
	"sync"
	"time"

	"planner/internal/domain/credential"

	"golang.org/x/exp/slog"
	"golang.org/x/oauth2"
)

const tokenSaveTimeout = 5 * time.Second

// persistingTokenSource сохраняет обновленный access token обратно в хранилище
type persistingTokenSource struct {
	base   oauth2.TokenSource
	creds  credential.Repository
	userID int
	log    *slog.Logger

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(base oauth2.TokenSource, creds credential.Repository, userID int, initial string, log *slog.Logger) *persistingTokenSource {
	return &persistingTokenSource{
		base:   base,
		creds:  creds,
		userID: userID,
		last:   initial,
		log:    log,
	}
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken

	ctx, cancel := context.WithTimeout(context.Background(), tokenSaveTimeout)
	defer cancel()

	// Не удалось сохранить - токен все равно годен, при следующем запуске обновится снова
	if err := s.creds.UpdateToken(ctx, s.userID, tok.AccessToken, tok.RefreshToken, tok.Expiry); err != nil {
		s.log.Warn("failed to persist refreshed token", "user_id", s.userID, "error", err)
	} else {
		s.log.Debug("oauth token refreshed", "user_id", s.userID, "expiry", tok.Expiry)
	}

	return tok, nil
}
