package google

import (
	"context"
	"fmt"
	"net/http"

	"planner/internal/domain/calsync"
	"planner/internal/domain/credential"

	"golang.org/x/exp/slog"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Factory создает клиентов Calendar API от имени пользователя
type Factory struct {
	oauth    *OAuth
	creds    credential.Repository
	base     http.RoundTripper
	endpoint string
	log      *slog.Logger
}

type FactoryOption func(*Factory)

// WithTransport подменяет базовый транспорт, под ним все равно работают повторы
func WithTransport(rt http.RoundTripper) FactoryOption {
	return func(f *Factory) {
		f.base = rt
	}
}

// WithEndpoint адрес API, используется в тестах
func WithEndpoint(endpoint string) FactoryOption {
	return func(f *Factory) {
		f.endpoint = endpoint
	}
}

func NewFactory(oauth *OAuth, creds credential.Repository, log *slog.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{
		oauth: oauth,
		creds: creds,
		log:   log.With("component", "google_client"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) ForCredential(ctx context.Context, cred *credential.Credential) (calsync.Remote, error) {
	if f.oauth == nil {
		return nil, calsync.ErrNotConfigured
	}

	retrying := newRetryClient(f.base, f.log).StandardClient()

	// Обновление токена тоже идет через клиент с повторами
	refreshCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, retrying)
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.TokenExpiry,
		TokenType:    "Bearer",
	}
	source := newPersistingTokenSource(f.oauth.cfg.TokenSource(refreshCtx, tok), f.creds, cred.UserID, cred.AccessToken, f.log)

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(tok, source),
			Base:   retrying.Transport,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return newClient(svc), nil
}
