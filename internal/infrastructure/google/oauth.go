package google

import (
	"context"
	"fmt"

	"planner/internal/app/server/config"
	"planner/internal/domain/calsync"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// OAuth обмен кода авторизации на токены Google
type OAuth struct {
	cfg *oauth2.Config
}

// NewOAuth возвращает nil, если клиент OAuth не настроен
func NewOAuth(cfg config.Google) *OAuth {
	if !cfg.Configured() {
		return nil
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{calendar.CalendarScope},
		},
	}
}

// AuthCodeURL ссылка на согласие с офлайн-доступом, чтобы Google выдал refresh token
func (o *OAuth) AuthCodeURL(state string) string {
	return o.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (o *OAuth) Exchange(ctx context.Context, code string) (*calsync.Token, error) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return &calsync.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}
