package static

import (
	"context"
	"errors"
	"strings"

	"paper-hub/models"
)

// Provider liefert eine fest konfigurierte Identität (Demo-Modus, S3, Postgres).
type Provider struct {
	Login     string
	AvatarURL string
}

// New erstellt einen statischen Identitäts-Provider.
func New(login, avatarURL string) *Provider {
	return &Provider{Login: strings.TrimSpace(login), AvatarURL: avatarURL}
}

func (p *Provider) Name() string { return "static" }

func (p *Provider) CurrentUser(ctx context.Context) (*models.User, error) {
	if p.Login == "" {
		return nil, errors.New("no user login configured")
	}
	return &models.User{Login: p.Login, AvatarURL: p.AvatarURL}, nil
}
