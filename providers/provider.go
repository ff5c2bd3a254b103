package providers

import (
	"context"

	"paper-hub/models"
)

// IdentityProvider liefert die Identität der aktuellen Sitzung.
type IdentityProvider interface {
	// CurrentUser löst die Identität auf, z.B. über das Token beim Hoster.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "github").
	Name() string
}

// RepositoryVerifier wird von Providern implementiert, die prüfen können,
// ob das Ziel-Repository erreichbar ist.
type RepositoryVerifier interface {
	VerifyRepository(ctx context.Context) error
}
