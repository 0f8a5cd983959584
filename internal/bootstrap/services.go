package bootstrap

import (
	"context"
	"fmt"

	"github.com/brightpixel/agency-backend/config"
	"github.com/brightpixel/agency-backend/internal/auth"
)

// Services holds the identity provider and directory shared by the api and
// worker binaries.
type Services struct {
	Provider  auth.Provider
	Directory *Directory
}

func OpenServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	app, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		return nil, err
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	dir, err := OpenDirectory(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	return &Services{
		Provider:  auth.NewFirebaseProvider(client),
		Directory: dir,
	}, nil
}

func (s *Services) Close() error {
	return s.Directory.Close()
}
