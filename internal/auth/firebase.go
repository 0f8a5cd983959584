package auth

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/brightpixel/agency-backend/config"
)

var firebaseScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

type serviceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id,omitempty"`
	TokenURI     string `json:"token_uri"`
}

// InitializeFirebase builds the Firebase Admin app from the service credential
// values in cfg. It is called once at boot and the app is injected from there.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*firebase.App, error) {
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	gcreds, err := google.CredentialsFromJSON(ctx, creds, firebaseScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:        cfg.ProjectID,
		ServiceAccountID: cfg.ClientEmail,
	}, option.WithCredentials(gcreds))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	return app, nil
}

// credentialsJSON assembles a service account key document from the env trio.
func credentialsJSON(cfg *config.FirebaseConfig) ([]byte, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("firebase config is required")
	case cfg.ProjectID == "":
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required")
	case cfg.PrivateKey == "":
		return nil, fmt.Errorf("FIREBASE_PRIVATE_KEY is required")
	case cfg.ClientEmail == "":
		return nil, fmt.Errorf("FIREBASE_CLIENT_EMAIL is required")
	}

	return json.Marshal(serviceAccount{
		Type:         "service_account",
		ProjectID:    cfg.ProjectID,
		PrivateKeyID: cfg.PrivateKeyID,
		PrivateKey:   cfg.PrivateKey,
		ClientEmail:  cfg.ClientEmail,
		ClientID:     cfg.ClientID,
		TokenURI:     "https://oauth2.googleapis.com/token",
	})
}
