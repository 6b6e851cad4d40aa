package db

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// NewFirebaseApp initializes the Firebase app shared by the store and identity backends.
func NewFirebaseApp(ctx context.Context, projectID, credentialsPath, databaseURL string) (*firebase.App, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{
		ProjectID:   projectID,
		DatabaseURL: databaseURL,
	}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	log.Printf("✅ Firebase app initialized for project: %s", projectID)
	return app, nil
}
