package storage

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/pasync/pasync/pkg/errors"
)

const (
	// APITokenKey is the environment variable holding the API token.
	APITokenKey = "PYTHONANYWHERE_API_TOKEN"

	// UsernameKey is the environment variable holding the account name.
	UsernameKey = "PYTHONANYWHERE_USERNAME"
)

// Mocked out for unit testing.
var loadDotenv = godotenv.Load

// NewFromEnv creates a client using credentials from the environment. A
// `.env` file in the working directory is loaded first, so tokens don't have
// to be exported in the shell.
func NewFromEnv() (Client, error) {
	if err := loadDotenv(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Debug("Failed to load .env file")
	}

	token := os.Getenv(APITokenKey)
	if token == "" {
		return nil, errors.NewFriendlyError(
			"The API token isn't set.\n"+
				"Export %s, or add it to a .env file in the current directory.",
			APITokenKey)
	}

	username := os.Getenv(UsernameKey)
	if username == "" {
		return nil, errors.NewFriendlyError(
			"The account username isn't set.\n"+
				"Export %s, or add it to a .env file in the current directory.",
			UsernameKey)
	}

	return New(Options{Username: username, APIToken: token})
}
