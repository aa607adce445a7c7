package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// ErrMissingCredentials is returned when a credentials file path is empty or does not exist.
var ErrMissingCredentials = errors.New("google credentials file not found")

// ServiceAccount holds parsed service account credentials.
type ServiceAccount struct {
	conf *jwt.Config
}

// LoadServiceAccount reads a service account key file (the JSON downloaded
// from the Cloud console) and prepares it for the given scopes.
func LoadServiceAccount(path string, scopes ...string) (*ServiceAccount, error) {
	data, err := readCredentials(path)
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		scopes = ServiceAccountScopes
	}

	conf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	if conf.Email == "" {
		return nil, fmt.Errorf("service account credentials in %s have no client_email", path)
	}
	return &ServiceAccount{conf: conf}, nil
}

// Email returns the service account's address. Users share their calendars with it.
func (s *ServiceAccount) Email() string {
	return s.conf.Email
}

// HTTPClient returns an authenticated client for Google API calls.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func (s *ServiceAccount) HTTPClient(ctx context.Context) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: s.conf.TokenSource(ctx),
			Base:   &http.Transport{ForceAttemptHTTP2: false},
		},
	}
}

// LoadWebClientConfig reads OAuth web client credentials and returns a config
// redirecting to redirectURL with the onboarding scopes.
func LoadWebClientConfig(path, redirectURL string) (*oauth2.Config, error) {
	data, err := readCredentials(path)
	if err != nil {
		return nil, err
	}

	conf, err := google.ConfigFromJSON(data, OnboardingScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client credentials: %w", err)
	}
	if redirectURL != "" {
		conf.RedirectURL = redirectURL
	}
	return conf, nil
}

func readCredentials(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrMissingCredentials
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return data, nil
}
