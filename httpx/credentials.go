package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"

	"github.com/mbolis/survey-stats/config"
	"github.com/mbolis/survey-stats/log"
)

// refresh tokens outlive access tokens by far
const refreshTTL = 8760 * time.Hour

// AdminStore is the persistence needed to authenticate admins.
type AdminStore interface {
	VerifyPassword(ctx context.Context, username, password string) error
	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error)
}

type credentialsVerifier struct {
	store AdminStore
	now   func() time.Time
}

func CredentialsVerifier(store AdminStore) oauth.CredentialsVerifier {
	return &credentialsVerifier{store, time.Now}
}

// NewBearerServer issues admin tokens signed with the configured secret.
func NewBearerServer(store AdminStore, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(store), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	err := cs.store.VerifyPassword(r.Context(), username, password)
	if err != nil {
		log.Debugf("login.validate_user %q: %s", username, err)
	}
	return err
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.store.StoreToken(context.Background(), credential, tokenID, refreshTokenID, cs.now().Add(refreshTTL))
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.store.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
	if err != nil {
		log.Debugf("login.refresh %q: %s", credential, err)
		return errors.New("could not refresh")
	}

	if expiration.Before(cs.now()) {
		return errors.New("could not refresh")
	}
	return nil
}
func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
