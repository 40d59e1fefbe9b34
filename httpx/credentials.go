package httpx

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"
)

const refreshTTL = 8760 * time.Hour

var (
	errBadCredentials = errors.New("bad credentials")
	errNoRefresh      = errors.New("could not refresh")
)

type refreshToken struct {
	credential string
	tokenID    string
	expiration time.Time
}

// adminVerifier checks the single configured admin account and keeps issued
// refresh tokens in memory, so they do not survive a restart.
type adminVerifier struct {
	user string
	hash []byte

	mu     sync.Mutex
	tokens map[string]refreshToken
	now    func() time.Time
}

func AdminVerifier(user, passwordHash string) oauth.CredentialsVerifier {
	return &adminVerifier{
		user:   user,
		hash:   []byte(passwordHash),
		tokens: map[string]refreshToken{},
		now:    time.Now,
	}
}

func (v *adminVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	if username != v.user {
		return errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(password)); err != nil {
		return errBadCredentials
	}
	return nil
}
func (v *adminVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.tokens[refreshTokenID] = refreshToken{
		credential: credential,
		tokenID:    tokenID,
		expiration: v.now().Add(refreshTTL),
	}
	return nil
}
func (v *adminVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	// refresh tokens are single use
	stored, ok := v.tokens[refreshTokenID]
	delete(v.tokens, refreshTokenID)
	if !ok || stored.credential != credential || stored.tokenID != tokenID {
		return errNoRefresh
	}
	if stored.expiration.Before(v.now()) {
		return errNoRefresh
	}
	return nil
}
func (*adminVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}
func (*adminVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*adminVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}

// NewBearerServer issues admin bearer tokens signed with secret.
func NewBearerServer(secret string, ttl time.Duration, user, passwordHash string) *oauth.BearerServer {
	return oauth.NewBearerServer(secret, ttl, AdminVerifier(user, passwordHash), nil)
}
