package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTokenTTL = 12 * time.Hour

// argon2id cost for the signing key (OWASP minimum profile).
const (
	keyTime    = 2
	keyMemory  = 19 * 1024
	keyThreads = 1
	keyLen     = 32
)

// Authenticator checks the configured username/password pair and issues
// signed, expiring bearer tokens. Tokens are verified without server-side
// state: the signing key is derived from the configured pair with argon2id,
// so changing either secret revokes every outstanding token.
type Authenticator struct {
	username     string
	passwordHash []byte
	key          []byte
	ttl          time.Duration
	now          func() time.Time
}

type tokenClaims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	ID        string `json:"jti"`
}

// NewAuthenticator returns nil when neither secret is configured.
func NewAuthenticator(username, password string, ttl time.Duration) (*Authenticator, error) {
	if username == "" && password == "" {
		return nil, nil
	}
	if username == "" || password == "" {
		return nil, errors.New("both username and password must be configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	salt := sha256.Sum256([]byte("maintlog-token\x00" + username))
	key := argon2.IDKey([]byte(password), salt[:], keyTime, keyMemory, keyThreads, keyLen)

	return &Authenticator{
		username:     username,
		passwordHash: hash,
		key:          key,
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, domain.ErrUnauthorized
	}

	expiresAt := a.now().UTC().Add(a.ttl).Truncate(time.Second)
	payload, err := json.Marshal(tokenClaims{Subject: a.username, ExpiresAt: expiresAt.Unix(), ID: uuid.NewString()})
	if err != nil {
		return "", time.Time{}, err
	}

	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + a.sign(body), expiresAt, nil
}

func (a *Authenticator) Verify(token string) (domain.Identity, error) {
	body, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || body == "" || sig == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if !hmac.Equal([]byte(sig), []byte(a.sign(body))) {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	expiresAt := time.Unix(claims.ExpiresAt, 0).UTC()
	if claims.Subject != a.username || !a.now().Before(expiresAt) {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{Username: claims.Subject, TokenID: claims.ID, ExpiresAt: expiresAt}, nil
}

func (a *Authenticator) sign(body string) string {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *RecordService) AuthRequired() bool {
	return s.auth != nil
}

func (s *RecordService) Login(_ context.Context, username, password string) (string, time.Time, error) {
	if s.auth == nil {
		return "", time.Time{}, errors.New("authentication is not configured")
	}
	return s.auth.Login(username, password)
}

// AuthenticateBearerToken accepts any token when the gate is disabled.
func (s *RecordService) AuthenticateBearerToken(_ context.Context, token string) (domain.Identity, error) {
	if s.auth == nil {
		return domain.Identity{}, nil
	}
	return s.auth.Verify(token)
}
