package marketapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredentials reports that no access token is stored for a user.
var ErrNoCredentials = errors.New("no stored credentials")

// TokenSource supplies the bearer token for an API call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoCredentials
	}
	return string(t), nil
}

type tokenSourceKey struct{}

// ContextWithTokenSource attaches a per-request token source. It takes
// precedence over the client's own source.
func ContextWithTokenSource(ctx context.Context, tokens TokenSource) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tokenSourceKey{}, tokens)
}

func tokenSourceFromContext(ctx context.Context, fallback TokenSource) TokenSource {
	if ctx != nil {
		if tokens, ok := ctx.Value(tokenSourceKey{}).(TokenSource); ok && tokens != nil {
			return tokens
		}
	}
	return fallback
}

// Credentials is a user's stored token pair.
type Credentials struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}

// CredentialStore persists token pairs per user.
type CredentialStore interface {
	GetCredentials(ctx context.Context, userID string) (Credentials, error)
	PutCredentials(ctx context.Context, creds Credentials) error
	DeleteCredentials(ctx context.Context, userID string) error
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
}

// RefreshingTokenSource serves a user's stored access token and refreshes it
// once when its exp claim has passed.
type RefreshingTokenSource struct {
	Store     CredentialStore
	Refresher Refresher
	UserID    string
	// Fallback is used when nothing is stored for the user, typically the
	// bearer token of the inbound request.
	Fallback string
	Now      func() time.Time
	// Leeway treats tokens expiring within this window as expired.
	Leeway time.Duration

	mu sync.Mutex
}

// Token implements TokenSource.
func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.Store.GetCredentials(ctx, s.UserID)
	if errors.Is(err, ErrNoCredentials) {
		if s.Fallback == "" {
			return "", err
		}
		creds = Credentials{UserID: s.UserID, AccessToken: s.Fallback}
	} else if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}

	if !TokenExpired(creds.AccessToken, s.now().Add(s.Leeway)) {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" || s.Refresher == nil {
		return "", &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "access token expired"}
	}

	refreshed, err := s.Refresher.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		if apiErr, ok := AsError(err); ok && apiErr.Kind != KindNetwork {
			if deleteErr := s.Store.DeleteCredentials(ctx, s.UserID); deleteErr != nil {
				log.Printf("delete credentials user=%s err=%v", s.UserID, deleteErr)
			}
			return "", &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "session expired", Cause: err}
		}
		return "", err
	}
	refreshed.UserID = s.UserID
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.RefreshToken
	}
	refreshed.UpdatedAt = s.now()
	if err := s.Store.PutCredentials(ctx, refreshed); err != nil {
		return "", fmt.Errorf("store refreshed credentials: %w", err)
	}
	return refreshed.AccessToken, nil
}

func (s *RefreshingTokenSource) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// TokenExpired reports whether the JWT's exp claim is at or before now. The
// signature is not verified; the marketplace API does that. Tokens that are
// not JWTs or carry no exp never expire here.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}

// BearerVerifier checks the marketplace access tokens callers present.
type BearerVerifier struct {
	// Key is the HMAC secret the marketplace signs access tokens with.
	Key []byte
	// Issuer must match the iss claim when set.
	Issuer string
	Now    func() time.Time
}

// Configured reports whether v can verify tokens.
func (v BearerVerifier) Configured() bool {
	return len(v.Key) > 0
}

// Verify checks token's signature, exp, nbf and issuer and returns its
// subject.
func (v BearerVerifier) Verify(token string) (string, error) {
	if !v.Configured() {
		return "", errors.New("bearer verifier is not configured")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return v.Key, nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	if claims.ExpiresAt == nil {
		return "", errors.New("token exp is required")
	}
	if !claims.ExpiresAt.After(now) {
		return "", jwt.ErrTokenExpired
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return "", jwt.ErrTokenNotValidYet
	}
	if v.Issuer != "" && claims.Issuer != v.Issuer {
		return "", jwt.ErrTokenInvalidIssuer
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Refresh implements Refresher against POST /api/auth/refresh.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	request, err := jsonCall("Refresh", http.MethodPost, "/api/auth/refresh", refreshRequest{RefreshToken: refreshToken}, nil)
	if err != nil {
		return Credentials{}, err
	}
	var out refreshResponse
	request.out = &out
	request.anonymous = true
	if err := c.do(ctx, request); err != nil {
		return Credentials{}, err
	}
	if out.AccessToken == "" {
		return Credentials{}, &Error{Kind: KindUnknown, Status: http.StatusOK, Message: "refresh returned no access token"}
	}
	return Credentials{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}
