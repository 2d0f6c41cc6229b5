package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/platform/notice"
	"github.com/louisbranch/farmstand.market/internal/platform/requestctx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/marketapi"
)

const refreshTokenHeader = "X-Refresh-Token"

// tokenLeeway refreshes upstream tokens shortly before they expire.
const tokenLeeway = 30 * time.Second

type authFailureKey struct{}

// MarkAuthFailure flags the request as needing a login redirect. It is the
// storeerror auth-failure hook for requests served here.
func MarkAuthFailure(ctx context.Context) {
	if flag, ok := ctx.Value(authFailureKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}

func authFailed(ctx context.Context) bool {
	flag, ok := ctx.Value(authFailureKey{}).(*atomic.Bool)
	return ok && flag.Load()
}

func (s *Server) withLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := s.catalog.Match(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
	})
}

func withNotices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := notice.WithCollector(r.Context())
		ctx = context.WithValue(ctx, authFailureKey{}, new(atomic.Bool))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate verifies the bearer JWT, takes the caller from its subject and
// attaches a per-user upstream token source. An X-Refresh-Token header stores the
// caller's token pair so later calls can refresh it.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.unauthorized(w, r)
			return
		}
		userID, err := s.verifier.Verify(token)
		if err != nil {
			log.Printf("reject bearer token path=%s err=%v", r.URL.Path, err)
			s.unauthorized(w, r)
			return
		}

		ctx := requestctx.WithUserID(r.Context(), userID)
		if refresh := strings.TrimSpace(r.Header.Get(refreshTokenHeader)); refresh != "" {
			if err := s.credentials.PutCredentials(ctx, marketapi.Credentials{
				UserID:       userID,
				AccessToken:  token,
				RefreshToken: refresh,
				UpdatedAt:    time.Now().UTC(),
			}); err != nil {
				log.Printf("store credentials user=%s err=%v", userID, err)
			}
		}
		ctx = marketapi.ContextWithTokenSource(ctx, &marketapi.RefreshingTokenSource{
			Store:     s.credentials,
			Refresher: s.refresher,
			UserID:    userID,
			Fallback:  token,
			Leeway:    tokenLeeway,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	MarkAuthFailure(r.Context())
	s.writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "missing or invalid bearer token"))
}

// signOut drops what the service holds for the user after the upstream
// rejected their credentials.
func (s *Server) signOut(ctx context.Context) {
	userID := requestctx.UserIDFromContext(ctx)
	if userID == "" {
		return
	}
	if err := s.credentials.DeleteCredentials(context.WithoutCancel(ctx), userID); err != nil {
		log.Printf("delete credentials user=%s err=%v", userID, err)
	}
	s.stores.Forget(userID)
}
