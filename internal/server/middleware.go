package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"foodbridge/internal"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeyUserID contextKey = "user_id"
	contextKeyRole   contextKey = "role"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth validates the caller's access token and puts the acting user
// id and role on the request context. Tokens arrive either as a bearer
// header (API clients) or inside the encrypted session cookie (the web UI).
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		accessToken := bearerToken(r)
		if accessToken == "" {
			cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
			if err != nil {
				s.logger.WithError(err).Debug("no access token found")
				s.respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			err = s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken)
			if err != nil {
				s.logger.WithError(err).Error("failed to decrypt access token")
				s.respondError(w, http.StatusUnauthorized, "invalid session")
				return
			}
		}

		set, err := s.jwksCache.Lookup(r.Context(), s.jwksURL)
		if err != nil {
			s.logger.WithError(err).Error("failed to fetch JWKS")
			s.respondError(w, http.StatusUnauthorized, "authentication unavailable")
			return
		}

		token, err := jwt.Parse(
			[]byte(accessToken),
			jwt.WithKeySet(set),
			jwt.WithValidate(true),
		)
		if err != nil {
			s.logger.WithError(err).Error("failed to parse JWT")
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, ok := token.Subject()
		if !ok || userID == "" {
			s.logger.Error("no user ID in JWT subject claim")
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		var role string
		if err := token.Get("role", &role); err != nil {
			s.logger.WithError(err).Warn("no role claim in JWT")
			// role is informational, the engine enforces ownership itself
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyUserID, userID)
		if role != "" {
			ctx = context.WithValue(ctx, contextKeyRole, role)
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"role":    role,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newPath := strings.TrimSuffix(path, "/")
			newURL := *r.URL
			newURL.Path = newPath

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
