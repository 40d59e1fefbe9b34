package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/oauth"

	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/model"
	"github.com/mbolis/national-dialog/session"
)

// Admin middleware to check for the 'admin' role in an OAuth token.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		isAdmin := false
		for _, role := range strings.Split(claims["roles"], ",") {
			if role == "admin" {
				isAdmin = true
				break
			}
		}

		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type sessionKey struct{}

// Session restores the visitor's session from the signed cookie, or starts an
// unauthenticated one, and stores it in the request context.
func Session(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verify := jwtauth.Verify(ja, jwtauth.TokenFromCookie)
	return func(next http.Handler) http.Handler {
		return verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.New()

			_, claims, err := jwtauth.FromContext(r.Context())
			switch {
			case errors.Is(err, jwtauth.ErrNoTokenFound):
			case err != nil:
				log.Debugf("session.verify: %s", err)
			default:
				if u, ok := userFromClaims(claims); ok {
					sess = session.Restore(u)
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
}

// SessionFrom returns the session set up by the Session middleware.
func SessionFrom(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionKey{}).(*session.Session); ok {
		return sess
	}
	return session.New()
}

// RequireSession stops any request whose session is not authenticated.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).Authenticated() {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const SessionCookie = "jwt"

// IssueSession sets the cookie that keeps u authenticated for ttl.
func IssueSession(w http.ResponseWriter, ja *jwtauth.JWTAuth, u model.User, ttl time.Duration) error {
	now := time.Now()
	claims := map[string]interface{}{
		"name":       u.Name,
		"phone":      u.Phone,
		"email":      u.Email,
		"registered": u.Timestamp.Format(time.RFC3339Nano),
		"iat":        now,
		"exp":        now.Add(ttl),
	}
	_, token, err := ja.Encode(claims)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     SessionCookie,
		Value:    token,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func userFromClaims(claims map[string]interface{}) (model.User, bool) {
	name, _ := claims["name"].(string)
	phone, _ := claims["phone"].(string)
	email, _ := claims["email"].(string)
	registered, _ := claims["registered"].(string)
	if name == "" || phone == "" || email == "" {
		return model.User{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, registered)
	if err != nil {
		return model.User{}, false
	}
	return model.User{Name: name, Phone: phone, Email: email, Timestamp: ts}, true
}
