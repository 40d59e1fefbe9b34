package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/httpx"
	"github.com/mbolis/national-dialog/log"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges admin basic auth credentials for a bearer token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		r.Body = grantBody(r, url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		app.Bearer.UserCredentials(w, r)
	}
}

// Refresh trades a refresh token, sent as "Authorization: Refresh <token>", for
// a new token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/", nil)
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		req.Body = grantBody(req, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})

		resp := httpx.NewResponseBuffer()
		app.Bearer.UserCredentials(resp, req)
		if resp.Status() != http.StatusOK {
			log.Debugf("refresh.rejected: %d", resp.Status())
		}
		resp.Flush(w)
	}
}

func grantBody(r *http.Request, body url.Values) io.ReadCloser {
	encoded := body.Encode()
	r.Header.Set("content-type", "application/x-www-form-urlencoded")
	r.Header.Set("content-length", strconv.Itoa(len(encoded)))
	r.ContentLength = int64(len(encoded))
	return io.NopCloser(strings.NewReader(encoded))
}
