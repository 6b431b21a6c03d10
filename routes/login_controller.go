package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/log"
	"github.com/mbolis/survey-stats/routes/middlewares"
)

var reRefreshAuth = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges basic auth credentials for a token pair. The tokens are
// returned in the body and also set as cookies.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}.Encode()
		r.Body = io.NopCloser(strings.NewReader(body))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body)))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, r)
		flushTokens(w, resp, "login")
	}
}

// Refresh renews a token pair, from an "Authorization: Refresh <token>"
// header or from the refresh token cookie.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if match := reRefreshAuth.FindStringSubmatch(r.Header.Get("authorization")); len(match) > 0 {
			token = match[1]
		} else if cookie, err := r.Cookie("refresh_token"); err == nil {
			token = cookie.Value
		}
		if token == "" {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		flushTokens(w, middlewares.Refresh(app.BearerServer, token), "refresh")
	}
}

func flushTokens(w http.ResponseWriter, resp httpx.ResponseBuffer, code string) {
	if resp.Status() == http.StatusOK {
		if _, err := middlewares.SetTokenCookies(w, resp); err != nil {
			httpx.LogInternalError(w, code+".cookies", err)
			return
		}
	} else {
		log.Debugf("%s: status %d", code, resp.Status())
	}
	if err := resp.Flush(w); err != nil {
		log.Warnf("%s.flush: %s", code, err)
	}
}
