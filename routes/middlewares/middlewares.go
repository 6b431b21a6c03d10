package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/log"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// Admin middleware to check for the 'admin' role in an OAuth token signed
// with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		isAdmin := false
		if rolesClaim, ok := claims["roles"]; ok {
			for _, role := range strings.Split(rolesClaim, ",") {
				if role == "admin" {
					isAdmin = true
					break
				}
			}
		}

		if !isAdmin {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.admin.forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CookieAuth lets browsers read the admin API with the tokens stored in
// cookies by a previous login. An expired access token is renewed with the
// refresh token cookie. Requests carrying an Authorization header, and
// requests other than GET, pass through untouched.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("authorization") != "" {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie(accessTokenCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				httpx.LogInternalError(w, "auth.cookie.access_token", err)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
				r.Header.Del("authorization")
			}

			// token was empty or unauthorized
			refreshToken, err := r.Cookie(refreshTokenCookie)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					httpx.LogInternalError(w, "auth.cookie.refresh_token", err)
					return
				}
				// no way to renew: let the next handler reject the request
				h.ServeHTTP(w, r)
				return
			}

			resp := Refresh(bearerServer, refreshToken.Value)
			if resp.Status() == http.StatusUnauthorized {
				clearCookie(w, refreshTokenCookie)
				clearCookie(w, accessTokenCookie)
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.cookie.refresh")
				return
			}
			if resp.Status() != http.StatusOK {
				httpx.LogStatus(w, resp.Status(), log.WarnLevel, "auth.cookie.refresh")
				return
			}

			accessToken, err := SetTokenCookies(w, resp)
			if err != nil {
				httpx.LogInternalError(w, "auth.cookie.refresh.parse", err)
				return
			}

			r.Header.Set("authorization", "Bearer "+accessToken)
			h.ServeHTTP(w, r)
		})
	}
}

// Refresh asks the bearer server for a new token pair.
func Refresh(bearerServer *oauth.BearerServer, refreshToken string) httpx.ResponseBuffer {
	body := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}.Encode()

	resp := httpx.NewResponseBuffer()
	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		resp.WriteHeader(http.StatusInternalServerError)
		return resp
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	bearerServer.UserCredentials(resp, req)
	return resp
}

// SetTokenCookies stores the tokens of a bearer server response as cookies
// and returns the access token.
func SetTokenCookies(w http.ResponseWriter, tokenResponse httpx.ResponseBuffer) (string, error) {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := tokenResponse.Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("no access token in response")
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     accessTokenCookie,
		Value:    body.AccessToken,
		MaxAge:   body.ExpiresIn,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	if body.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     refreshTokenCookie,
			Value:    body.RefreshToken,
			MaxAge:   60 * 60 * 24 * 365,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return body.AccessToken, nil
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Path:   "/",
		Name:   name,
		Value:  "",
		MaxAge: -1,
	})
}
