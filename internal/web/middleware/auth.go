package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/console/internal/config"
	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/logging"
)

// APIKeyAuth guards bulk mutations and the audit log with an API key, read
// from X-API-Key or an "Authorization: Bearer" header. When RequireAPIKey is
// false every request passes; when it is true and no keys are configured
// every request is rejected.
//
// Rejections answer JSON. HTMX requests also get a showToast trigger so the
// console explains why the action did nothing.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := requestAPIKey(r)
			switch {
			case key == "":
				reject(w, r, http.StatusUnauthorized, "AUTH_MISSING_KEY", "missing API key")
			case !isValidAPIKey(key, cfg.APIKeys):
				reject(w, r, http.StatusForbidden, "AUTH_INVALID_KEY", "invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func reject(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logging.FromContext(r.Context()).Warn("auth: "+message,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)

	if r.Header.Get("HX-Request") == "true" {
		trigger, _ := json.Marshal(map[string]any{
			"showToast": map[string]any{
				"toasts": []grid.Notification{{Level: grid.LevelError, Title: "Not authorized", Message: message}},
			},
		})
		w.Header().Set("HX-Trigger", string(trigger))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(authError{Error: message, Code: code})
}

// isValidAPIKey checks the key against every configured key in constant
// time, so timing does not reveal which key (if any) matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
