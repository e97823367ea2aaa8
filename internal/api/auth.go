package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonny/dlmm-orders/pkg/logger"
)

// TokenCost is the bcrypt cost of API token hashes
const TokenCost = 12

// maxTokenLength is bcrypt's input limit
const maxTokenLength = 72

// ErrEmptyToken is returned when hashing an empty token
var ErrEmptyToken = errors.New("token cannot be empty")

// HashToken returns the bcrypt hash to put in API_TOKEN_HASH
func HashToken(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}
	if len(token) > maxTokenLength {
		return "", errors.New("token exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), TokenCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// tokenAuth guards state-changing routes with a bearer token checked against
// a bcrypt hash. An empty hash disables the check.
func tokenAuth(hash string, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
				log.WithFields(map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Warn("Rejected unauthenticated request")

				w.Header().Set("WWW-Authenticate", `Bearer realm="dlmm-orders"`)
				respondUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
