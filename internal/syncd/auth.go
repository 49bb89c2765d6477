package syncd

import (
	"encoding/base64"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashToken generates a config-ready hash string for a device token.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hash), nil
}

// verifyToken compares a presented token with a hash generated by HashToken.
func verifyToken(token string, hash string) error {
	rawhash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword(rawhash, []byte(token))
}

// requireToken rejects requests whose bearer token matches none of the
// configured hashes. An empty hash list leaves the server open, which is
// fine for local development and nothing else.
func requireToken(hashes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hashes) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			for _, hash := range hashes {
				if verifyToken(token, hash) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "invalid token", http.StatusUnauthorized)
		})
	}
}
