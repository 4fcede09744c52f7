package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/noortjevm/forno/internal/domain/auth"
)

// APIKeyHeader carries the client credential on mutating endpoints.
const APIKeyHeader = "api_key"

// SecurityHandler authenticates requests via HMAC-SHA256 hashed API keys.
// Raw keys are never stored; the server keeps only the keyed hash, so a
// leaked table cannot be replayed without the pepper.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{apikeys: apikeys, pepper: pepper}
}

// HashKey computes the stored form of a raw API key.
func (s *SecurityHandler) HashKey(raw string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireAPIKey wraps next, rejecting requests without a valid key in the
// api_key header.
func (s *SecurityHandler) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(APIKeyHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "api key required")
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(raw))
		sum := mac.Sum(nil)

		key, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(sum))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		stored, err := hex.DecodeString(key.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(sum, stored) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
