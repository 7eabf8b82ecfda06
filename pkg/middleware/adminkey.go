package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/logger"
)

// HashKey returns the SHA-256 hex digest of a raw key. Configuration stores
// only these digests.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// AdminKey guards administrative handlers such as cache invalidation. The
// key is read from "Authorization: Bearer <key>" or X-API-Key and must hash
// to one of hashes.
func AdminKey(hashes []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(hashes))
	for _, h := range hashes {
		allowed = append(allowed, []byte(strings.ToLower(strings.TrimSpace(h))))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}
			presented := []byte(HashKey(key))
			for _, a := range allowed {
				if subtle.ConstantTimeCompare(presented, a) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.FromContext(r.Context()).Warn("admin key rejected", "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "invalid api key")
		})
	}
}

func extractKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}` + "\n"))
}
