package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-crypt/x/blake2b"
)

const internalTokenHeader = "X-Internal-Token"

// digestToken hashes a token with BLAKE2b so the plaintext never sits
// in server memory and comparisons are fixed-length.
func digestToken(token string) []byte {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(token))
	return h.Sum(nil)
}

// requireToken rejects requests whose X-Internal-Token header does not
// match the configured service token. The comparison is constant-time
// over the digests.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented := digestToken(r.Header.Get(internalTokenHeader))
		if subtle.ConstantTimeCompare(presented, s.tokenDigest) != 1 {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid internal token"})
			return
		}
		next(w, r)
	}
}
