package middleware

import (
	"net/http"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DefaultMaxBodySize caps request bodies at 10mb, enough headroom for a
// base64-encoded certificate scan.
const DefaultMaxBodySize int64 = 10 << 20

// MaxBodySizeFromEnv reads the MAX_BODY_SIZE override (bytes), falling back
// to the default on absence or a bad value.
func MaxBodySizeFromEnv() int64 {
	raw := os.Getenv("MAX_BODY_SIZE")
	if raw == "" {
		return DefaultMaxBodySize
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size <= 0 {
		logrus.WithField("MAX_BODY_SIZE", raw).Warn("Invalid MAX_BODY_SIZE, using default")
		return DefaultMaxBodySize
	}
	return size
}

// BodyLimit rejects request bodies larger than limit bytes. Reads past the
// limit fail inside the handler's decoder, which surfaces as a 400 there.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
