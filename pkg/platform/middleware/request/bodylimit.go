package request

import (
	"net/http"

	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
)

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over the
// cap is rejected before the handler runs; undeclared bodies are cut off by
// http.MaxBytesReader and surface as a decode error.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body too large"))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
