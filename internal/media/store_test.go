// AngelaMos | 2026
// store_test.go

package media

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServe(t *testing.T) {
	rec := httptest.NewRecorder()
	Serve(rec, &Object{
		Body:        io.NopCloser(strings.NewReader("png-bytes")),
		Size:        9,
		ContentType: "image/png",
		ModTime:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "9", rec.Header().Get("Content-Length"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; sandbox", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "Fri, 02 Jan 2026 03:04:05 GMT", rec.Header().Get("Last-Modified"))
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestServe_UnknownType(t *testing.T) {
	rec := httptest.NewRecorder()
	Serve(rec, &Object{Body: io.NopCloser(strings.NewReader(""))})

	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Last-Modified"))
}
