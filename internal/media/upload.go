// AngelaMos | 2026
// upload.go

package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/carterperez-dev/blog-api/internal/core"
)

// Upload is an image received from a client, buffered and sniffed.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	data        []byte
}

func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.data)
}

// imageTypes are the raster formats accepted for upload. SVG is excluded
// since it can carry script and is served from the API origin.
var imageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
}

// NewUpload validates raw bytes as a raster image no larger than maxBytes.
func NewUpload(filename string, data []byte, maxBytes int64) (*Upload, error) {
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf(
			"image exceeds %d bytes: %w",
			maxBytes,
			core.ErrPayloadTooBig,
		)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty: %w", core.ErrInvalidInput)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), imageTypes...) {
		return nil, fmt.Errorf(
			"unsupported image type %s: %w",
			mt.String(),
			core.ErrInvalidInput,
		)
	}

	return &Upload{
		Filename:    filename,
		ContentType: mt.String(),
		Size:        int64(len(data)),
		data:        data,
	}, nil
}

// FromRequest reads an optional image field from a parsed multipart form.
// A missing field or a part without a filename yields nil.
func FromRequest(r *http.Request, field string, maxBytes int64) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, core.ErrInvalidInput)
	}
	defer file.Close() //nolint:errcheck // multipart temp file

	if header.Filename == "" {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}

	return NewUpload(header.Filename, data, maxBytes)
}

// formOverhead is the allowance for non-file fields on top of the image.
const formOverhead = 1 << 20

// ParseForm parses a multipart or urlencoded body capped at maxBytes plus
// room for the text fields.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)

	err := r.ParseMultipartForm(maxBytes + formOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("parse form: %w", core.ErrPayloadTooBig)
	}

	return fmt.Errorf("parse form: %w", core.ErrInvalidInput)
}

// ImageURL is the public path an image is streamed from.
func ImageURL(kind, ownerID string) string {
	switch kind {
	case KindProfile:
		return "/user/" + ownerID + "/image"
	case KindPost:
		return "/post/" + ownerID + "/image"
	default:
		return ""
	}
}

// WriteFormError maps ParseForm and FromRequest failures onto responses.
func WriteFormError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrPayloadTooBig):
		core.JSONError(w, core.PayloadTooLargeError("upload too large"))
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid form data")
	default:
		core.InternalServerError(w, err)
	}
}

// OptionalValue returns a form value, or nil when the field is absent or
// blank. Use SubmittedValue for fields that may be cleared.
func OptionalValue(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

// SubmittedValue returns a form value whenever the field was sent, blank
// included, and nil only when it is absent.
func SubmittedValue(r *http.Request, key string) *string {
	if _, ok := r.Form[key]; !ok {
		return nil
	}
	v := r.Form.Get(key)
	return &v
}
