package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"songvault/internal/store"
)

// maxUploadSize caps a single multipart request body.
const maxUploadSize = 10 << 20

var allowedUploadTypes = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/wave": ".wav",
	"audio/wav":  ".wav",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// parseUploadForm bounds and parses a multipart request body.
func parseUploadForm(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return fmt.Errorf("%w: request body must be multipart form data up to 10 MB", store.ErrInvalidInput)
	}
	return nil
}

// saveUpload spools a named file part to a temp file and returns its path.
// Returns an empty path when the field is absent. Content type is sniffed
// from the payload rather than trusted from the part header.
func saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: could not read %s upload", store.ErrInvalidInput, field)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s upload: %w", field, err)
	}

	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: only MP3, WAV, JPEG and PNG files are allowed", store.ErrInvalidInput)
	}
	if got := strings.ToLower(filepath.Ext(header.Filename)); got == ".jpeg" {
		ext = ".jpeg"
	}

	tmp, err := os.CreateTemp("", "upload-"+uuid.NewString()+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("spool %s upload: %w", field, err)
	}
	defer tmp.Close()

	if _, err := tmp.Write(head[:n]); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool %s upload: %w", field, err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool %s upload: %w", field, err)
	}
	return tmp.Name(), nil
}

// discardSpools removes spooled files that will not reach the media gateway.
// Paths the gateway already consumed are gone, so missing files are fine.
func discardSpools(paths ...string) {
	for _, path := range paths {
		if path != "" {
			os.Remove(path)
		}
	}
}

// formValue returns a pointer to the field value, or nil when the field was
// not part of the form. Distinguishing absent from empty keeps partial
// updates honest.
func formValue(r *http.Request, field string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formBool parses an optional boolean form field.
func formBool(r *http.Request, field string) (*bool, error) {
	raw := formValue(r, field)
	if raw == nil {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", store.ErrInvalidInput, field)
	}
	return &parsed, nil
}

// formIDs parses a repeated or comma separated list of numeric ids.
func formIDs(r *http.Request, field string) ([]int64, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var ids []int64
	for _, value := range r.MultipartForm.Value[field] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must contain numeric ids", store.ErrInvalidInput, field)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// formStrings flattens a repeated or comma separated list field.
func formStrings(r *http.Request, field string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	var out []string
	for _, value := range r.MultipartForm.Value[field] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
