package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

// multipartOverhead is the allowance for form boundaries and headers on top of the file itself.
const multipartOverhead = 64 << 10

var (
	// ErrMissingFile is returned when the request carries no file in the expected field.
	ErrMissingFile = errors.New("no file uploaded")
	// ErrTooLarge is returned when the file exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned when the extension or the sniffed content is not an accepted image type.
	ErrUnsupportedType = errors.New("only JPEG and PNG files are allowed")
)

var allowedExtensions = map[string]bool{".jpeg": true, ".jpg": true, ".png": true}

var allowedMIME = map[string]bool{"image/jpeg": true, "image/png": true}

// Upload is a validated file held in memory until it is persisted.
type Upload struct {
	Name string // client-supplied file name
	Ext  string // lower-cased extension including the dot
	MIME string
	Data []byte
}

// Local stores uploads as flat files in a single directory.
type Local struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir string, maxBytes int64) (*Local, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("invalid upload size limit %d", maxBytes)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Local{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// FromRequest reads and validates the multipart file in field.
func (l *Local) FromRequest(w http.ResponseWriter, r *http.Request, field string) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, l.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(l.maxBytes + multipartOverhead); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return nil, ErrTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrMissingFile
		}
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrMissingFile
		}
		return nil, fmt.Errorf("failed to read form file: %w", err)
	}
	defer file.Close()

	if header.Size > l.maxBytes {
		return nil, ErrTooLarge
	}
	return l.Inspect(header.Filename, file)
}

// Inspect validates size, extension and sniffed content type of a file.
func (l *Local) Inspect(name string, r io.Reader) (*Upload, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !allowedMIME[mtype.String()] {
		return nil, ErrUnsupportedType
	}

	return &Upload{Name: name, Ext: ext, MIME: mtype.String(), Data: data}, nil
}

// Save writes the upload under a unique name and returns its public URL path.
func (l *Local) Save(u *Upload) (string, error) {
	name := fmt.Sprintf("%d-%s%s", l.now().UnixMilli(), uuid.New().String(), u.Ext)
	dst, err := os.OpenFile(filepath.Join(l.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, bytes.NewReader(u.Data)); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	log.Debug().Str("file", name).Int("bytes", len(u.Data)).Msg("Stored upload")
	return URLPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save. Missing files are not an error.
func (l *Local) Remove(url string) error {
	name := path.Base(url)
	if name == "." || name == ".." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Orphans lists URLs of stored files not present in referenced and last modified before cutoff.
func (l *Local) Orphans(referenced map[string]bool, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		url := URLPrefix + entry.Name()
		if referenced[url] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			orphans = append(orphans, url)
		}
	}
	return orphans, nil
}
