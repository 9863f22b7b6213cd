package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/thereayou/flux/internal/apperr"
)

const megabyte = 1024 * 1024

// Policy ограничения на загружаемый файл
type Policy struct {
	MaxBytes int64
	// Allowed точные MIME-типы или префиксы вида "image/"
	Allowed []string
}

var (
	GroupFilePolicy = Policy{
		MaxBytes: 20 * megabyte,
		Allowed: []string{
			"application/pdf",
			"image/png",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
	}
	RepositoryFilePolicy = Policy{MaxBytes: 20 * megabyte}
	AvatarPolicy         = Policy{MaxBytes: 5 * megabyte, Allowed: []string{"image/"}}
)

func (p Policy) allows(mime string) bool {
	if len(p.Allowed) == 0 {
		return true
	}
	for _, a := range p.Allowed {
		if strings.HasSuffix(a, "/") {
			if strings.HasPrefix(mime, a) {
				return true
			}
			continue
		}
		if mime == a {
			return true
		}
	}
	return false
}

// Check определяет MIME по содержимому и проверяет размер и тип.
// body должен поддерживать Seek: после проверки он перематывается в начало.
func (p Policy) Check(name string, size int64, body io.ReadSeeker) (string, error) {
	if size <= 0 {
		return "", apperr.Validation(fmt.Sprintf("%s is empty", name))
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return "", apperr.Validation(fmt.Sprintf("%s exceeds the %d MB limit", name, p.MaxBytes/megabyte))
	}

	mt, err := mimetype.DetectReader(body)
	if err != nil {
		return "", apperr.Validation(fmt.Sprintf("could not read %s", name))
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Backend(err)
	}

	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !p.allows(mime) {
		return "", apperr.Validation(fmt.Sprintf("%s: file type %s is not allowed", name, mime))
	}
	return mime, nil
}
