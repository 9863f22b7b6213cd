package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/services"
)

type FileResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploaderID uuid.UUID `json:"uploader_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewFiles(in []services.FileView) []FileResponse {
	out := make([]FileResponse, 0, len(in))
	for _, f := range in {
		out = append(out, FileResponse(f))
	}
	return out
}
