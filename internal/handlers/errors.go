package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/services"
)

const uploadField = "files"

// respondError переводит ошибку сервиса в HTTP-ответ; причина 5xx пишется в лог
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"kind", apperr.KindOf(err),
			"error", err,
		)
	}
	_ = c.Error(err)

	body := gin.H{"error": apperr.MessageOf(err)}
	if apperr.Retryable(err) {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// paramID разбирает uuid из пути; при ошибке ответ уже отправлен
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}

// formUploads открывает файлы multipart-формы; close нужно вызвать после обработки
func formUploads(c *gin.Context, field string) ([]services.Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperr.Validation("expected a multipart form")
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil, apperr.Validation("no files to upload")
	}

	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, nil, apperr.Validation("cannot read uploaded file")
		}
		opened = append(opened, f)
		uploads = append(uploads, services.Upload{Name: h.Filename, Size: h.Size, Body: f})
	}
	return uploads, closeAll, nil
}
