package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/handlers/dto"
	"github.com/thereayou/flux/internal/services"
)

const avatarField = "avatar"

type UserHandler struct {
	profile *services.ProfileService
	log     *slog.Logger
}

func NewUserHandler(profile *services.ProfileService, log *slog.Logger) *UserHandler {
	return &UserHandler{profile: profile, log: log}
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.profile.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, true))
}

// UpdateMe обновляет имя, карьеру и, при необходимости, пароль
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.profile.Update(c.Request.Context(), currentUser(c), services.ProfileUpdate{
		DisplayName:     req.DisplayName,
		Career:          req.Career,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, true))
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	header, err := c.FormFile(avatarField)
	if err != nil {
		respondError(c, h.log, apperr.Validation("avatar file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.log, apperr.Validation("cannot read uploaded file"))
		return
	}
	defer file.Close()

	user, err := h.profile.UploadAvatar(c.Request.Context(), currentUser(c), header.Filename, header.Size, file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, true))
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	user, err := h.profile.RemoveAvatar(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, true))
}

func (h *UserHandler) GetSchedule(c *gin.Context) {
	blocks, err := h.profile.Schedule(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocks": dto.NewSchedule(blocks)})
}

// PutSchedule заменяет расписание целиком
func (h *UserHandler) PutSchedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	blocks, err := h.profile.ReplaceSchedule(c.Request.Context(), currentUser(c), dto.ScheduleToBlocks(req.Blocks))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocks": dto.NewSchedule(blocks)})
}

// GetProfile профиль участника с расписанием, без контактных данных
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	profile, err := h.profile.MemberProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.MemberProfileResponse{
		User:     dto.NewUserResponse(&profile.User, false),
		Schedule: dto.NewSchedule(profile.Schedule),
	})
}
