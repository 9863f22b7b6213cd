package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/schedule"
)

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name"`
	Career      string    `json:"career,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// NewUserResponse private=false скрывает email и телефон
func NewUserResponse(u *models.User, private bool) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		Career:      u.Career,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
		LastSeenAt:  u.LastSeenAt,
	}
	if private {
		resp.Email = u.Email
		resp.Phone = u.Phone
	}
	return resp
}

type UpdateProfileRequest struct {
	DisplayName     *string `json:"display_name"`
	Career          *string `json:"career"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
	ConfirmPassword string  `json:"confirm_password"`
}

type ScheduleBlock struct {
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Type      string `json:"type"`
}

type ScheduleRequest struct {
	Blocks []ScheduleBlock `json:"blocks" binding:"dive"`
}

func ScheduleToBlocks(in []ScheduleBlock) []schedule.Block {
	out := make([]schedule.Block, 0, len(in))
	for _, b := range in {
		out = append(out, schedule.Block{DayOfWeek: b.DayOfWeek, StartTime: b.StartTime, EndTime: b.EndTime, Type: b.Type})
	}
	return out
}

func NewSchedule(blocks []schedule.Block) []ScheduleBlock {
	out := make([]ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ScheduleBlock{DayOfWeek: b.DayOfWeek, StartTime: b.StartTime, EndTime: b.EndTime, Type: b.Type})
	}
	return out
}

type MemberProfileResponse struct {
	User     UserResponse    `json:"user"`
	Schedule []ScheduleBlock `json:"schedule"`
}
