package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/activity"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
)

type CreateGroupRequest struct {
	Name     string `json:"name" binding:"required"`
	IsPublic bool   `json:"is_public"`
}

type JoinGroupRequest struct {
	Code string `json:"code" binding:"required"`
}

type RenameGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type VisibilityRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

type AnnouncementRequest struct {
	Text string `json:"text" binding:"required"`
}

type GroupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code"`
	CreatorID uuid.UUID `json:"creator_id"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGroupResponse(g *models.Group) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		JoinCode:  g.JoinCode,
		CreatorID: g.CreatorID,
		IsPublic:  g.IsPublic,
		CreatedAt: g.CreatedAt,
	}
}

type GroupSummaryResponse struct {
	GroupResponse
	IsAdmin     bool      `json:"is_admin"`
	JoinedAt    time.Time `json:"joined_at"`
	MemberCount int64     `json:"member_count"`
}

func NewGroupSummaries(in []database.GroupSummary) []GroupSummaryResponse {
	out := make([]GroupSummaryResponse, 0, len(in))
	for i := range in {
		out = append(out, GroupSummaryResponse{
			GroupResponse: NewGroupResponse(&in[i].Group),
			IsAdmin:       in[i].IsAdmin,
			JoinedAt:      in[i].JoinedAt,
			MemberCount:   in[i].MemberCount,
		})
	}
	return out
}

type MemberResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	JoinedAt    time.Time `json:"joined_at"`
}

func NewMember(m *models.Membership) MemberResponse {
	return MemberResponse{UserID: m.UserID, DisplayName: m.DisplayName, IsAdmin: m.IsAdmin, JoinedAt: m.JoinedAt}
}

func NewMembers(in []models.Membership) []MemberResponse {
	out := make([]MemberResponse, 0, len(in))
	for i := range in {
		out = append(out, NewMember(&in[i]))
	}
	return out
}

type GroupPreviewResponse struct {
	Group    GroupResponse         `json:"group"`
	Members  []MemberResponse      `json:"members"`
	Stream   []activity.StreamItem `json:"stream,omitempty"`
	CanRead  bool                  `json:"can_read"`
	IsMember bool                  `json:"is_member"`
}

type JoinResponse struct {
	Group  GroupResponse  `json:"group"`
	Member MemberResponse `json:"member"`
}
