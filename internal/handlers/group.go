package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/flux/internal/handlers/dto"
	"github.com/thereayou/flux/internal/middleware"
	"github.com/thereayou/flux/internal/services"
)

type GroupHandler struct {
	groups *services.GroupService
	log    *slog.Logger
}

func NewGroupHandler(groups *services.GroupService, log *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, log: log}
}

// GetMyGroups группы текущего пользователя, последние вступления сначала
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	groups, err := h.groups.MyGroups(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": dto.NewGroupSummaries(groups)})
}

// CreateGroup создает группу; создатель становится администратором
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.Create(c.Request.Context(), currentUser(c), req.Name, req.IsPublic)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGroupResponse(group))
}

// PreviewGroup группа по коду; работает и без входа
func (h *GroupHandler) PreviewGroup(c *gin.Context) {
	preview, err := h.groups.Preview(c.Request.Context(), c.Param("code"), middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.GroupPreviewResponse{
		Group:    dto.NewGroupResponse(&preview.Group),
		Members:  dto.NewMembers(preview.Members),
		Stream:   preview.Stream,
		CanRead:  preview.CanRead,
		IsMember: preview.IsMember,
	})
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	var req dto.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, member, err := h.groups.Join(c.Request.Context(), currentUser(c), req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.JoinResponse{
		Group:  dto.NewGroupResponse(group),
		Member: dto.NewMember(member),
	})
}

func (h *GroupHandler) RenameGroup(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.Rename(c.Request.Context(), currentUser(c), groupID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGroupResponse(group))
}

func (h *GroupHandler) SetVisibility(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.SetVisibility(c.Request.Context(), currentUser(c), groupID, *req.IsPublic)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGroupResponse(group))
}

// KickMember исключает участника; создателя исключить нельзя
func (h *GroupHandler) KickMember(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	memberID, ok := paramID(c, "memberId")
	if !ok {
		return
	}

	if err := h.groups.Kick(c.Request.Context(), currentUser(c), groupID, memberID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// LeaveGroup выход из группы; последняя запись удаляет группу
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.groups.Leave(c.Request.Context(), currentUser(c), groupID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left group", "group_deleted": deleted})
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.groups.Delete(c.Request.Context(), currentUser(c), groupID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// GetStream лента активности группы
func (h *GroupHandler) GetStream(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	stream, err := h.groups.Stream(c.Request.Context(), groupID, middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream": stream})
}

func (h *GroupHandler) PostAnnouncement(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.groups.Announce(c.Request.Context(), currentUser(c), groupID, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}
