package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

// GroupSummary группа текущего пользователя с его ролью
type GroupSummary struct {
	models.Group
	IsAdmin     bool
	JoinedAt    time.Time
	MemberCount int64
}

// PublicGroup публичная группа с именем администратора для поиска
type PublicGroup struct {
	models.Group
	AdminName string
}

func (d *Database) CreateGroup(ctx context.Context, group *models.Group) error {
	return translate(d.conn(ctx).Create(group).Error, "join code")
}

func (d *Database) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := d.conn(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, translate(err, "group")
	}
	return &group, nil
}

func (d *Database) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	var group models.Group
	if err := d.conn(ctx).Where("join_code = ?", code).First(&group).Error; err != nil {
		return nil, translate(err, "group")
	}
	return &group, nil
}

func (d *Database) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := d.conn(ctx).Model(&models.Group{}).Where("join_code = ?", code).Count(&count).Error
	if err != nil {
		return false, translate(err, "group")
	}
	return count > 0, nil
}

// GroupsForUser группы пользователя, последние присоединённые сначала
func (d *Database) GroupsForUser(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error) {
	var memberships []models.Membership
	if err := d.conn(ctx).Where("user_id = ?", userID).Order("joined_at DESC").Find(&memberships).Error; err != nil {
		return nil, translate(err, "membership")
	}
	if len(memberships) == 0 {
		return []GroupSummary{}, nil
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}

	var groups []models.Group
	if err := d.conn(ctx).Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, translate(err, "group")
	}
	byID := make(map[uuid.UUID]models.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	type countRow struct {
		GroupID uuid.UUID
		Total   int64
	}
	var counts []countRow
	if err := d.conn(ctx).Model(&models.Membership{}).
		Select("group_id, COUNT(*) AS total").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&counts).Error; err != nil {
		return nil, translate(err, "membership")
	}
	totals := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		totals[c.GroupID] = c.Total
	}

	out := make([]GroupSummary, 0, len(memberships))
	for _, m := range memberships {
		g, ok := byID[m.GroupID]
		if !ok {
			continue
		}
		out = append(out, GroupSummary{Group: g, IsAdmin: m.IsAdmin, JoinedAt: m.JoinedAt, MemberCount: totals[g.ID]})
	}
	return out, nil
}

// PublicGroups все публичные группы; AdminName имя создателя из его членства
func (d *Database) PublicGroups(ctx context.Context) ([]PublicGroup, error) {
	var groups []models.Group
	if err := d.conn(ctx).Where("is_public = ?", true).Find(&groups).Error; err != nil {
		return nil, translate(err, "group")
	}
	if len(groups) == 0 {
		return []PublicGroup{}, nil
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	var admins []models.Membership
	if err := d.conn(ctx).Where("group_id IN ? AND is_admin = ?", ids, true).Find(&admins).Error; err != nil {
		return nil, translate(err, "membership")
	}
	names := map[uuid.UUID]string{}
	for _, a := range admins {
		if _, ok := names[a.GroupID]; !ok {
			names[a.GroupID] = a.DisplayName
		}
	}

	out := make([]PublicGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, PublicGroup{Group: g, AdminName: names[g.ID]})
	}
	return out, nil
}

func (d *Database) RenameGroup(ctx context.Context, id uuid.UUID, name string) error {
	return d.updateGroup(ctx, id, "name", name)
}

func (d *Database) SetGroupVisibility(ctx context.Context, id uuid.UUID, public bool) error {
	return d.updateGroup(ctx, id, "is_public", public)
}

func (d *Database) updateGroup(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := d.conn(ctx).Model(&models.Group{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error, "group")
	}
	if res.RowsAffected == 0 {
		return notFound("group")
	}
	return nil
}

// DeleteGroup удаляет группу со всеми зависимыми строками и возвращает пути файлов для хранилища
func (d *Database) DeleteGroup(ctx context.Context, id uuid.UUID) ([]string, error) {
	var paths []string
	err := d.Transaction(ctx, func(tx *Database) error {
		var err error
		paths, err = tx.deleteGroupRows(id)
		return err
	})
	return paths, err
}

func (d *Database) deleteGroupRows(id uuid.UUID) ([]string, error) {
	var paths []string
	if err := d.db.Model(&models.FileRecord{}).Where("group_id = ?", id).Pluck("path", &paths).Error; err != nil {
		return nil, translate(err, "file")
	}

	for _, model := range []any{&models.FileRecord{}, &models.Activity{}, &models.Task{}, &models.Membership{}} {
		if err := d.db.Where("group_id = ?", id).Delete(model).Error; err != nil {
			return nil, translate(err, "group")
		}
	}

	res := d.db.Delete(&models.Group{}, "id = ?", id)
	if res.Error != nil {
		return nil, translate(res.Error, "group")
	}
	if res.RowsAffected == 0 {
		return nil, notFound("group")
	}
	return paths, nil
}
