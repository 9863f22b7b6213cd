// Package access решает, может ли пользователь читать или менять группу и репозиторий.
package access

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/metrics"
)

// GroupRef минимальный срез группы, нужный для решения о доступе
type GroupRef struct {
	ID        uuid.UUID
	CreatorID uuid.UUID
	IsPublic  bool
}

// RepositoryRef срез публичного репозитория
type RepositoryRef struct {
	ID        uuid.UUID
	CreatorID uuid.UUID
}

// MembershipChecker отвечает на вопросы о членстве; реализуется слоем БД
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

// CollaboratorChecker проверяет соавторов репозитория
type CollaboratorChecker interface {
	IsCollaborator(ctx context.Context, repositoryID, userID uuid.UUID) (bool, error)
}

type Evaluator struct {
	members       MembershipChecker
	collaborators CollaboratorChecker
}

func NewEvaluator(members MembershipChecker, collaborators CollaboratorChecker) *Evaluator {
	return &Evaluator{members: members, collaborators: collaborators}
}

func record(rule string, allowed bool) {
	metrics.AccessDecisions.WithLabelValues(rule, strconv.FormatBool(allowed)).Inc()
}

// CanRead правила по порядку, первое совпадение побеждает:
// публичная группа, анонимный пользователь, создатель, наличие членства.
// Ошибка поиска членства не превращается в false.
func (e *Evaluator) CanRead(ctx context.Context, group GroupRef, userID *uuid.UUID) (bool, error) {
	if group.IsPublic {
		record("public", true)
		return true, nil
	}
	if userID == nil {
		record("anonymous", false)
		return false, nil
	}
	if *userID == group.CreatorID {
		record("creator", true)
		return true, nil
	}

	ok, err := e.members.IsMember(ctx, group.ID, *userID)
	if err != nil {
		return false, apperr.Backend(err)
	}
	record("membership", ok)
	return ok, nil
}

// RequireRead как CanRead, но отказ возвращается ошибкой
func (e *Evaluator) RequireRead(ctx context.Context, group GroupRef, userID *uuid.UUID) error {
	ok, err := e.CanRead(ctx, group, userID)
	if err != nil {
		return err
	}
	if !ok {
		if userID == nil {
			return apperr.ErrUnauthenticated
		}
		return apperr.PermissionDenied("you are not a member of this group")
	}
	return nil
}

// CanManage создатель или администратор группы
func (e *Evaluator) CanManage(ctx context.Context, group GroupRef, userID uuid.UUID) (bool, error) {
	if userID == group.CreatorID {
		return true, nil
	}
	ok, err := e.members.IsAdmin(ctx, group.ID, userID)
	if err != nil {
		return false, apperr.Backend(err)
	}
	return ok, nil
}

func (e *Evaluator) RequireManage(ctx context.Context, group GroupRef, userID uuid.UUID) error {
	ok, err := e.CanManage(ctx, group, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("only group admins can do this")
	}
	return nil
}

// CanAnnounce объявления публикует только создатель
func CanAnnounce(group GroupRef, userID uuid.UUID) bool {
	return userID == group.CreatorID
}

// CanWriteRepository создатель или соавтор репозитория
func (e *Evaluator) CanWriteRepository(ctx context.Context, repo RepositoryRef, userID uuid.UUID) (bool, error) {
	if userID == repo.CreatorID {
		return true, nil
	}
	if e.collaborators == nil {
		return false, nil
	}
	ok, err := e.collaborators.IsCollaborator(ctx, repo.ID, userID)
	if err != nil {
		return false, apperr.Backend(err)
	}
	return ok, nil
}

func (e *Evaluator) RequireWriteRepository(ctx context.Context, repo RepositoryRef, userID uuid.UUID) error {
	ok, err := e.CanWriteRepository(ctx, repo, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("only the owner or collaborators can change this repository")
	}
	return nil
}
