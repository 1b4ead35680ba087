package auth

import (
	"portfolio_backend/internal/models"
	"portfolio_backend/pkg/apperrors"
)

// Action - операция над сущностью
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionMine     Action = "mine"
	ActionByUser   Action = "by_user"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

func (a Action) IsWrite() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// Actor - аутентифицированный (или анонимный, ID == "") субъект запроса
type Actor struct {
	ID          string
	IsStaff     bool
	IsSuperuser bool
}

func (a Actor) IsAuthenticated() bool {
	return a.ID != ""
}

// IsPrivileged - staff или superuser
func (a Actor) IsPrivileged() bool {
	return a.IsStaff || a.IsSuperuser
}

// Target - над чем выполняется действие. OwnerID - владелец записи
// (для by_user - пользователь из пути).
type Target struct {
	Kind    models.EntityKind
	OwnerID string
	Action  Action
}

// Policy - правила доступа по типу сущности и действию. Без состояния.
type Policy struct{}

func NewPolicy() Policy {
	return Policy{}
}

func isShared(kind models.EntityKind) bool {
	return kind == models.KindSocialType || kind == models.KindCategory
}

func (a Actor) owns(t Target) bool {
	return a.IsAuthenticated() && t.OwnerID != "" && a.ID == t.OwnerID
}

// CanRead - list, retrieve, mine, by_user
func (p Policy) CanRead(actor Actor, t Target) bool {
	if isShared(t.Kind) {
		return actor.IsAuthenticated()
	}

	switch t.Action {
	case ActionMine, ActionList:
		return actor.IsAuthenticated()
	case ActionRetrieve, ActionByUser:
		if t.Kind == models.KindContact {
			return actor.owns(t) || actor.IsPrivileged()
		}
		return true
	}
	return false
}

// CanWrite - create, update, delete
func (p Policy) CanWrite(actor Actor, t Target) bool {
	if isShared(t.Kind) {
		return actor.IsPrivileged()
	}

	switch t.Action {
	case ActionCreate:
		// Посетители могут оставлять сообщения без входа
		if t.Kind == models.KindContact {
			return true
		}
		return actor.IsAuthenticated()
	case ActionUpdate, ActionDelete:
		return actor.owns(t) || actor.IsPrivileged()
	}
	return false
}

// Authorize возвращает nil, 401 (нужен вход) или 403
func (p Policy) Authorize(actor Actor, t Target) error {
	var allowed bool
	if t.Action.IsWrite() {
		allowed = p.CanWrite(actor, t)
	} else {
		allowed = p.CanRead(actor, t)
	}
	if allowed {
		return nil
	}
	if !actor.IsAuthenticated() {
		return apperrors.NewUnauthorizedError("Authentication credentials were not provided")
	}
	return apperrors.ErrAuthorizationDenied
}
