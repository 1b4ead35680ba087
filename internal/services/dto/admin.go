package dto

// UserFilter - фильтры списка пользователей в админке
type UserFilter struct {
	Search     string `form:"search"`
	IsStaff    *bool  `form:"is_staff"`
	IsActive   *bool  `form:"is_active"`
	IsVerified *bool  `form:"is_verified"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// UserAction - массовое действие над пользователями
type UserAction string

const (
	UserActionActivate   UserAction = "activate"
	UserActionDeactivate UserAction = "deactivate"
	UserActionVerify     UserAction = "verify"
	UserActionUnverify   UserAction = "unverify"
)

type UserActionRequest struct {
	Action  UserAction `json:"action" validate:"required,oneof=activate deactivate verify unverify"`
	UserIDs []string   `json:"user_ids" validate:"required,min=1,dive,uuid"`
}

type UserActionResult struct {
	Action   UserAction `json:"action"`
	Affected int64      `json:"affected"`
}

type PaginatedResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type ResyncResult struct {
	Updated int `json:"updated"`
}
