package audit

import (
	"time"

	"github.com/adminzone/backend/core"
)

// Actions
const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionLoginSuccess = "LOGIN_SUCCESS"
	ActionLoginFailed  = "LOGIN_FAILED"
	ActionLogout       = "LOGOUT"
	ActionAccessDenied = "ACCESS_DENIED"
)

// EntityAuth tags authentication events.
const EntityAuth = "Auth"

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Entry is a write-once audit log row.
type Entry struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	IP          string    `db:"ip" json:"ip"`
	Action      string    `db:"action" json:"action"`
	Entity      *string   `db:"entity" json:"entity"`
	EntityID    *int64    `db:"entity_id" json:"entityId"`
	PayloadJSON *string   `db:"payload_json" json:"payloadJson"`
	Timestamp   time.Time `db:"logged_at" json:"timestamp"` // UTC
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	Username string `query:"username"`
	Entity   string `query:"entity"`
	EntityID *int64 `query:"entityId"`
}

func (f *QueryFilter) Clean() {
	f.Username = core.CleanString(f.Username, true /* lower */)
	f.Entity = core.CleanString(f.Entity)
}
