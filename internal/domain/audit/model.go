package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionLogin         Action = "login"
	ActionLogout        Action = "logout"
	ActionCreateLicense Action = "license.create"
	ActionDeactivate    Action = "license.deactivate"
	ActionDelete        Action = "license.delete"
	ActionDeleteLocal   Action = "license.delete_local"
	ActionSendEmail     Action = "email.license"
	ActionSendTestEmail Action = "email.test"
	ActionClearActivity Action = "activity.clear"
)

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeDegraded Outcome = "degraded"
)

type Entry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"sessionId"`
	Action     Action    `db:"action" json:"action"`
	LicenseKey string    `db:"license_key" json:"licenseKey,omitempty"`
	Outcome    Outcome   `db:"outcome" json:"outcome"`
	Detail     string    `db:"detail" json:"detail,omitempty"`
	RemoteAddr string    `db:"remote_addr" json:"remoteAddr,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type Repository interface {
	Record(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
