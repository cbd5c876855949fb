// Package domain defines the audit ledger entities.
//
// The ledger is an append-only sequence of entries where each entry carries a
// hash computed over its own content and the hash of the previous entry. Any
// retroactive edit changes the recomputed hash of the edited entry, and the
// chain reports the first position where stored and recomputed hashes diverge.
package domain

import (
	"context"
	"time"
)

// Action tags the security event recorded by an entry.
type Action string

// Recorded actions.
const (
	ActionRegistrationRequest  Action = "REGISTRATION_REQUEST"
	ActionRegistrationVerify   Action = "REGISTRATION_VERIFY"
	ActionRegistrationComplete Action = "REGISTRATION_COMPLETE"
	ActionLoginRequest         Action = "LOGIN_REQUEST"
	ActionLoginVerify          Action = "LOGIN_VERIFY"
	ActionLoginComplete        Action = "LOGIN_COMPLETE"
	ActionPasswordResetRequest Action = "PASSWORD_RESET_REQUEST"
	ActionPasswordResetVerify  Action = "PASSWORD_RESET_VERIFY"
	ActionPasswordResetSuccess Action = "PASSWORD_RESET_SUCCESS"
	ActionDocumentUpload       Action = "DOCUMENT_UPLOAD"
	ActionDocumentStatusUpdate Action = "DOCUMENT_STATUS_UPDATE"
	ActionDocumentDownload     Action = "DOCUMENT_DOWNLOAD"
	ActionDocumentDelete       Action = "DOCUMENT_DELETE"
	ActionDeletedHistoryViewed Action = "DELETED_HISTORY_VIEWED"
	ActionAuditLogsViewed      Action = "AUDIT_LOGS_VIEWED"
	ActionAuditLogsVerified    Action = "AUDIT_LOGS_VERIFIED"
	ActionAuditLogsCleared     Action = "AUDIT_LOGS_CLEARED"
)

// Outcome is the result of the recorded action.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Actor identifies who performed an action.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// SystemActor stands in for unauthenticated callers and the system itself.
var SystemActor = Actor{UserID: "SYSTEM", Username: "SYSTEM", Role: "GUEST"}

// Entry is one link of the hash chain. Field order is part of the hashed format.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Action    Action         `json:"action"`
	UserID    string         `json:"userId"`
	Username  string         `json:"username"`
	Role      string         `json:"role"`
	IP        string         `json:"ip"`
	Metadata  map[string]any `json:"metadata"`
	Status    Outcome        `json:"status"`
	Hash      string         `json:"hash"`
}

// Time parses the entry timestamp. Unparseable timestamps yield the zero time.
func (e *Entry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NoTamperedIndex is reported when the chain verifies.
const NoTamperedIndex = -1

// IntegrityReport is the result of replaying the chain from genesis.
type IntegrityReport struct {
	Valid         bool
	TamperedIndex int
	Total         int
}

// Page is one page of a Query together with the integrity of the whole chain
// at the time the page was read.
type Page struct {
	Entries   []*Entry
	Total     int
	Integrity IntegrityReport
}

// Filter selects entries in Query. Zero values match everything.
type Filter struct {
	Action  Action
	Actor   string
	Outcome Outcome
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

// DeletionRecord summarizes a successful document deletion.
type DeletionRecord struct {
	Timestamp string
	Filename  string
	DocID     string
	DeletedBy string
	Role      string
	IP        string
}

// Origin is the network origin of the current request.
type Origin struct {
	IP        string
	UserAgent string
}

type originKey struct{}

// WithOrigin stores the request origin in ctx.
func WithOrigin(ctx context.Context, origin Origin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext returns the request origin stored in ctx, if any.
func OriginFromContext(ctx context.Context) Origin {
	origin, _ := ctx.Value(originKey{}).(Origin)
	return origin
}
