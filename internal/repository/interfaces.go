package repository

import (
	"context"
	"time"

	"seatserve/internal/model"
)

// Collection names in the document store.
const (
	ColMembers      = "members"
	ColAttendance   = "attendance_sessions"
	ColOpenCheckins = "open_checkins"
	ColAlerts       = "alerts"
	ColAdmins       = "admins"
	ColSeatClaims   = "seat_claims"
)

type MemberRepository interface {
	// Create persists a new member together with the seat claims for their
	// shift, atomically. A claimed seat fails with a conflict.
	Create(ctx context.Context, m *model.Member) error
	GetByID(ctx context.Context, id string) (*model.Member, error)
	List(ctx context.Context) ([]model.Member, error)
	ListActive(ctx context.Context) ([]model.Member, error)
	// Mutate runs a read-modify-write cycle under optimistic concurrency:
	// fetch, apply fn in memory, write back guarded by the record's version,
	// retrying on conflict. Seat claim documents are kept in sync with any
	// seat or shift change fn makes, in the same atomic batch.
	Mutate(ctx context.Context, id string, fn func(*model.Member) error) (*model.Member, error)
	// FindByDeviceToken reverse-looks-up members listing the token.
	FindByDeviceToken(ctx context.Context, token string) ([]model.Member, error)
	AddDeviceToken(ctx context.Context, memberID, token string) error
	RemoveDeviceToken(ctx context.Context, memberID, token string) error
	// AckBroadcast appends the alert id to the member's acknowledged set.
	AckBroadcast(ctx context.Context, memberID, alertID string) error
}

type AttendanceRepository interface {
	// Create persists a new session and claims the member's open-session
	// marker atomically; a second open session fails with a state error.
	Create(ctx context.Context, s *model.AttendanceSession) error
	GetByID(ctx context.Context, id string) (*model.AttendanceSession, error)
	// Close writes the check-out time and releases the open-session marker.
	Close(ctx context.Context, s *model.AttendanceSession, out time.Time) error
	// OpenSession returns the member's open session, or nil when none.
	OpenSession(ctx context.Context, memberID string) (*model.AttendanceSession, error)
	// ListByMember returns the member's sessions between from and to
	// (inclusive), ordered by check-in time.
	ListByMember(ctx context.Context, memberID string, from, to time.Time) ([]model.AttendanceSession, error)
}

type AlertRepository interface {
	Create(ctx context.Context, a *model.Alert) error
	GetByID(ctx context.Context, id string) (*model.Alert, error)
	// ListForMember returns the member's targeted alerts merged with all
	// broadcasts, newest first.
	ListForMember(ctx context.Context, memberID string, limit int) ([]model.Alert, error)
	MarkRead(ctx context.Context, alertID string) error
}

type AdminRepository interface {
	List(ctx context.Context) ([]model.Admin, error)
	FindByDeviceToken(ctx context.Context, token string) ([]model.Admin, error)
}

type TokenRepository interface {
	// PruneEverywhere removes the tokens from every member and admin record
	// listing them, in one atomic batch per call. Returns the number of
	// records touched. The token alone does not identify its owner, so this
	// is backed by the repositories' FindByDeviceToken reverse lookups.
	PruneEverywhere(ctx context.Context, tokens []string) (int, error)
}
