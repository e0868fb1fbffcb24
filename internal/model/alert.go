package model

import "time"

// Alert kinds. Lifecycle alerts are produced by membership transitions;
// attendance alerts by the tracker; announcements by admins.
const (
	AlertTypeLifecycle    = "lifecycle"
	AlertTypeAttendance   = "attendance"
	AlertTypeAnnouncement = "announcement"
)

// Alert is a persisted notification. A targeted alert carries the member it
// addresses and a single mutable read flag. A broadcast alert has no member;
// its read state is a set-membership test against each member's acknowledged
// broadcast ids, never stored on the shared record.
type Alert struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id,omitempty"` // empty for broadcasts
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"-"` // targeted alerts only; clients see the resolved view
	CreatedAt time.Time `json:"created_at"`
}

// Broadcast reports whether the alert is addressed to everyone.
func (a *Alert) Broadcast() bool { return a.MemberID == "" }

// AlertView is an alert as seen by one member, with read state resolved for
// both targeted and broadcast alerts.
type AlertView struct {
	Alert
	Read bool `json:"read"`
}

// ViewFor resolves the alert's read state for the given member.
func (a Alert) ViewFor(m *Member) AlertView {
	read := a.IsRead
	if a.Broadcast() {
		read = m.HasAckedBroadcast(a.ID)
	}
	return AlertView{Alert: a, Read: read}
}
