package model

import "time"

// Alert event types emitted by lifecycle and attendance operations.
const (
	EventMemberRegistered = "member_registered"
	EventPaymentReceived  = "payment_received"
	EventFeeOverdue       = "fee_overdue"
	EventAutoDeactivated  = "auto_deactivated"
	EventMarkedLeft       = "marked_left"
	EventReactivated      = "reactivated"
	EventOutsideShift     = "outside_shift_checkin"
)

// AlertEvent is a notification request emitted as a fire-and-forget side
// effect of a business operation. An empty MemberID means broadcast.
// Delivery is best-effort; a failed dispatch never rolls back the operation
// that emitted the event.
type AlertEvent struct {
	Type      string            `json:"type"`
	MemberID  string            `json:"member_id,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewMemberRegisteredEvent welcomes a freshly registered member.
func NewMemberRegisteredEvent(m *Member) AlertEvent {
	return AlertEvent{
		Type:      EventMemberRegistered,
		MemberID:  m.ID,
		Title:     "Welcome to the library",
		Body:      "Your " + string(m.Shift) + " shift membership is active.",
		Timestamp: time.Now().Unix(),
	}
}

// NewPaymentReceivedEvent confirms a recorded payment.
func NewPaymentReceivedEvent(m *Member, rec PaymentRecord) AlertEvent {
	return AlertEvent{
		Type:      EventPaymentReceived,
		MemberID:  m.ID,
		Title:     "Payment received",
		Body:      "We received " + rec.Amount + " via " + rec.Method + ". Thank you!",
		Data:      map[string]string{"transaction_id": rec.TransactionID},
		Timestamp: time.Now().Unix(),
	}
}

// NewFeeOverdueEvent warns a member whose due date has passed.
func NewFeeOverdueEvent(m *Member) AlertEvent {
	return AlertEvent{
		Type:      EventFeeOverdue,
		MemberID:  m.ID,
		Title:     "Fee overdue",
		Body:      "Your membership fee is overdue. Please pay to keep your seat.",
		Timestamp: time.Now().Unix(),
	}
}

// NewAutoDeactivatedEvent informs a member deactivated for non-payment.
func NewAutoDeactivatedEvent(m *Member) AlertEvent {
	return AlertEvent{
		Type:      EventAutoDeactivated,
		MemberID:  m.ID,
		Title:     "Membership deactivated",
		Body:      "Your membership was deactivated for non-payment. Contact the desk to rejoin.",
		Timestamp: time.Now().Unix(),
	}
}

// NewMarkedLeftEvent confirms a manual deactivation.
func NewMarkedLeftEvent(m *Member) AlertEvent {
	return AlertEvent{
		Type:      EventMarkedLeft,
		MemberID:  m.ID,
		Title:     "Membership closed",
		Body:      "Your membership has been closed. You are welcome back any time.",
		Timestamp: time.Now().Unix(),
	}
}

// NewReactivatedEvent welcomes back a reactivated member.
func NewReactivatedEvent(m *Member) AlertEvent {
	return AlertEvent{
		Type:      EventReactivated,
		MemberID:  m.ID,
		Title:     "Welcome back",
		Body:      "Your membership is active again on the " + string(m.Shift) + " shift.",
		Timestamp: time.Now().Unix(),
	}
}

// NewOutsideShiftEvent warns about a check-in outside the member's window.
// The check-in itself still succeeds.
func NewOutsideShiftEvent(m *Member) AlertEvent {
	return AlertEvent{
		Type:      EventOutsideShift,
		MemberID:  m.ID,
		Title:     "Outside shift hours",
		Body:      "You checked in outside your " + string(m.Shift) + " shift window.",
		Timestamp: time.Now().Unix(),
	}
}
