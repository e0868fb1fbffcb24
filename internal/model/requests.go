package model

// Request bodies consumed by the HTTP surface. Validation tags are enforced
// by the handler before any service call.

// RegisterMemberRequest creates a new active membership.
type RegisterMemberRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	Shift   string `json:"shift" validate:"required,oneof=morning evening fullday"`
	Seat    int    `json:"seat" validate:"required,min=1"`
}

// EditMemberRequest updates contact details and optionally moves the member
// to a new shift or seat. Nil fields are left untouched.
type EditMemberRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Phone   *string `json:"phone" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address"`
	Shift   *string `json:"shift" validate:"omitempty,oneof=morning evening fullday"`
	Seat    *int    `json:"seat" validate:"omitempty,min=1"`
}

// ReactivateMemberRequest brings a left member back on a new seat.
type ReactivateMemberRequest struct {
	Shift string `json:"shift" validate:"required,oneof=morning evening fullday"`
	Seat  int    `json:"seat" validate:"required,min=1"`
}

// RecordPaymentRequest appends a payment to the member's ledger.
type RecordPaymentRequest struct {
	Amount        int    `json:"amount" validate:"required,min=1"`
	Method        string `json:"method" validate:"required,oneof=cash upi card online"`
	MonthsCovered int    `json:"months_covered" validate:"required,min=1"`
}

// CheckInRequest opens an attendance session.
type CheckInRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

// DispatchAlertRequest sends an announcement. An empty member_id broadcasts
// to every active member and admin.
type DispatchAlertRequest struct {
	MemberID string `json:"member_id"`
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
}

// RegisterTokenRequest attaches a device token to a member.
type RegisterTokenRequest struct {
	Token string `json:"token" validate:"required"`
}
