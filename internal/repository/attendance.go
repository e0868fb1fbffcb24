package repository

import (
	"context"
	"errors"
	"time"

	"seatserve/internal/errs"
	"seatserve/internal/model"
	"seatserve/internal/store"
)

type attendanceRepository struct {
	store store.Store
}

func NewAttendanceRepository(s store.Store) AttendanceRepository {
	return &attendanceRepository{store: s}
}

// Create persists the session and conditionally creates the member's
// open-session marker in the same atomic batch. The marker's document id is
// the member id, so two concurrent check-ins collide in the store and the
// loser sees the at-most-one-open-session invariant as a state error.
func (r *attendanceRepository) Create(ctx context.Context, s *model.AttendanceSession) error {
	writes := []store.Write{
		{
			Kind:       store.WriteCreate,
			Collection: ColAttendance,
			ID:         s.ID,
			Data:       encodeSession(s),
		},
		{
			Kind:       store.WriteCreate,
			Collection: ColOpenCheckins,
			ID:         s.MemberID,
			Data:       map[string]any{"sessionId": s.ID, "checkInTime": s.CheckInTime},
		},
	}

	err := r.store.Batch(ctx, writes)
	switch {
	case errors.Is(err, store.ErrExists):
		return errs.New(errs.KindState, "member already has an open session")
	case err != nil:
		return errs.Wrap(errs.KindExternal, "create session", err)
	}
	return nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (*model.AttendanceSession, error) {
	doc, err := r.store.Get(ctx, ColAttendance, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, errs.Newf(errs.KindNotFound, "session %s not found", id)
	case err != nil:
		return nil, errs.Wrap(errs.KindExternal, "get session", err)
	}
	s := decodeSession(doc)
	return &s, nil
}

// Close stamps the check-out time and releases the marker. The version
// precondition turns a concurrent double check-out into a state error
// instead of silently overwriting the first one.
func (r *attendanceRepository) Close(ctx context.Context, s *model.AttendanceSession, out time.Time) error {
	writes := []store.Write{
		{
			Kind:         store.WriteUpdate,
			Collection:   ColAttendance,
			ID:           s.ID,
			Updates:      []store.Update{{Field: "checkOutTime", Value: out}},
			Precondition: store.LastUpdateTime(s.UpdateTime),
		},
		{Kind: store.WriteDelete, Collection: ColOpenCheckins, ID: s.MemberID},
	}

	err := r.store.Batch(ctx, writes)
	switch {
	case errors.Is(err, store.ErrPreconditionFailed):
		return errs.Newf(errs.KindState, "session %s is already closed", s.ID)
	case errors.Is(err, store.ErrNotFound):
		return errs.Newf(errs.KindNotFound, "session %s not found", s.ID)
	case err != nil:
		return errs.Wrap(errs.KindExternal, "close session", err)
	}
	return nil
}

func (r *attendanceRepository) OpenSession(ctx context.Context, memberID string) (*model.AttendanceSession, error) {
	marker, err := r.store.Get(ctx, ColOpenCheckins, memberID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, errs.Wrap(errs.KindExternal, "get open checkin", err)
	}
	return r.GetByID(ctx, asString(marker.Data["sessionId"]))
}

// ListByMember queries by member and narrows the date range in memory; the
// store contract only guarantees equality filters.
func (r *attendanceRepository) ListByMember(ctx context.Context, memberID string, from, to time.Time) ([]model.AttendanceSession, error) {
	docs, err := r.store.Query(ctx, ColAttendance, store.Query{
		Filters: []store.Filter{{Field: "memberId", Op: store.OpEqual, Value: memberID}},
		OrderBy: "checkInTime",
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "list sessions", err)
	}

	var sessions []model.AttendanceSession
	for i := range docs {
		s := decodeSession(&docs[i])
		if !from.IsZero() && s.CheckInTime.Before(from) {
			continue
		}
		if !to.IsZero() && s.CheckInTime.After(to) {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func encodeSession(s *model.AttendanceSession) map[string]any {
	data := map[string]any{
		"memberId":    s.MemberID,
		"date":        s.Date,
		"checkInTime": s.CheckInTime,
	}
	if s.CheckOutTime != nil {
		data["checkOutTime"] = *s.CheckOutTime
	}
	return data
}

func decodeSession(doc *store.Document) model.AttendanceSession {
	d := doc.Data
	s := model.AttendanceSession{
		ID:           doc.ID,
		MemberID:     asString(d["memberId"]),
		CheckOutTime: asTimePtr(d["checkOutTime"]),
		UpdateTime:   doc.UpdateTime,
	}
	if t, ok := asTime(d["date"]); ok {
		s.Date = t
	}
	if t, ok := asTime(d["checkInTime"]); ok {
		s.CheckInTime = t
	}
	return s
}
