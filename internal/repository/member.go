package repository

import (
	"context"
	"errors"
	"fmt"

	"seatserve/internal/errs"
	"seatserve/internal/model"
	"seatserve/internal/store"
)

// mutateRetries bounds the optimistic-concurrency retry loop. Conflicts are
// rare (two staff editing the same member at once), so a short loop is
// enough; exhausting it surfaces as a conflict the caller can retry.
const mutateRetries = 3

type memberRepository struct {
	store store.Store
}

func NewMemberRepository(s store.Store) MemberRepository {
	return &memberRepository{store: s}
}

func (r *memberRepository) Create(ctx context.Context, m *model.Member) error {
	writes := []store.Write{{
		Kind:       store.WriteCreate,
		Collection: ColMembers,
		ID:         m.ID,
		Data:       encodeMember(m),
	}}
	writes = append(writes, claimCreates(m)...)

	err := r.store.Batch(ctx, writes)
	switch {
	case errors.Is(err, store.ErrExists):
		return errs.Newf(errs.KindConflict, "seat %d is already taken for the %s shift", deref(m.Seat), m.Shift)
	case err != nil:
		return errs.Wrap(errs.KindExternal, "create member", err)
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*model.Member, error) {
	doc, err := r.store.Get(ctx, ColMembers, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, errs.Newf(errs.KindNotFound, "member %s not found", id)
	case err != nil:
		return nil, errs.Wrap(errs.KindExternal, "get member", err)
	}
	m := decodeMember(doc)
	return &m, nil
}

func (r *memberRepository) List(ctx context.Context) ([]model.Member, error) {
	docs, err := r.store.Query(ctx, ColMembers, store.Query{OrderBy: "name"})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "list members", err)
	}
	return decodeMembers(docs), nil
}

func (r *memberRepository) ListActive(ctx context.Context) ([]model.Member, error) {
	docs, err := r.store.Query(ctx, ColMembers, store.Query{
		Filters: []store.Filter{{Field: "activityStatus", Op: store.OpEqual, Value: string(model.StatusActive)}},
		OrderBy: "name",
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "list active members", err)
	}
	return decodeMembers(docs), nil
}

func (r *memberRepository) Mutate(ctx context.Context, id string, fn func(*model.Member) error) (*model.Member, error) {
	for attempt := 0; attempt < mutateRetries; attempt++ {
		doc, err := r.store.Get(ctx, ColMembers, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, errs.Newf(errs.KindNotFound, "member %s not found", id)
		case err != nil:
			return nil, errs.Wrap(errs.KindExternal, "get member", err)
		}

		m := decodeMember(doc)
		before := claimSet(&m)

		if err := fn(&m); err != nil {
			return nil, err
		}
		after := claimSet(&m)

		writes := []store.Write{{
			Kind:         store.WriteUpdate,
			Collection:   ColMembers,
			ID:           id,
			Updates:      memberUpdates(&m),
			Precondition: store.LastUpdateTime(doc.UpdateTime),
		}}
		for claim := range before {
			if _, keep := after[claim]; !keep {
				writes = append(writes, store.Write{Kind: store.WriteDelete, Collection: ColSeatClaims, ID: claim})
			}
		}
		for claim, data := range after {
			if _, had := before[claim]; !had {
				writes = append(writes, store.Write{Kind: store.WriteCreate, Collection: ColSeatClaims, ID: claim, Data: data})
			}
		}

		err = r.store.Batch(ctx, writes)
		switch {
		case errors.Is(err, store.ErrPreconditionFailed):
			continue // concurrent write, re-read and retry
		case errors.Is(err, store.ErrExists):
			return nil, errs.Newf(errs.KindConflict, "seat %d is already taken for the %s shift", deref(m.Seat), m.Shift)
		case err != nil:
			return nil, errs.Wrap(errs.KindExternal, "update member", err)
		}
		return &m, nil
	}
	return nil, errs.Newf(errs.KindConflict, "member %s is being modified concurrently, retry", id)
}

func (r *memberRepository) FindByDeviceToken(ctx context.Context, token string) ([]model.Member, error) {
	docs, err := r.store.Query(ctx, ColMembers, store.Query{
		Filters: []store.Filter{{Field: "deviceTokens", Op: store.OpArrayContains, Value: token}},
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "find members by token", err)
	}
	return decodeMembers(docs), nil
}

func (r *memberRepository) AddDeviceToken(ctx context.Context, memberID, token string) error {
	return r.arrayOp(ctx, memberID, "deviceTokens", store.ArrayUnion(token))
}

func (r *memberRepository) RemoveDeviceToken(ctx context.Context, memberID, token string) error {
	return r.arrayOp(ctx, memberID, "deviceTokens", store.ArrayRemove(token))
}

func (r *memberRepository) AckBroadcast(ctx context.Context, memberID, alertID string) error {
	return r.arrayOp(ctx, memberID, "acknowledgedBroadcastIds", store.ArrayUnion(alertID))
}

func (r *memberRepository) arrayOp(ctx context.Context, memberID, field string, op any) error {
	err := r.store.Update(ctx, ColMembers, memberID, []store.Update{{Field: field, Value: op}}, nil)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errs.Newf(errs.KindNotFound, "member %s not found", memberID)
	case err != nil:
		return errs.Wrap(errs.KindExternal, "update "+field, err)
	}
	return nil
}

// claimID is the deterministic document id of a (seat, slot) claim, the
// uniqueness key that makes concurrent registrations for overlapping shifts
// collide inside the store instead of racing past each other.
func claimID(seat int, slot model.Shift) string {
	return fmt.Sprintf("seat-%03d-%s", seat, slot)
}

func claimSet(m *model.Member) map[string]map[string]any {
	claims := make(map[string]map[string]any)
	if !m.IsActive() || m.Seat == nil {
		return claims
	}
	for _, slot := range m.Shift.ClaimSlots() {
		claims[claimID(*m.Seat, slot)] = map[string]any{
			"seat":     *m.Seat,
			"slot":     string(slot),
			"memberId": m.ID,
		}
	}
	return claims
}

func claimCreates(m *model.Member) []store.Write {
	var writes []store.Write
	for id, data := range claimSet(m) {
		writes = append(writes, store.Write{Kind: store.WriteCreate, Collection: ColSeatClaims, ID: id, Data: data})
	}
	return writes
}

func encodeMember(m *model.Member) map[string]any {
	data := map[string]any{
		"name":                     m.Name,
		"phone":                    m.Phone,
		"email":                    m.Email,
		"address":                  m.Address,
		"shift":                    string(m.Shift),
		"activityStatus":           string(m.ActivityStatus),
		"feeStatus":                string(m.FeeStatus),
		"amountDue":                m.AmountDue,
		"joinedAt":                 m.JoinedAt,
		"paymentHistory":           encodePayments(m.PaymentHistory),
		"deviceTokens":             m.DeviceTokens,
		"acknowledgedBroadcastIds": m.AckedBroadcastIDs,
	}
	if m.Seat != nil {
		data["seat"] = *m.Seat
	} else {
		data["seat"] = nil
	}
	if m.NextDueDate != nil {
		data["nextDueDate"] = *m.NextDueDate
	} else {
		data["nextDueDate"] = nil
	}
	return data
}

// memberUpdates writes the full business field set. Array fields are
// rewritten wholesale; the version precondition protects them against
// concurrent array-op writers.
func memberUpdates(m *model.Member) []store.Update {
	var updates []store.Update
	for field, value := range encodeMember(m) {
		updates = append(updates, store.Update{Field: field, Value: value})
	}
	return updates
}

func encodePayments(records []model.PaymentRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"id":            rec.ID,
			"date":          rec.Date,
			"amount":        rec.Amount,
			"method":        rec.Method,
			"transactionId": rec.TransactionID,
		})
	}
	return out
}

func decodeMember(doc *store.Document) model.Member {
	d := doc.Data
	m := model.Member{
		ID:                doc.ID,
		Name:              asString(d["name"]),
		Phone:             asString(d["phone"]),
		Email:             asString(d["email"]),
		Address:           asString(d["address"]),
		Shift:             model.Shift(asString(d["shift"])),
		Seat:              asIntPtr(d["seat"]),
		ActivityStatus:    model.ActivityStatus(asString(d["activityStatus"])),
		FeeStatus:         model.FeeStatus(asString(d["feeStatus"])),
		AmountDue:         asInt(d["amountDue"]),
		NextDueDate:       asTimePtr(d["nextDueDate"]),
		DeviceTokens:      asStringSlice(d["deviceTokens"]),
		AckedBroadcastIDs: asStringSlice(d["acknowledgedBroadcastIds"]),
		UpdateTime:        doc.UpdateTime,
	}
	if t, ok := asTime(d["joinedAt"]); ok {
		m.JoinedAt = t
	}
	for _, raw := range asMapSlice(d["paymentHistory"]) {
		rec := model.PaymentRecord{
			ID:            asString(raw["id"]),
			Amount:        asString(raw["amount"]),
			Method:        asString(raw["method"]),
			TransactionID: asString(raw["transactionId"]),
		}
		if t, ok := asTime(raw["date"]); ok {
			rec.Date = t
		}
		m.PaymentHistory = append(m.PaymentHistory, rec)
	}
	return m
}

func decodeMembers(docs []store.Document) []model.Member {
	members := make([]model.Member, 0, len(docs))
	for i := range docs {
		members = append(members, decodeMember(&docs[i]))
	}
	return members
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
