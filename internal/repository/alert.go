package repository

import (
	"context"
	"errors"
	"sort"

	"seatserve/internal/errs"
	"seatserve/internal/model"
	"seatserve/internal/store"
)

type alertRepository struct {
	store store.Store
}

func NewAlertRepository(s store.Store) AlertRepository {
	return &alertRepository{store: s}
}

func (r *alertRepository) Create(ctx context.Context, a *model.Alert) error {
	err := r.store.Create(ctx, ColAlerts, a.ID, map[string]any{
		"memberId":  a.MemberID,
		"type":      a.Type,
		"title":     a.Title,
		"body":      a.Body,
		"isRead":    a.IsRead,
		"createdAt": a.CreatedAt,
	})
	if err != nil {
		return errs.Wrap(errs.KindExternal, "create alert", err)
	}
	return nil
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	doc, err := r.store.Get(ctx, ColAlerts, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, errs.Newf(errs.KindNotFound, "alert %s not found", id)
	case err != nil:
		return nil, errs.Wrap(errs.KindExternal, "get alert", err)
	}
	a := decodeAlert(doc)
	return &a, nil
}

// ListForMember merges the member's targeted alerts with every broadcast,
// newest first. Broadcasts are stored with an empty memberId, so both sides
// are plain equality queries.
func (r *alertRepository) ListForMember(ctx context.Context, memberID string, limit int) ([]model.Alert, error) {
	targeted, err := r.queryByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	broadcasts, err := r.queryByMember(ctx, "")
	if err != nil {
		return nil, err
	}

	alerts := append(targeted, broadcasts...)
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (r *alertRepository) queryByMember(ctx context.Context, memberID string) ([]model.Alert, error) {
	docs, err := r.store.Query(ctx, ColAlerts, store.Query{
		Filters: []store.Filter{{Field: "memberId", Op: store.OpEqual, Value: memberID}},
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "list alerts", err)
	}
	alerts := make([]model.Alert, 0, len(docs))
	for i := range docs {
		alerts = append(alerts, decodeAlert(&docs[i]))
	}
	return alerts, nil
}

func (r *alertRepository) MarkRead(ctx context.Context, alertID string) error {
	err := r.store.Update(ctx, ColAlerts, alertID, []store.Update{{Field: "isRead", Value: true}}, nil)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errs.Newf(errs.KindNotFound, "alert %s not found", alertID)
	case err != nil:
		return errs.Wrap(errs.KindExternal, "mark alert read", err)
	}
	return nil
}

func decodeAlert(doc *store.Document) model.Alert {
	d := doc.Data
	a := model.Alert{
		ID:       doc.ID,
		MemberID: asString(d["memberId"]),
		Type:     asString(d["type"]),
		Title:    asString(d["title"]),
		Body:     asString(d["body"]),
	}
	if b, ok := d["isRead"].(bool); ok {
		a.IsRead = b
	}
	if t, ok := asTime(d["createdAt"]); ok {
		a.CreatedAt = t
	}
	return a
}
