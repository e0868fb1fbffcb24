package repository

import (
	"context"

	"seatserve/internal/errs"
	"seatserve/internal/model"
	"seatserve/internal/store"
)

type adminRepository struct {
	store store.Store
}

func NewAdminRepository(s store.Store) AdminRepository {
	return &adminRepository{store: s}
}

func (r *adminRepository) List(ctx context.Context) ([]model.Admin, error) {
	docs, err := r.store.Query(ctx, ColAdmins, store.Query{})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "list admins", err)
	}
	return decodeAdmins(docs), nil
}

func (r *adminRepository) FindByDeviceToken(ctx context.Context, token string) ([]model.Admin, error) {
	docs, err := r.store.Query(ctx, ColAdmins, store.Query{
		Filters: []store.Filter{{Field: "deviceTokens", Op: store.OpArrayContains, Value: token}},
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindExternal, "find admins by token", err)
	}
	return decodeAdmins(docs), nil
}

func decodeAdmins(docs []store.Document) []model.Admin {
	admins := make([]model.Admin, 0, len(docs))
	for i := range docs {
		d := docs[i].Data
		admins = append(admins, model.Admin{
			ID:           docs[i].ID,
			Name:         asString(d["name"]),
			DeviceTokens: asStringSlice(d["deviceTokens"]),
			UpdateTime:   docs[i].UpdateTime,
		})
	}
	return admins
}
