package repository

import (
	"context"

	"seatserve/internal/errs"
	"seatserve/internal/store"
)

type tokenRepository struct {
	store   store.Store
	members MemberRepository
	admins  AdminRepository
}

func NewTokenRepository(s store.Store, members MemberRepository, admins AdminRepository) TokenRepository {
	return &tokenRepository{store: s, members: members, admins: admins}
}

// PruneEverywhere removes dead tokens from every record that lists them.
// The member and admin repositories do the reverse lookup; all removals are
// collected into one batched write so a record is never left half cleaned
// when several tokens die at once.
func (r *tokenRepository) PruneEverywhere(ctx context.Context, tokens []string) (int, error) {
	type target struct{ collection, id string }
	removals := make(map[target][]any)

	for _, token := range tokens {
		ms, err := r.members.FindByDeviceToken(ctx, token)
		if err != nil {
			return 0, errs.Wrap(errs.KindExternal, "reverse token lookup", err)
		}
		for _, m := range ms {
			key := target{collection: ColMembers, id: m.ID}
			removals[key] = append(removals[key], token)
		}

		as, err := r.admins.FindByDeviceToken(ctx, token)
		if err != nil {
			return 0, errs.Wrap(errs.KindExternal, "reverse token lookup", err)
		}
		for _, a := range as {
			key := target{collection: ColAdmins, id: a.ID}
			removals[key] = append(removals[key], token)
		}
	}

	if len(removals) == 0 {
		return 0, nil
	}

	writes := make([]store.Write, 0, len(removals))
	for key, values := range removals {
		writes = append(writes, store.Write{
			Kind:       store.WriteUpdate,
			Collection: key.collection,
			ID:         key.id,
			Updates:    []store.Update{{Field: "deviceTokens", Value: store.ArrayRemove(values...)}},
		})
	}
	if err := r.store.Batch(ctx, writes); err != nil {
		return 0, errs.Wrap(errs.KindExternal, "prune tokens", err)
	}
	return len(removals), nil
}
