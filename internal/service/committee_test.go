package service

import (
	"context"
	"errors"
	"testing"

	"decom/internal/model"
	"decom/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitteeCRUD(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommitteeService(db)
	ctx := context.Background()
	changes := 0
	svc.OnChange(func(context.Context) { changes++ })

	c, err := svc.Create(ctx, model.CommitteePayload{Name: " Alabanza ", Color: "#AABBCC"})
	require.NoError(t, err)
	assert.Equal(t, "Alabanza", c.Name)
	assert.Equal(t, "#aabbcc", c.Color)

	_, err = svc.Create(ctx, model.CommitteePayload{Name: "alabanza", Color: "#000000"})
	assert.ErrorIs(t, err, ErrDuplicate)

	other, err := svc.Create(ctx, model.CommitteePayload{Name: "Niños", Color: "#112233"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alabanza", list[0].Name)

	updated, err := svc.Update(ctx, c.ID, model.CommitteePayload{Name: "Alabanza y Adoración", Description: "Domingos", Color: "#123456"})
	require.NoError(t, err)
	assert.Equal(t, "Domingos", updated.Description)

	_, err = svc.Update(ctx, c.ID, model.CommitteePayload{Name: "NIÑOS", Color: "#123456"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = svc.Create(ctx, model.CommitteePayload{Name: "ninos", Color: "#123456"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// Renaming to itself with different casing is not a conflict.
	same, err := svc.Update(ctx, other.ID, model.CommitteePayload{Name: "NIÑOS", Color: "#112233"})
	require.NoError(t, err)
	assert.Equal(t, "NIÑOS", same.Name)

	_, err = svc.Update(ctx, 999, model.CommitteePayload{Name: "Nada", Color: "#123456"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, other.ID))
	_, err = svc.Get(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID), ErrNotFound)

	assert.Equal(t, 5, changes)
}

func TestCommitteeDeleteRefusedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommitteeService(db)
	ctx := context.Background()
	c := seedCommittee(t, db, "Misiones")
	u := seedUser(t, db, "admin@decom.test", "admin", "secreto123")

	requests := NewRequestService(db, schedule.FixedClock(today), NewAuthService(db))
	r, err := requests.Create(ctx, requestPayload(c.ID, "2026-05-01"), nil)
	require.NoError(t, err)
	require.NoError(t, requests.Archive(ctx, r.ID, "Cancelado por lluvia", "secreto123", Actor{ID: u.ID, Name: u.FullName}))

	// Archived requests still hold the reference.
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrCommitteeInUse)

	var n int64
	require.NoError(t, db.Model(&model.Committee{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, db.Model(&model.Request{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUniqueIndexViolationIsDuplicate(t *testing.T) {
	db := newTestDB(t)
	seedCommittee(t, db, "Música")
	u := seedUser(t, db, "ana@decom.test", "viewer", "secreto123")

	// Straight inserts skip the service checks and hit the unique indexes.
	err := db.Create(&model.Committee{Name: " MUSICA ", Color: "#000000"}).Error
	require.Error(t, err)
	assert.ErrorIs(t, dbErr("insert committee", err), ErrDuplicate)

	err = db.Create(&model.User{Email: u.Email, FullName: "Otra", PasswordHash: "x", Role: "viewer", RoleLevel: 10, Active: true}).Error
	require.Error(t, err)
	assert.ErrorIs(t, dbErr("insert user", err), ErrDuplicate)

	assert.NotErrorIs(t, dbErr("insert user", errors.New("disk full")), ErrDuplicate)
}

func TestCommitteeKey(t *testing.T) {
	for _, name := range []string{"Niños", "NIÑOS", " ninos ", "NIN\u0303OS"} {
		assert.Equal(t, "ninos", model.CommitteeKey(name), name)
	}
	assert.NotEqual(t, model.CommitteeKey("Coro"), model.CommitteeKey("Coros"))
}
