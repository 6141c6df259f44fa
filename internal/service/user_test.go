package service

import (
	"context"
	"testing"

	"decom/internal/model"
	"decom/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateRespectsHierarchy(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	root := seedUser(t, db, "root@decom.test", "super_admin", "secreto123")
	admin := seedUser(t, db, "admin@decom.test", "admin", "secreto123")

	tests := []struct {
		name  string
		actor *model.User
		role  string
		err   error
	}{
		{"super admin creates admin", root, "admin", nil},
		{"super admin creates super admin", root, "super_admin", nil},
		{"admin creates designer", admin, "designer", nil},
		{"admin cannot create admin", admin, "admin", ErrForbidden},
		{"admin cannot create super admin", admin, "super_admin", ErrForbidden},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Create(ctx, model.CreateUserPayload{
				Email:    "u" + string(rune('a'+i)) + "@decom.test",
				FullName: "Usuario",
				Role:     tt.role,
				Password: "clave-segura",
			}, actorOf(tt.actor))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, permission.LevelOf(tt.role), u.RoleLevel)
			assert.True(t, u.Active)
			assert.NotEqual(t, "clave-segura", u.PasswordHash)
		})
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	root := seedUser(t, db, "root@decom.test", "super_admin", "secreto123")

	_, err := svc.Create(context.Background(), model.CreateUserPayload{
		Email: " ROOT@decom.test", FullName: "Otro", Role: "viewer", Password: "clave-segura",
	}, actorOf(root))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@decom.test", "admin", "secreto123")
	designer := seedUser(t, db, "diseno@decom.test", "designer", "secreto123")
	peer := seedUser(t, db, "par@decom.test", "admin", "secreto123")

	u, err := svc.Update(ctx, designer.ID, model.UpdateUserPayload{Role: strPtr("viewer")}, actorOf(admin))
	require.NoError(t, err)
	assert.Equal(t, "viewer", u.Role)
	assert.Equal(t, permission.LevelOf("viewer"), u.RoleLevel)

	_, err = svc.Update(ctx, designer.ID, model.UpdateUserPayload{Role: strPtr("admin")}, actorOf(admin))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, peer.ID, model.UpdateUserPayload{FullName: strPtr("Par")}, actorOf(admin))
	assert.ErrorIs(t, err, ErrForbidden)

	u, err = svc.Update(ctx, admin.ID, model.UpdateUserPayload{FullName: strPtr("Administración")}, actorOf(admin))
	require.NoError(t, err)
	assert.Equal(t, "Administración", u.FullName)

	_, err = svc.Update(ctx, admin.ID, model.UpdateUserPayload{Role: strPtr("super_admin")}, actorOf(admin))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, admin.ID, model.UpdateUserPayload{Active: boolPtr(false)}, actorOf(admin))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, 999, model.UpdateUserPayload{}, actorOf(admin))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserPasswordChangeAllowsLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	auth := NewAuthService(db)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@decom.test", "admin", "secreto123")
	viewer := seedUser(t, db, "ver@decom.test", "viewer", "secreto123")

	_, err := svc.Update(ctx, viewer.ID, model.UpdateUserPayload{Password: strPtr("nueva-clave")}, actorOf(admin))
	require.NoError(t, err)

	_, err = auth.Login(ctx, "ver@decom.test", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "ver@decom.test", "nueva-clave")
	assert.NoError(t, err)
}

func TestOwnPasswordChangeNeedsCurrentPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	auth := NewAuthService(db)
	ctx := context.Background()
	designer := seedUser(t, db, "diseno@decom.test", "designer", "secreto123")
	self := actorOf(designer)

	var fe *FieldError
	_, err := svc.Update(ctx, designer.ID, model.UpdateUserPayload{Password: strPtr("nueva-clave")}, self)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "current_password", fe.Field)

	_, err = svc.Update(ctx, designer.ID, model.UpdateUserPayload{Password: strPtr("nueva-clave"), CurrentPassword: strPtr("equivocada")}, self)
	assert.ErrorAs(t, err, &fe)
	_, err = auth.Login(ctx, "diseno@decom.test", "secreto123")
	require.NoError(t, err)

	_, err = svc.Update(ctx, designer.ID, model.UpdateUserPayload{Password: strPtr("nueva-clave"), CurrentPassword: strPtr("secreto123")}, self)
	require.NoError(t, err)
	_, err = auth.Login(ctx, "diseno@decom.test", "nueva-clave")
	assert.NoError(t, err)
}

func TestUserDeactivate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	root := seedUser(t, db, "root@decom.test", "super_admin", "secreto123")
	admin := seedUser(t, db, "admin@decom.test", "admin", "secreto123")
	designer := seedUser(t, db, "diseno@decom.test", "designer", "secreto123")

	assert.ErrorIs(t, svc.Deactivate(ctx, admin.ID, actorOf(admin)), ErrSelfDeactivate)
	assert.ErrorIs(t, svc.Deactivate(ctx, root.ID, actorOf(admin)), ErrForbidden)
	assert.ErrorIs(t, svc.Deactivate(ctx, 999, actorOf(admin)), ErrNotFound)

	require.NoError(t, svc.Deactivate(ctx, designer.ID, actorOf(admin)))
	u, err := svc.Get(ctx, designer.ID)
	require.NoError(t, err)
	assert.False(t, u.Active)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, root.ID, users[0].ID)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "", "", ""))
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "Root@Decom.test", "secreto123", "Root"))
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "otro@decom.test", "secreto123", "Otro"))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "root@decom.test", users[0].Email)
	assert.Equal(t, string(permission.RoleSuperAdmin), users[0].Role)
}
