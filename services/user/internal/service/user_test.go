package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/shopfront/pkg/db/dbtest"
	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/sessions"
	"github.com/Skotchmaster/shopfront/services/user/internal/transport"
)

type testEnv struct {
	svc    *UserService
	store  *identity.GormRepo
	epochs *sessions.RedisStore
	hasher *hash.Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	epochs := sessions.NewRedisStore(client)

	hasher, err := hash.New(hash.Bcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	repo := identity.NewGormRepo(dbtest.New(t, &identity.Identity{}))

	return &testEnv{
		svc: &UserService{
			Store:       repo,
			Hasher:      hasher,
			Sessions:    epochs,
			CallTimeout: 5 * time.Second,
		},
		store:  repo,
		epochs: epochs,
		hasher: hasher,
	}
}

func (env *testEnv) seed(t *testing.T, name, nic, email, phone string) *identity.Identity {
	t.Helper()

	pw, err := env.hasher.HashPassword("secret1")
	require.NoError(t, err)
	i := &identity.Identity{Name: name, NIC: nic, Email: email, ContactNumber: phone, PasswordHash: pw}
	require.NoError(t, env.store.Create(context.Background(), i))
	return i
}

func ptr(s string) *string { return &s }

func TestUserService_GetOwnRecordOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	bob := env.seed(t, "Bob", "198512345678", "bob@example.com", "0711234567")

	got, err := env.svc.Get(ctx, alice.ID.String(), alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = env.svc.Get(ctx, alice.ID.String(), bob.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Get(ctx, "", alice.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = env.svc.Get(ctx, alice.ID.String(), strings.ToUpper(alice.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
}

func TestUserService_GetMissing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	require.NoError(t, env.store.Delete(ctx, alice.ID))

	_, err := env.svc.Get(ctx, alice.ID.String(), alice.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.Get(ctx, "not-a-uuid", "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_List(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	env.seed(t, "Bob", "198512345678", "bob@example.com", "0711234567")

	users, err := env.svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	id := alice.ID.String()

	updated, err := env.svc.Update(ctx, id, id, transport.UpdateUserRequest{
		Name:          ptr("  Alice Perera "),
		Email:         ptr("Alice.P@Example.com"),
		ContactNumber: ptr("+94781234567"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Perera", updated.Name)
	assert.Equal(t, "alice.p@example.com", updated.Email)
	assert.Equal(t, "0781234567", updated.ContactNumber)
	assert.Equal(t, "199012345678", updated.NIC)
	assert.Equal(t, alice.PasswordHash, updated.PasswordHash)

	n, err := env.epochs.Current(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserService_UpdateErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	bob := env.seed(t, "Bob", "198512345678", "bob@example.com", "0711234567")
	id := alice.ID.String()

	tests := []struct {
		name   string
		caller string
		req    transport.UpdateUserRequest
		want   error
	}{
		{name: "someone else", caller: bob.ID.String(), req: transport.UpdateUserRequest{Name: ptr("X")}, want: ErrForbidden},
		{name: "email taken", caller: id, req: transport.UpdateUserRequest{Email: ptr("BOB@example.com")}, want: ErrConflict},
		{name: "nic taken", caller: id, req: transport.UpdateUserRequest{NIC: ptr("198512345678")}, want: ErrConflict},
		{name: "phone taken", caller: id, req: transport.UpdateUserRequest{ContactNumber: ptr("94711234567")}, want: ErrConflict},
		{name: "bad nic", caller: id, req: transport.UpdateUserRequest{NIC: ptr("1234")}, want: ErrValidation},
		{name: "blank name", caller: id, req: transport.UpdateUserRequest{Name: ptr("  ")}, want: ErrValidation},
		{name: "short password", caller: id, req: transport.UpdateUserRequest{Password: ptr("short")}, want: ErrValidation},
		{name: "password over 72 bytes", caller: id, req: transport.UpdateUserRequest{Password: ptr(strings.Repeat("é", 40))}, want: ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := env.svc.Update(ctx, tt.caller, id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_UpdateKeepsOwnValues(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	id := alice.ID.String()

	_, err := env.svc.Update(ctx, id, id, transport.UpdateUserRequest{
		Name:          ptr("Alice"),
		NIC:           ptr("199012345678"),
		Email:         ptr("alice@example.com"),
		ContactNumber: ptr("0771234567"),
	})
	assert.NoError(t, err)
}

func TestUserService_PasswordChangeRevokesSessions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	id := alice.ID.String()

	updated, err := env.svc.Update(ctx, id, id, transport.UpdateUserRequest{Password: ptr("long-enough-pass")})
	require.NoError(t, err)
	assert.True(t, env.hasher.CheckPassword(updated.PasswordHash, "long-enough-pass"))

	n, err := env.epochs.Current(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserService_Delete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seed(t, "Alice", "199012345678", "alice@example.com", "0771234567")
	bob := env.seed(t, "Bob", "198512345678", "bob@example.com", "0711234567")
	id := alice.ID.String()

	assert.ErrorIs(t, env.svc.Delete(ctx, bob.ID.String(), id), ErrForbidden)

	require.NoError(t, env.svc.Delete(ctx, id, id))
	_, err := env.store.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, identity.ErrNotFound)

	n, err := env.epochs.Current(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.ErrorIs(t, env.svc.Delete(ctx, id, id), ErrNotFound)
}
