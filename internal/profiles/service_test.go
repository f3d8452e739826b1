package profiles

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/bakery-backend/internal/users"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProfilesTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:profiles_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE profiles (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newTestService(t *testing.T) (Service, *Repository, *users.Repository) {
	t.Helper()
	db := setupProfilesTestDB(t)
	profileRepo := NewRepository(db)
	userRepo := users.NewRepository(db)
	svc, err := NewService(ServiceParams{Repo: profileRepo, Users: userRepo})
	require.NoError(t, err)
	return svc, profileRepo, userRepo
}

func seedUser(t *testing.T, profileRepo *Repository, userRepo *users.Repository, email string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user, err := userRepo.Create(ctx, users.CreateUserDTO{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	require.NoError(t, profileRepo.Create(ctx, &models.Profile{ID: user.ID, FullName: "דנה כהן"}))
	return user.ID
}

func TestServiceGetAppliesDefaults(t *testing.T) {
	svc, profileRepo, userRepo := newTestService(t)
	id := seedUser(t, profileRepo, userRepo, "dana@example.com")

	dto, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCity, dto.City)
	assert.Equal(t, enums.ProfileRoleCustomer, dto.Role)
}

func TestServiceUpdateNormalizesPhone(t *testing.T) {
	svc, profileRepo, userRepo := newTestService(t)
	id := seedUser(t, profileRepo, userRepo, "dana@example.com")

	ph := "+972-52-123 4567"
	addr := "  הדקל 4 "
	dto, err := svc.Update(context.Background(), id, UpdateProfileInput{Phone: &ph, Address: &addr})
	require.NoError(t, err)
	require.NotNil(t, dto.Phone)
	assert.Equal(t, "0521234567", *dto.Phone)
	assert.Equal(t, "052-1234567", dto.PhoneDisplay)
	assert.Equal(t, "הדקל 4", dto.Address)

	empty := ""
	dto, err = svc.Update(context.Background(), id, UpdateProfileInput{Phone: &empty})
	require.NoError(t, err)
	assert.Nil(t, dto.Phone)
}

func TestServiceUpdateRejectsInvalidInput(t *testing.T) {
	svc, profileRepo, userRepo := newTestService(t)
	id := seedUser(t, profileRepo, userRepo, "dana@example.com")
	ctx := context.Background()

	bad := "123"
	_, err := svc.Update(ctx, id, UpdateProfileInput{Phone: &bad})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	short := "א"
	_, err = svc.Update(ctx, id, UpdateProfileInput{FullName: &short})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, msgNameLength, pkgerrors.As(err).Message())
}

func TestServiceUpdateMissingProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	name := "דנה"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateProfileInput{FullName: &name})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSetRoleAndRoleOf(t *testing.T) {
	svc, profileRepo, userRepo := newTestService(t)
	id := seedUser(t, profileRepo, userRepo, "owner@example.com")
	ctx := context.Background()

	require.NoError(t, svc.SetRole(ctx, "OWNER@example.com", enums.ProfileRoleAdmin))
	role, err := svc.RoleOf(ctx, id)
	require.NoError(t, err)
	assert.True(t, role.IsAdmin())

	err = svc.SetRole(ctx, "ghost@example.com", enums.ProfileRoleAdmin)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.SetRole(ctx, "owner@example.com", enums.ProfileRole("root"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RoleOf(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
