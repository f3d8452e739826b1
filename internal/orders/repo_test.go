package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/angelmondragon/bakery-backend/pkg/pagination"
	"github.com/angelmondragon/bakery-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  delivery_date DATETIME NOT NULL,
  delivery_slot TEXT,
  items TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  archived BOOLEAN NOT NULL DEFAULT false,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newOrderRow(user uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	slot := enums.DeliverySlotTuesday
	return &models.Order{
		ID:           uuid.New(),
		UserID:       user,
		CustomerName: "דנה כהן",
		Phone:        "0501234567",
		City:         models.DefaultCity,
		DeliveryDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		DeliverySlot: &slot,
		Items:        types.NewLineItems([]types.LineItem{{ProductID: 1, Name: "חלה", Quantity: 2, UnitPrice: 18.5}}),
		TotalPrice:   decimal.RequireFromString("37"),
		Status:       status,
		CreatedAt:    createdAt.UTC(),
	}
}

func TestRepositoryCreateAndPendingCheck(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	pending, err := repo.HasPendingOrder(ctx, user)
	require.NoError(t, err)
	assert.False(t, pending)

	order := newOrderRow(user, enums.OrderStatusPending, testNow)
	require.NoError(t, repo.Create(ctx, order))

	pending, err = repo.HasPendingOrder(ctx, user)
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = repo.HasPendingOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, pending)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, user, found.UserID)
	assert.True(t, found.TotalPrice.Equal(decimal.NewFromInt(37)))
	assert.Equal(t, []types.LineItem{{ProductID: 1, Name: "חלה", Quantity: 2, UnitPrice: 18.5}}, found.Items.Normalize())
	require.NotNil(t, found.DeliverySlot)
	assert.Equal(t, enums.DeliverySlotTuesday, *found.DeliverySlot)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryReadsLegacyMappingItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO orders (id, user_id, customer_name, phone, delivery_date, items, total_price, status, created_at, updated_at)
		 VALUES (?, ?, 'ותיק', '0521234567', ?, ?, '40', 'completed', ?, ?)`,
		id.String(), uuid.NewString(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		`{"לחם שיפון": 1, "חלה": 2}`, testNow, testNow,
	).Error)

	found, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.ItemsKindMapping, found.Items.Kind)
	assert.Equal(t, []types.LineItem{
		{Name: "חלה", Quantity: 2},
		{Name: "לחם שיפון", Quantity: 1},
	}, found.Items.Normalize())
	assert.True(t, found.Status.IsLegacy())
}

func TestRepositoryCancelOwned(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	cases := []struct {
		status   enums.OrderStatus
		affected int64
	}{
		{enums.OrderStatusPending, 1},
		{enums.OrderStatusConfirmed, 1},
		{enums.OrderStatusPreparing, 0},
		{enums.OrderStatusReady, 0},
		{enums.OrderStatusCancelled, 0},
	}
	for _, tc := range cases {
		order := newOrderRow(owner, tc.status, testNow)
		require.NoError(t, repo.Create(ctx, order))

		n, err := repo.CancelOwned(ctx, order.ID, uuid.New(), testNow)
		require.NoError(t, err)
		assert.Zero(t, n, "foreign user must not cancel %s", tc.status)

		n, err = repo.CancelOwned(ctx, order.ID, owner, testNow)
		require.NoError(t, err)
		assert.Equal(t, tc.affected, n, tc.status.String())

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		if tc.affected == 1 {
			assert.Equal(t, enums.OrderStatusCancelled, found.Status)
		} else {
			assert.Equal(t, tc.status, found.Status)
		}
	}
}

func TestRepositoryListForUserPaginates(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		o := newOrderRow(user, enums.OrderStatusDelivered, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, o))
		ids = append(ids, o.ID)
	}
	require.NoError(t, repo.Create(ctx, newOrderRow(uuid.New(), enums.OrderStatusPending, base)))

	rows, err := repo.ListForUser(ctx, user, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	page := pageFromModels(rows, 2)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID)
	assert.Equal(t, ids[3], page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	rows, err = repo.ListForUser(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	page = pageFromModels(rows, 2)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	rows, err = repo.ListForUser(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	page = pageFromModels(rows, 2)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Empty(t, page.NextCursor)

	_, err = repo.ListForUser(ctx, user, pagination.Params{Cursor: "%%%"})
	assert.True(t, errors.Is(err, ErrInvalidCursor))
}

func TestRepositoryAdminOperations(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()

	friday := enums.DeliverySlotFriday
	a := newOrderRow(uuid.New(), enums.OrderStatusPending, testNow)
	b := newOrderRow(uuid.New(), enums.OrderStatusConfirmed, testNow.Add(time.Minute))
	b.DeliverySlot = &friday
	c := newOrderRow(uuid.New(), enums.OrderStatusDelivered, testNow.Add(2*time.Minute))
	for _, o := range []*models.Order{a, b, c} {
		require.NoError(t, repo.Create(ctx, o))
	}

	archived, err := repo.SetArchived(ctx, c.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	rows, err := repo.ListAdmin(ctx, AdminListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	yes := true
	rows, err = repo.ListAdmin(ctx, AdminListFilter{Archived: &yes})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, c.ID, rows[0].ID)

	rows, err = repo.ListAdmin(ctx, AdminListFilter{Slot: &friday})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].ID)

	pending := enums.OrderStatusPending
	rows, err = repo.ListAdmin(ctx, AdminListFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].ID)

	updated, err := repo.UpdateStatus(ctx, a.ID, enums.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, updated.Status)

	_, err = repo.UpdateStatus(ctx, uuid.New(), enums.OrderStatusReady)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	count, err := repo.CountArchived(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
