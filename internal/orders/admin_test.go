package orders

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminFixture(t *testing.T) (AdminService, Repository, *memoryHistoryCache) {
	t.Helper()
	repo := NewRepository(setupOrdersTestDB(t))
	cache := newMemoryHistoryCache()
	svc, err := NewAdminService(AdminServiceParams{
		Repo:     repo,
		Calendar: testCalendar(t),
		Cache:    cache,
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return svc, repo, cache
}

func TestAdminUpdateStatus(t *testing.T) {
	svc, repo, cache := newAdminFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	order := newOrderRow(owner, enums.OrderStatusPending, testNow)
	require.NoError(t, repo.Create(ctx, order))

	dto, err := svc.UpdateStatus(ctx, order.ID, " ready ")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReady, dto.Status)
	assert.Equal(t, "מוכן למשלוח", dto.StatusLabel)
	assert.Contains(t, cache.invalidated, owner)

	_, err = svc.UpdateStatus(ctx, order.ID, "shipped")
	requireCode(t, err, pkgerrors.CodeValidation, msgInvalidStatus)

	_, err = svc.UpdateStatus(ctx, order.ID, "completed")
	requireCode(t, err, pkgerrors.CodeStateConflict, msgStatusNotAllowed)

	_, err = svc.UpdateStatus(ctx, uuid.New(), "confirmed")
	requireCode(t, err, pkgerrors.CodeNotFound, msgOrderNotFound)
}

func TestAdminUpdateStatusBackToPendingConflicts(t *testing.T) {
	conn := setupOrdersTestDB(t)
	require.NoError(t, conn.Exec(
		`CREATE UNIQUE INDEX idx_orders_one_pending_per_user ON orders(user_id) WHERE status = 'pending'`).Error)
	repo := NewRepository(conn)
	svc, err := NewAdminService(AdminServiceParams{
		Repo:     repo,
		Calendar: testCalendar(t),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	open := newOrderRow(owner, enums.OrderStatusPending, testNow)
	confirmed := newOrderRow(owner, enums.OrderStatusConfirmed, testNow.Add(time.Minute))
	for _, o := range []*models.Order{open, confirmed} {
		require.NoError(t, repo.Create(ctx, o))
	}

	_, err = svc.UpdateStatus(ctx, confirmed.ID, "pending")
	typed := requireCode(t, err, pkgerrors.CodeDuplicatePending, msgCustomerPending)
	assert.Equal(t, http.StatusConflict, pkgerrors.MetadataFor(typed.Code()).HTTPStatus)

	_, err = svc.UpdateStatus(ctx, open.ID, "cancelled")
	require.NoError(t, err)
	dto, err := svc.UpdateStatus(ctx, confirmed.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, dto.Status)
}

func TestAdminArchiveAndList(t *testing.T) {
	svc, repo, _ := newAdminFixture(t)
	ctx := context.Background()

	keep := newOrderRow(uuid.New(), enums.OrderStatusConfirmed, testNow)
	hide := newOrderRow(uuid.New(), enums.OrderStatusDelivered, testNow.Add(time.Minute))
	for _, o := range []*models.Order{keep, hide} {
		require.NoError(t, repo.Create(ctx, o))
	}

	dto, err := svc.SetArchived(ctx, hide.ID, true)
	require.NoError(t, err)
	assert.True(t, dto.Archived)

	page, err := svc.ListOrders(ctx, AdminListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, keep.ID, page.Items[0].ID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, int64(1), stats.Archived)
	assert.Equal(t, 1, stats.NextDelivery)
	assert.Equal(t, "37", stats.TotalIncome.String())

	_, err = svc.SetArchived(ctx, uuid.New(), true)
	requireCode(t, err, pkgerrors.CodeNotFound, msgOrderNotFound)
}
