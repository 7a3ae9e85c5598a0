package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/store"
	"github.com/tournevent/courier/pkg/shipper"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open("sqlite", ":memory:", false)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

func boundOrder(id, status string, carrier shipper.Carrier) *shipper.Order {
	return &shipper.Order{
		ID:            id,
		TenantID:      "t1",
		TrackingID:    "TRK-" + id,
		Status:        shipper.OrderStatus(status),
		PaymentMethod: shipper.PaymentCOD,
		PaymentStatus: shipper.PaymentUnpaid,
		Total:         decimal.RequireFromString("850.50"),
		Items:         []shipper.OrderItem{{Name: "Shirt", Quantity: 2}},
		Courier: &shipper.OrderCourierInfo{
			ServiceID:      carrier,
			ConsignmentID:  "C-" + id,
			TrackingNumber: "C-" + id,
			Status:         "Pending",
		},
	}
}

func TestStore_OrderRoundTrip(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.SaveOrder(ctx, boundOrder("o1", "processing", shipper.CarrierRedX)))

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "TRK-o1", got.TrackingID)
	assert.True(t, decimal.RequireFromString("850.50").Equal(got.Total))
	assert.Equal(t, []shipper.OrderItem{{Name: "Shirt", Quantity: 2}}, got.Items)
	require.True(t, got.HasCourierBinding())
	assert.Equal(t, shipper.CarrierRedX, got.Courier.ServiceID)
}

func TestStore_GetOrder_NotFound(t *testing.T) {
	s := store.New(newTestDB(t))

	_, err := s.GetOrder(context.Background(), "missing")

	assert.True(t, errors.Is(err, shipper.ErrOrderNotFound))
}

func TestStore_UpdateCourierInfo(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()
	order := boundOrder("o1", "processing", shipper.CarrierRedX)
	order.Courier = nil
	require.NoError(t, s.SaveOrder(ctx, order))

	info := shipper.OrderCourierInfo{
		ServiceID:      shipper.CarrierSteadfast,
		ConsignmentID:  "1424107",
		TrackingNumber: "1424107",
		Status:         "In Review",
	}
	require.NoError(t, s.UpdateCourierInfo(ctx, "o1", info))

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, &info, got.Courier)

	err = s.UpdateCourierInfo(ctx, "missing", info)
	assert.True(t, errors.Is(err, shipper.ErrOrderNotFound))
}

func TestStore_ListOpenBindings(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	unbound := boundOrder("o-unbound", "processing", shipper.CarrierRedX)
	unbound.Courier = nil
	for _, o := range []*shipper.Order{
		boundOrder("o-old", "shipped", shipper.CarrierPathao),
		boundOrder("o-new", "processing", shipper.CarrierRedX),
		boundOrder("o-delivered", "Delivered", shipper.CarrierRedX),
		boundOrder("o-cancelled", "cancelled", shipper.CarrierRedX),
		unbound,
	} {
		require.NoError(t, s.SaveOrder(ctx, o))
	}
	old := time.Now().Add(-time.Hour)
	require.NoError(t, db.Table("orders").Where("id = ?", "o-old").UpdateColumn("updated_at", old).Error)

	got, err := s.ListOpenBindings(ctx, 10)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, o := range got {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"o-old", "o-new"}, ids)

	limited, err := s.ListOpenBindings(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_ListOpenBindings_RotatesUnchangedOrders(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()
	for _, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, s.SaveOrder(ctx, boundOrder(id, "shipped", shipper.CarrierRedX)))
	}

	seen := map[string]int{}
	now := time.Now()
	for pass := 0; pass < 5; pass++ {
		got, err := s.ListOpenBindings(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for i, o := range got {
			seen[o.ID]++
			require.NoError(t, s.MarkChecked(ctx, o.ID, now.Add(time.Duration(pass*10+i)*time.Second)))
		}
	}

	assert.Len(t, seen, 3)
	assert.GreaterOrEqual(t, seen["o3"], 3)
}

func TestStore_MarkChecked_KeepsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()
	require.NoError(t, s.SaveOrder(ctx, boundOrder("o1", "shipped", shipper.CarrierRedX)))
	old := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, db.Table("orders").Where("id = ?", "o1").UpdateColumn("updated_at", old).Error)

	require.NoError(t, s.MarkChecked(ctx, "o1", time.Now()))

	var updatedAt time.Time
	require.NoError(t, db.Table("orders").Select("updated_at").Where("id = ?", "o1").Scan(&updatedAt).Error)
	assert.True(t, old.Equal(updatedAt), "updated_at moved to %v", updatedAt)
}

func TestStore_CarrierConfig(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	_, err := s.CarrierConfig(ctx, "t1", shipper.CarrierRedX)
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotFound))

	cfg := shipper.CarrierConfig{
		ID:          shipper.CarrierRedX,
		TenantID:    "t1",
		Name:        "RedX main",
		Enabled:     true,
		Credentials: shipper.Credentials{"api_key": "token"},
	}
	require.NoError(t, s.SaveCarrierConfig(ctx, cfg))

	cfg.Enabled = false
	require.NoError(t, s.SaveCarrierConfig(ctx, cfg))

	got, err := s.CarrierConfig(ctx, "t1", shipper.CarrierRedX)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
