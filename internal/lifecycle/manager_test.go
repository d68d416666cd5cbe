package lifecycle

import (
	"context"
	"testing"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, status models.OrderStatus) (*Manager, models.Order) {
	t.Helper()
	orders := store.NewMemoryOrderRepository()
	tracking := store.NewMemoryTrackingRepository()

	order := models.Order{
		ID:            uuid.NewString(),
		OrderNumber:   "CM1756500000000",
		UserID:        "user-1",
		PaymentID:     uuid.NewString(),
		PaymentStatus: models.PaymentCompleted,
		Status:        status,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, orders.Create(context.Background(), order))
	return NewManager(orders, tracking), order
}

func TestAdvance_HappyPath(t *testing.T) {
	m, order := newManager(t, models.StatusPending)
	ctx := context.Background()

	for _, next := range []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	} {
		updated, err := m.Advance(ctx, order.ID, next, "", "")
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}
}

func TestAdvance_SkippingStepsRejected(t *testing.T) {
	m, order := newManager(t, models.StatusPending)

	_, err := m.Advance(context.Background(), order.ID, models.StatusDelivered, "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestAdvance_NoBackwardTransition(t *testing.T) {
	m, order := newManager(t, models.StatusPreparing)

	_, err := m.Advance(context.Background(), order.ID, models.StatusConfirmed, "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestAdvance_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		m, order := newManager(t, terminal)
		_, err := m.Advance(context.Background(), order.ID, models.StatusConfirmed, "", "")
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "depuis %s", terminal)
	}
}

func TestAdvance_AppendsOrderedTrackingEvents(t *testing.T) {
	m, order := newManager(t, models.StatusPending)
	ctx := context.Background()

	_, err := m.Advance(ctx, order.ID, models.StatusConfirmed, "Commande confirmée", "")
	require.NoError(t, err)
	_, err = m.Advance(ctx, order.ID, models.StatusPreparing, "En préparation", "Cuisine")
	require.NoError(t, err)

	events, err := m.TrackingHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, models.StatusConfirmed, events[0].Status)
	assert.Equal(t, models.StatusPreparing, events[1].Status)
	assert.Equal(t, "Cuisine", events[1].Location)
	assert.False(t, events[1].CreatedAt.Before(events[0].CreatedAt),
		"les horodatages doivent être croissants")
}

func TestCancel_AllowedEarly(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusPreparing,
	} {
		m, order := newManager(t, status)
		updated, err := m.Cancel(context.Background(), order.ID, "changement d'avis")
		require.NoError(t, err, "depuis %s", status)
		assert.Equal(t, models.StatusCancelled, updated.Status)

		events, err := m.TrackingHistory(context.Background(), order.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Contains(t, events[0].Message, "changement d'avis")
	}
}

func TestCancel_RejectedOnceOutForDelivery(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.StatusOutForDelivery, models.StatusDelivered, models.StatusCancelled,
	} {
		m, order := newManager(t, status)
		_, err := m.Cancel(context.Background(), order.ID, "")
		assert.ErrorIs(t, err, apperr.ErrOrderNotCancellable, "depuis %s", status)
	}
}

func TestAdvance_UnknownOrder(t *testing.T) {
	m, _ := newManager(t, models.StatusPending)

	_, err := m.Advance(context.Background(), uuid.NewString(), models.StatusConfirmed, "", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
