package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"

	"github.com/google/uuid"
)

// transitions est LA table des transitions autorisées. Tous les chemins
// (avancement admin, annulation client) passent par ce package — aucun
// handler n'écrit un statut directement.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:        {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:      {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing:      {models.StatusOutForDelivery, models.StatusCancelled},
	models.StatusOutForDelivery: {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered:      nil,
	models.StatusCancelled:      nil,
}

// cancellable : après le début de la livraison, on ne peut plus annuler.
var cancellable = map[models.OrderStatus]bool{
	models.StatusPending:   true,
	models.StatusConfirmed: true,
	models.StatusPreparing: true,
}

func canTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Manager fait avancer le statut des commandes. Chaque transition réussie
// ajoute un événement de suivi — l'historique est append-only et le
// Manager en est le seul rédacteur.
type Manager struct {
	orders   store.OrderRepository
	tracking store.TrackingRepository
	now      func() time.Time
}

func NewManager(orders store.OrderRepository, tracking store.TrackingRepository) *Manager {
	return &Manager{orders: orders, tracking: tracking, now: time.Now}
}

// Advance passe la commande au statut suivant. Tout saut interdit par la
// table (pending → delivered, retour en arrière, sortie d'un état
// terminal) est rejeté avec apperr.ErrInvalidTransition.
func (m *Manager) Advance(ctx context.Context, orderID string, next models.OrderStatus, message, location string) (*models.Order, error) {
	order, err := m.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canTransition(order.Status, next) {
		return nil, fmt.Errorf("%s → %s: %w", order.Status, next, apperr.ErrInvalidTransition)
	}

	if err := m.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	if err := m.appendEvent(ctx, orderID, next, message, location); err != nil {
		return nil, err
	}

	log.Printf("✅ Commande %s : %s → %s", order.OrderNumber, order.Status, next)
	order.Status = next
	order.UpdatedAt = m.now()
	return order, nil
}

// Cancel annule la commande si la préparation n'est pas trop avancée.
func (m *Manager) Cancel(ctx context.Context, orderID, reason string) (*models.Order, error) {
	order, err := m.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !cancellable[order.Status] {
		return nil, fmt.Errorf("commande en état %s: %w", order.Status, apperr.ErrOrderNotCancellable)
	}

	if err := m.orders.UpdateStatus(ctx, orderID, models.StatusCancelled); err != nil {
		return nil, err
	}
	message := "Commande annulée"
	if reason != "" {
		message = "Commande annulée : " + reason
	}
	if err := m.appendEvent(ctx, orderID, models.StatusCancelled, message, ""); err != nil {
		return nil, err
	}

	log.Printf("🚫 Commande %s annulée (%s)", order.OrderNumber, reason)
	order.Status = models.StatusCancelled
	order.UpdatedAt = m.now()
	return order, nil
}

// TrackingHistory retourne les événements de suivi, dans l'ordre d'ajout.
func (m *Manager) TrackingHistory(ctx context.Context, orderID string) ([]models.OrderTrackingEvent, error) {
	if _, err := m.orders.ByID(ctx, orderID); err != nil {
		return nil, err
	}
	return m.tracking.ByOrder(ctx, orderID)
}

func (m *Manager) appendEvent(ctx context.Context, orderID string, status models.OrderStatus, message, location string) error {
	return m.tracking.Append(ctx, models.OrderTrackingEvent{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Status:    status,
		Message:   message,
		Location:  location,
		CreatedAt: m.now(),
	})
}
