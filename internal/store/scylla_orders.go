package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaOrderRepository persiste les commandes dans le keyspace commandes.
// La contrainte d'unicité sur la référence de paiement passe par une table
// orders_by_payment avec INSERT ... IF NOT EXISTS (LWT) : c'est elle qui
// garantit le commit at-most-once même si le webhook arrive deux fois.
type ScyllaOrderRepository struct {
	session SessionFn
}

func NewScyllaOrderRepository(session SessionFn) *ScyllaOrderRepository {
	return &ScyllaOrderRepository{session: session}
}

func (r *ScyllaOrderRepository) Create(_ context.Context, order models.Order) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	orderID, err := gocql.ParseUUID(order.ID)
	if err != nil {
		return fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}

	// 1. Réserver la référence de paiement — atomique, c'est le garde-fou
	// contre les doubles commits.
	var existingOrderID gocql.UUID
	applied, err := session.Query(`INSERT INTO orders_by_payment (payment_id, order_id)
		VALUES (?, ?) IF NOT EXISTS`, order.PaymentID, orderID).ScanCAS(&existingOrderID)
	if err != nil {
		return fmt.Errorf("réservation référence paiement: %w", err)
	}
	if !applied {
		return fmt.Errorf("paiement %s: %w", order.PaymentID, apperr.ErrDuplicateCommit)
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("sérialisation articles: %w", err)
	}

	// 2. Écrire la commande elle-même. En cas d'échec, la réservation est
	// rendue : sinon chaque retry du webhook buterait sur
	// ErrDuplicateCommit avec une référence qui ne pointe sur rien —
	// paiement encaissé, commande introuvable, pour toujours.
	if err := session.Query(`INSERT INTO orders (order_id, order_number, user_id, items,
		subtotal, discount, delivery_fee, total_amount, promo_code, payment_id,
		payment_status, status, delivery_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderID, order.OrderNumber, order.UserID, string(itemsJSON),
		order.Subtotal, order.Discount, order.DeliveryFee, order.TotalAmount,
		order.PromoCode, order.PaymentID, order.PaymentStatus, string(order.Status),
		order.DeliveryAddress, order.CreatedAt, order.UpdatedAt).Exec(); err != nil {
		r.rollbackCreate(session, order.PaymentID, orderID, false)
		return fmt.Errorf("insertion commande: %w", err)
	}

	// 3. Index par utilisateur pour l'historique.
	if err := session.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id)
		VALUES (?, ?, ?)`, order.UserID, order.CreatedAt, orderID).Exec(); err != nil {
		r.rollbackCreate(session, order.PaymentID, orderID, true)
		return fmt.Errorf("insertion index commandes: %w", err)
	}
	return nil
}

// rollbackCreate défait un commit partiel pour qu'un retry reparte de
// zéro : Create réussit entièrement ou ne laisse rien derrière lui.
func (r *ScyllaOrderRepository) rollbackCreate(session *gocql.Session, paymentID string, orderID gocql.UUID, orderWritten bool) {
	if orderWritten {
		if err := session.Query(`DELETE FROM orders WHERE order_id = ?`, orderID).Exec(); err != nil {
			log.Println("⚠️ Rollback commande impossible:", err)
		}
	}
	// Suppression conditionnelle : on ne rend que NOTRE réservation, jamais
	// celle d'un commit concurrent qui aurait gagné la course.
	if err := session.Query(`DELETE FROM orders_by_payment WHERE payment_id = ? IF order_id = ?`,
		paymentID, orderID).Exec(); err != nil {
		log.Println("⚠️ Rollback réservation paiement impossible:", err)
	}
}

func (r *ScyllaOrderRepository) ByID(ctx context.Context, id string) (*models.Order, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	orderID, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}
	return r.scanOrder(session, orderID)
}

func (r *ScyllaOrderRepository) ByPaymentRef(ctx context.Context, paymentID string) (*models.Order, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	var orderID gocql.UUID
	err = session.Query(`SELECT order_id FROM orders_by_payment WHERE payment_id = ?`,
		paymentID).Scan(&orderID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("paiement %s: %w", paymentID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("recherche par paiement: %w", err)
	}
	return r.scanOrder(session, orderID)
}

func (r *ScyllaOrderRepository) ByUser(_ context.Context, userID string) ([]models.Order, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).Iter()
	var ids []gocql.UUID
	var oid gocql.UUID
	for iter.Scan(&oid) {
		ids = append(ids, oid)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture index commandes: %w", err)
	}

	var orders []models.Order
	for _, id := range ids {
		order, err := r.scanOrder(session, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (r *ScyllaOrderRepository) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	orderID, err := gocql.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}
	return session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(status), time.Now(), orderID).Exec()
}

func (r *ScyllaOrderRepository) UpdatePaymentStatus(_ context.Context, id string, paymentStatus string) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	orderID, err := gocql.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}
	return session.Query(`UPDATE orders SET payment_status = ?, updated_at = ? WHERE order_id = ?`,
		paymentStatus, time.Now(), orderID).Exec()
}

func (r *ScyllaOrderRepository) TotalSpent(ctx context.Context, userID string) (int64, error) {
	orders, err := r.ByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, o := range orders {
		if o.PaymentStatus == models.PaymentCompleted {
			total += o.TotalAmount
		}
	}
	return total, nil
}

func (r *ScyllaOrderRepository) scanOrder(session *gocql.Session, orderID gocql.UUID) (*models.Order, error) {
	var o models.Order
	var itemsJSON, status string

	err := session.Query(`SELECT order_id, order_number, user_id, items, subtotal, discount,
		delivery_fee, total_amount, promo_code, payment_id, payment_status, status,
		delivery_address, created_at, updated_at FROM orders WHERE order_id = ?`, orderID).Scan(
		&orderID, &o.OrderNumber, &o.UserID, &itemsJSON, &o.Subtotal, &o.Discount,
		&o.DeliveryFee, &o.TotalAmount, &o.PromoCode, &o.PaymentID, &o.PaymentStatus,
		&status, &o.DeliveryAddress, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("commande %s: %w", orderID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande: %w", err)
	}

	o.ID = orderID.String()
	o.Status = models.OrderStatus(status)
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("décodage articles: %w", err)
	}
	return &o, nil
}

// --- Suivi ---

type ScyllaTrackingRepository struct {
	session SessionFn
}

func NewScyllaTrackingRepository(session SessionFn) *ScyllaTrackingRepository {
	return &ScyllaTrackingRepository{session: session}
}

func (r *ScyllaTrackingRepository) Append(_ context.Context, event models.OrderTrackingEvent) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	orderID, err := gocql.ParseUUID(event.OrderID)
	if err != nil {
		return fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}
	eventID, err := gocql.ParseUUID(event.ID)
	if err != nil {
		return fmt.Errorf("id événement invalide: %w", apperr.ErrValidation)
	}

	// Table clusterisée par created_at : l'historique se relit trié,
	// jamais réécrit.
	return session.Query(`INSERT INTO order_tracking (order_id, created_at, event_id, status,
		message, location) VALUES (?, ?, ?, ?, ?, ?)`,
		orderID, event.CreatedAt, eventID, string(event.Status),
		event.Message, event.Location).Exec()
}

func (r *ScyllaTrackingRepository) ByOrder(_ context.Context, orderID string) ([]models.OrderTrackingEvent, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	oid, err := gocql.ParseUUID(orderID)
	if err != nil {
		return nil, fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}

	iter := session.Query(`SELECT event_id, status, message, location, created_at
		FROM order_tracking WHERE order_id = ? ORDER BY created_at ASC`, oid).Iter()
	defer iter.Close()

	var events []models.OrderTrackingEvent
	var e models.OrderTrackingEvent
	var eventID gocql.UUID
	var status string

	for iter.Scan(&eventID, &status, &e.Message, &e.Location, &e.CreatedAt) {
		e.ID = eventID.String()
		e.OrderID = orderID
		e.Status = models.OrderStatus(status)
		events = append(events, e)
		e = models.OrderTrackingEvent{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture suivi: %w", err)
	}
	return events, nil
}
