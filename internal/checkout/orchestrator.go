package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/cart"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"

	"github.com/google/uuid"
)

// Notifier est prévenu après un commit réussi (e-mail de confirmation,
// reçu PDF, QR de retrait). Toujours hors du chemin critique.
type Notifier interface {
	OrderConfirmed(order models.Order, email string)
}

type noopNotifier struct{}

func (noopNotifier) OrderConfirmed(models.Order, string) {}

// Orchestrator pilote un checkout de bout en bout : instantané du panier,
// intent chez le prestataire, vérification côté serveur, commit at-most-once.
// Le client ne décide JAMAIS qu'un paiement a réussi — c'est toujours le
// prestataire, relu par le serveur, qui fait foi.
type Orchestrator struct {
	carts    *cart.Service
	promos   store.PromotionRepository
	orders   store.OrderRepository
	tracking store.TrackingRepository
	attempts AttemptStore
	provider PaymentProvider
	notifier Notifier
	currency string
	now      func() time.Time
}

func NewOrchestrator(carts *cart.Service, promos store.PromotionRepository,
	orders store.OrderRepository, tracking store.TrackingRepository,
	attempts AttemptStore, provider PaymentProvider, currency string) *Orchestrator {
	return &Orchestrator{
		carts:    carts,
		promos:   promos,
		orders:   orders,
		tracking: tracking,
		attempts: attempts,
		provider: provider,
		notifier: noopNotifier{},
		currency: currency,
		now:      time.Now,
	}
}

// WithNotifier branche l'envoi de confirmation (e-mail + PDF + QR).
func (o *Orchestrator) WithNotifier(n Notifier) *Orchestrator {
	o.notifier = n
	return o
}

// Begin fige le panier et son détail de prix, crée l'intent de paiement
// chez le prestataire et persiste la tentative. Le panier reste intact :
// il ne sera vidé qu'au commit.
func (o *Orchestrator) Begin(ctx context.Context, userID, email, promoCode string) (*Attempt, *Intent, error) {
	snapshot, breakdown, err := o.carts.Get(ctx, userID, promoCode)
	if err != nil {
		return nil, nil, err
	}
	if len(snapshot.Lines) == 0 {
		return nil, nil, apperr.ErrEmptyCart
	}
	if promoCode != "" && breakdown.PromoRejected != "" {
		return nil, nil, fmt.Errorf("%s: %w", breakdown.PromoRejected, apperr.ErrPromotionRejected)
	}

	// L'id interne du code promo voyage dans la tentative : au commit on
	// enregistre l'utilisation sans relire les règles.
	var promoID string
	if breakdown.PromoCode != "" {
		promo, err := o.promos.ByCode(ctx, breakdown.PromoCode)
		if err != nil {
			return nil, nil, err
		}
		promoID = promo.ID
	}

	attempt := Attempt{
		UserID:    userID,
		Email:     email,
		PromoID:   promoID,
		PromoCode: breakdown.PromoCode,
		Lines:     snapshot.Lines,
		Breakdown: breakdown,
		State:     AttemptAwaitingProviderOrder,
		CreatedAt: o.now(),
	}

	intent, err := o.provider.CreateIntent(ctx, breakdown.Total, o.currency, map[string]string{
		"user_id":    userID,
		"email":      email,
		"promo_code": breakdown.PromoCode,
	})
	if err != nil {
		// Rien n'est persisté : pas d'intent, pas de tentative, panier
		// intact. L'utilisateur peut simplement réessayer.
		return nil, nil, err
	}

	attempt.IntentID = intent.ID
	attempt.State = AttemptAwaitingUserPayment
	if err := o.attempts.Save(ctx, attempt); err != nil {
		return nil, nil, err
	}

	log.Printf("🛒 Checkout démarré pour %s : intent %s, total ₹%.2f",
		userID, intent.ID, float64(breakdown.Total)/100)
	return &attempt, intent, nil
}

// HandleWebhook traite un callback du prestataire. La signature est
// vérifiée, puis l'intent est RELU chez le prestataire avant tout commit —
// le payload seul ne suffit pas.
func (o *Orchestrator) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.Order, error) {
	event, err := o.provider.ConstructEvent(payload, signature)
	if err != nil {
		return nil, err
	}
	log.Printf("📥 Événement prestataire reçu : %s", event.Type)

	switch event.Type {
	case EventPaymentSucceeded:
		intent, err := o.provider.FetchIntent(ctx, event.Intent.ID)
		if err != nil {
			return nil, err
		}
		if intent.Status != IntentStatusSucceeded {
			return nil, fmt.Errorf("intent %s en état %s: %w",
				intent.ID, intent.Status, apperr.ErrPaymentVerificationFailed)
		}
		return o.commit(ctx, intent)

	case EventPaymentFailed:
		o.markFailed(ctx, event.Intent.ID)
		return nil, nil

	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return nil, nil
	}
}

// Verify est le chemin initié par le client après la redirection de
// paiement. Le serveur relit l'intent chez le prestataire ; le drapeau
// "payé" envoyé par le client est ignoré.
func (o *Orchestrator) Verify(ctx context.Context, userID, intentID string) (*models.Order, error) {
	attempt, err := o.attempts.Get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("tentative %s: %w", intentID, apperr.ErrNotFound)
	}

	intent, err := o.provider.FetchIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != IntentStatusSucceeded {
		return nil, fmt.Errorf("intent %s en état %s: %w",
			intentID, intent.Status, apperr.ErrPaymentVerificationFailed)
	}
	return o.commit(ctx, intent)
}

// commit transforme l'instantané en commande. At-most-once : l'unicité de
// la référence de paiement est garantie par le dépôt de commandes, pas par
// une vérification préalable — deux webhooks concurrents ne créent qu'une
// seule commande, le second reçoit apperr.ErrDuplicateCommit avec la
// commande existante.
func (o *Orchestrator) commit(ctx context.Context, intent *Intent) (*models.Order, error) {
	attempt, err := o.attempts.Get(ctx, intent.ID)
	if err != nil {
		return nil, err
	}

	// La vérification en cours est persistée : après une panne transitoire
	// du dépôt, la tentative est retrouvée dans cet état et le retry du
	// webhook peut re-committer.
	if attempt.State == AttemptAwaitingUserPayment {
		attempt.State = AttemptVerifying
		if err := o.attempts.Save(ctx, *attempt); err != nil {
			log.Println("⚠️ Échec mise à jour tentative:", err)
		}
	}

	// Garde-fou : le montant encaissé doit être celui de l'instantané.
	if intent.Amount != attempt.Breakdown.Total {
		return nil, fmt.Errorf("montant %d ≠ instantané %d: %w",
			intent.Amount, attempt.Breakdown.Total, apperr.ErrPaymentVerificationFailed)
	}

	now := o.now()
	order := models.Order{
		ID:            uuid.NewString(),
		OrderNumber:   fmt.Sprintf("CM%d", now.UnixMilli()),
		UserID:        attempt.UserID,
		Subtotal:      attempt.Breakdown.Subtotal,
		Discount:      attempt.Breakdown.Discount,
		DeliveryFee:   attempt.Breakdown.DeliveryFee,
		TotalAmount:   attempt.Breakdown.Total,
		PromoCode:     attempt.PromoCode,
		PaymentID:     intent.ID,
		PaymentStatus: models.PaymentCompleted,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, line := range attempt.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			Customizations: line.Customizations,
			TotalPrice:     line.TotalPrice,
		})
	}

	if err := o.orders.Create(ctx, order); err != nil {
		if errors.Is(err, apperr.ErrDuplicateCommit) {
			existing, lookupErr := o.orders.ByPaymentRef(ctx, intent.ID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			attempt.State = AttemptCommitted
			if saveErr := o.attempts.Save(ctx, *attempt); saveErr != nil {
				log.Println("⚠️ Échec mise à jour tentative:", saveErr)
			}
			log.Printf("🔁 Commande déjà enregistrée pour %s, on ignore.", intent.ID)
			return existing, err
		}
		return nil, err
	}

	if err := o.tracking.Append(ctx, models.OrderTrackingEvent{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Status:    models.StatusPending,
		Message:   "Commande reçue, paiement confirmé",
		CreatedAt: now,
	}); err != nil {
		log.Println("⚠️ Échec écriture suivi initial:", err)
	}

	if attempt.PromoID != "" {
		if err := o.promos.RecordUsage(ctx, models.PromotionUsage{
			ID:      uuid.NewString(),
			PromoID: attempt.PromoID,
			UserID:  attempt.UserID,
			OrderID: order.ID,
			UsedAt:  now,
		}); err != nil {
			log.Println("⚠️ Échec enregistrement utilisation promo:", err)
		}
	}

	// Le panier ne disparaît qu'APRÈS la commande.
	if err := o.carts.Clear(ctx, attempt.UserID); err != nil {
		log.Println("⚠️ Échec vidage panier après commit:", err)
	}

	attempt.State = AttemptCommitted
	if err := o.attempts.Save(ctx, *attempt); err != nil {
		log.Println("⚠️ Échec mise à jour tentative:", err)
	}

	log.Printf("✅ Commande %s créée (intent %s, ₹%.2f)",
		order.OrderNumber, intent.ID, float64(order.TotalAmount)/100)

	go o.notifier.OrderConfirmed(order, attempt.Email)

	return &order, nil
}

// markFailed note l'échec du paiement. Le panier n'est pas touché :
// l'utilisateur peut réessayer.
func (o *Orchestrator) markFailed(ctx context.Context, intentID string) {
	attempt, err := o.attempts.Get(ctx, intentID)
	if err != nil {
		log.Printf("⚠️ Paiement échoué pour tentative inconnue %s", intentID)
		return
	}
	attempt.State = AttemptFailed
	if err := o.attempts.Save(ctx, *attempt); err != nil {
		log.Println("⚠️ Échec mise à jour tentative:", err)
	}
	log.Printf("⚠️ Paiement échoué : %s", intentID)
}
