package checkout

import "context"

// Statuts d'intent côté prestataire (vocabulaire Stripe).
const (
	IntentStatusSucceeded      = "succeeded"
	IntentStatusProcessing     = "processing"
	IntentStatusRequiresAction = "requires_payment_method"
	IntentStatusCanceled       = "canceled"
)

// Types d'événements webhook qu'on traite.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Intent est la vue neutre d'un PaymentIntent du prestataire.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64 // en paise
	Currency     string
	Metadata     map[string]string
}

// Event est un événement webhook dont la signature a déjà été vérifiée.
type Event struct {
	Type   string
	Intent Intent
}

// PaymentProvider isole le prestataire de paiement. Implémentations :
// Stripe en production, un fake en test. Le serveur ne fait JAMAIS
// confiance au client pour l'état d'un paiement — toute confirmation
// repasse par FetchIntent.
type PaymentProvider interface {
	// CreateIntent crée un intent pour le montant donné (paise).
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)

	// FetchIntent relit l'intent chez le prestataire, jamais depuis un cache.
	FetchIntent(ctx context.Context, id string) (*Intent, error)

	// ConstructEvent vérifie la signature du webhook et décode l'événement.
	ConstructEvent(payload []byte, signature string) (Event, error)
}
