package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"cmcafe_back_end/internal/apperr"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

// Toutes les requêtes sortantes vers Stripe sont bornées : un prestataire
// qui ne répond pas ne doit jamais bloquer un checkout indéfiniment.
const providerTimeout = 10 * time.Second

// StripeProvider implémente PaymentProvider au-dessus de stripe-go.
// La clé API est globale (stripe.Key), posée au démarrage.
type StripeProvider struct {
	webhookSecret string
}

func NewStripeProvider() *StripeProvider {
	return &StripeProvider{webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET")}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		log.Println("❌ Erreur Stripe (création intent):", err)
		return nil, classify(ctx, err)
	}

	log.Printf("💳 PaymentIntent créé : %s (₹%.2f)", pi.ID, float64(amount)/100)
	return fromStripe(pi), nil
}

func (p *StripeProvider) FetchIntent(ctx context.Context, id string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(id, params)
	if err != nil {
		log.Println("❌ Erreur Stripe (lecture intent):", err)
		return nil, classify(ctx, err)
	}
	return fromStripe(pi), nil
}

func (p *StripeProvider) ConstructEvent(payload []byte, signature string) (Event, error) {
	var event stripe.Event

	if p.webhookSecret == "" {
		// Mode test local sans secret : on décode sans vérifier.
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			return Event{}, fmt.Errorf("JSON invalide: %w", apperr.ErrValidation)
		}
	} else {
		var err error
		event, err = webhook.ConstructEvent(payload, signature, p.webhookSecret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			return Event{}, fmt.Errorf("signature invalide: %w", apperr.ErrPaymentVerificationFailed)
		}
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return Event{}, fmt.Errorf("décodage PaymentIntent: %w", apperr.ErrValidation)
	}

	return Event{Type: string(event.Type), Intent: *fromStripe(&pi)}, nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, apperr.ErrProviderTimeout)
	}
	return fmt.Errorf("%v: %w", err, apperr.ErrPaymentProviderError)
}
