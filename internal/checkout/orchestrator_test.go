package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/cart"
	"cmcafe_back_end/internal/config"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider simule le prestataire : les intents vivent en mémoire et
// leur statut est piloté par le test via pay / fail.
type fakeProvider struct {
	mu      sync.Mutex
	intents map[string]*Intent
	nextErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: make(map[string]*Intent)}
}

func (p *fakeProvider) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nextErr != nil {
		return nil, p.nextErr
	}
	intent := &Intent{
		ID:           fmt.Sprintf("pi_test_%d", len(p.intents)+1),
		ClientSecret: "secret_" + uuid.NewString(),
		Status:       IntentStatusRequiresAction,
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	p.intents[intent.ID] = intent
	return intent, nil
}

func (p *fakeProvider) FetchIntent(_ context.Context, id string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nextErr != nil {
		return nil, p.nextErr
	}
	intent, ok := p.intents[id]
	if !ok {
		return nil, fmt.Errorf("intent %s: %w", id, apperr.ErrPaymentProviderError)
	}
	dup := *intent
	return &dup, nil
}

func (p *fakeProvider) ConstructEvent(payload []byte, _ string) (Event, error) {
	var raw struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("JSON invalide: %w", apperr.ErrValidation)
	}
	return Event{Type: raw.Type, Intent: Intent{ID: raw.ID}}, nil
}

func (p *fakeProvider) pay(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[id].Status = IntentStatusSucceeded
}

type fixture struct {
	orch     *Orchestrator
	carts    *cart.Service
	cartRepo *store.MemoryCartRepository
	orders   *store.MemoryOrderRepository
	tracking *store.MemoryTrackingRepository
	promos   *store.MemoryPromotionRepository
	attempts *MemoryAttemptStore
	provider *fakeProvider
	product  models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := store.NewMemoryProductRepository()
	cartRepo := store.NewMemoryCartRepository()
	promos := store.NewMemoryPromotionRepository()
	orders := store.NewMemoryOrderRepository()
	tracking := store.NewMemoryTrackingRepository()
	provider := newFakeProvider()

	cfg := config.PricingConfig{Currency: "inr", FreeDeliveryThreshold: 50000, DeliveryFee: 4000}
	carts := cart.NewService(products, cartRepo, promos, store.NewMemoryCartLocker(),
		models.DefaultSurcharges(), cfg)

	product := models.Product{ID: uuid.NewString(), Name: "Cold Brew", Price: 18000, Available: true}
	require.NoError(t, products.Create(context.Background(), product))

	attempts := NewMemoryAttemptStore()
	orch := NewOrchestrator(carts, promos, orders, tracking,
		attempts, provider, cfg.Currency)

	return &fixture{
		orch: orch, carts: carts, cartRepo: cartRepo,
		orders: orders, tracking: tracking, promos: promos,
		attempts: attempts, provider: provider, product: product,
	}
}

func (f *fixture) fillCart(t *testing.T, userID string, qty int) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), userID, f.product.ID, qty, models.Customizations{})
	require.NoError(t, err)
}

func TestBegin_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.orch.Begin(context.Background(), "user-1", "u@test.dev", "")
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestBegin_RejectedPromo(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 1)

	_, _, err := f.orch.Begin(context.Background(), "user-1", "u@test.dev", "NOPE")
	assert.ErrorIs(t, err, apperr.ErrPromotionRejected)

	// Échec avant intent : panier intact.
	c, _, err := f.carts.Get(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}

func TestBegin_SnapshotsCartAndCreatesIntent(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 2)

	attempt, intent, err := f.orch.Begin(context.Background(), "user-1", "u@test.dev", "")
	require.NoError(t, err)

	// 2 × 180 = ₹360 < seuil ₹500 → +₹40 de livraison.
	assert.Equal(t, int64(40000), attempt.Breakdown.Total)
	assert.Equal(t, attempt.Breakdown.Total, intent.Amount)
	assert.Equal(t, AttemptAwaitingUserPayment, attempt.State)
	assert.NotEmpty(t, intent.ClientSecret)
	assert.Len(t, attempt.Lines, 1)
}

func TestVerify_CommitsOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 2)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)

	order, err := f.orch.Verify(ctx, "user-1", intent.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentCompleted, order.PaymentStatus)
	assert.Equal(t, intent.ID, order.PaymentID)
	assert.Equal(t, int64(40000), order.TotalAmount)
	assert.Regexp(t, `^CM\d+$`, order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, f.product.ID, order.Items[0].ProductID)

	// Panier vidé après commit.
	c, _, err := f.carts.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, c.Lines)

	// Événement de suivi initial.
	events, err := f.tracking.ByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusPending, events[0].Status)
}

func TestVerify_PaymentNotSucceeded(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 1)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	// Pas de pay() : l'intent reste en attente.

	_, err = f.orch.Verify(ctx, "user-1", intent.ID)
	assert.ErrorIs(t, err, apperr.ErrPaymentVerificationFailed)

	// Aucun effet de bord : panier intact, aucune commande.
	c, _, err := f.carts.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)

	orders, err := f.orders.ByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestVerify_WrongUser(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 1)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)

	_, err = f.orch.Verify(ctx, "user-2", intent.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCommit_SecondCallIsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 2)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)

	first, err := f.orch.Verify(ctx, "user-1", intent.ID)
	require.NoError(t, err)

	second, err := f.orch.Verify(ctx, "user-1", intent.ID)
	assert.ErrorIs(t, err, apperr.ErrDuplicateCommit)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	orders, err := f.orders.ByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestWebhook_CommitsExactlyOnceUnderConcurrentDelivery(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 2)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)

	payload, err := json.Marshal(map[string]string{
		"type": EventPaymentSucceeded,
		"id":   intent.ID,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	duplicates := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orch.HandleWebhook(ctx, payload, "sig")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case errors.Is(err, apperr.ErrDuplicateCommit):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, committed)
	assert.Equal(t, 4, duplicates)

	orders, err := f.orders.ByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestWebhook_PaymentFailedLeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 1)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]string{
		"type": EventPaymentFailed,
		"id":   intent.ID,
	})
	require.NoError(t, err)

	order, err := f.orch.HandleWebhook(ctx, payload, "sig")
	require.NoError(t, err)
	assert.Nil(t, order)

	c, _, err := f.carts.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}

func TestWebhook_RefetchesIntentBeforeTrusting(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 1)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	// Le webhook annonce un succès mais l'intent relu chez le prestataire
	// n'est pas payé : pas de commit.
	payload, err := json.Marshal(map[string]string{
		"type": EventPaymentSucceeded,
		"id":   intent.ID,
	})
	require.NoError(t, err)

	_, err = f.orch.HandleWebhook(ctx, payload, "sig")
	assert.ErrorIs(t, err, apperr.ErrPaymentVerificationFailed)
}

func TestCommit_AmountMismatchRejected(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 2)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)
	f.provider.mu.Lock()
	f.provider.intents[intent.ID].Amount = 100 // montant trafiqué
	f.provider.mu.Unlock()

	_, err = f.orch.Verify(ctx, "user-1", intent.ID)
	assert.ErrorIs(t, err, apperr.ErrPaymentVerificationFailed)
}

func TestCommit_RecordsPromotionUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	promo := models.Promotion{
		ID:       uuid.NewString(),
		Code:     "WELCOME10",
		Kind:     models.PromoPercentage,
		Value:    10,
		IsActive: true,
	}
	require.NoError(t, f.promos.Create(ctx, promo))

	f.fillCart(t, "user-1", 2)

	attempt, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, promo.ID, attempt.PromoID)
	f.provider.pay(intent.ID)

	order, err := f.orch.Verify(ctx, "user-1", intent.ID)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", order.PromoCode)
	assert.Equal(t, int64(3600), order.Discount) // 10 % de ₹360

	count, err := f.promos.UsageCountByUser(ctx, promo.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBegin_ProviderErrorLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 2)
	ctx := context.Background()

	f.provider.nextErr = fmt.Errorf("connexion refusée: %w", apperr.ErrPaymentProviderError)

	_, _, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	assert.ErrorIs(t, err, apperr.ErrPaymentProviderError)

	// Aucune tentative persistée : l'id qu'aurait porté l'intent est vide.
	_, err = f.attempts.Get(ctx, "pi_test_1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Panier intact, l'utilisateur peut simplement réessayer.
	c, _, err := f.carts.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}

func TestVerify_ProviderTimeoutCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "user-1", 1)
	ctx := context.Background()

	_, intent, err := f.orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)

	f.provider.nextErr = fmt.Errorf("relecture intent: %w", apperr.ErrProviderTimeout)

	_, err = f.orch.Verify(ctx, "user-1", intent.ID)
	assert.ErrorIs(t, err, apperr.ErrProviderTimeout)
	assert.NotErrorIs(t, err, apperr.ErrPaymentProviderError,
		"un timeout doit rester distinct : l'appelant peut re-sonder au lieu de conclure à l'échec")

	// Rien n'est créé : pas de commande, panier intact.
	_, err = f.orders.ByPaymentRef(ctx, intent.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	c, _, err := f.carts.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}

// flakyOrderRepo échoue sur les premières créations puis délègue — simule
// une panne transitoire du dépôt au moment du commit.
type flakyOrderRepo struct {
	store.OrderRepository
	failures int
}

func (r *flakyOrderRepo) Create(ctx context.Context, order models.Order) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("écriture commande indisponible")
	}
	return r.OrderRepository.Create(ctx, order)
}

func TestWebhook_RecommitsAfterTransientStoreFailure(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyOrderRepo{OrderRepository: f.orders, failures: 1}
	orch := NewOrchestrator(f.carts, f.promos, flaky, f.tracking,
		f.attempts, f.provider, "inr")

	f.fillCart(t, "user-1", 2)
	ctx := context.Background()

	_, intent, err := orch.Begin(ctx, "user-1", "u@test.dev", "")
	require.NoError(t, err)
	f.provider.pay(intent.ID)

	payload, err := json.Marshal(map[string]string{
		"type": EventPaymentSucceeded,
		"id":   intent.ID,
	})
	require.NoError(t, err)

	_, err = orch.HandleWebhook(ctx, payload, "sig")
	require.Error(t, err)

	// La panne ne doit rien laisser derrière elle : pas de réservation qui
	// bloquerait le retry, pas de commande fantôme, tentative toujours en
	// cours de vérification.
	_, err = f.orders.ByPaymentRef(ctx, intent.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	attempt, err := f.attempts.Get(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, AttemptVerifying, attempt.State)

	// Le retry du webhook aboutit, sans ErrDuplicateCommit.
	order, err := orch.HandleWebhook(ctx, payload, "sig")
	require.NoError(t, err)
	require.NotNil(t, order)

	orders, err := f.orders.ByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	attempt, err = f.attempts.Get(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, AttemptCommitted, attempt.State)

	c, _, err := f.carts.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
}
