package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/pricing"

	"github.com/redis/go-redis/v9"
)

// États d'une tentative de checkout.
type AttemptState string

const (
	AttemptAwaitingProviderOrder AttemptState = "awaiting_provider_order"
	AttemptAwaitingUserPayment   AttemptState = "awaiting_user_payment"
	AttemptVerifying             AttemptState = "verifying"
	AttemptCommitted             AttemptState = "committed"
	AttemptFailed                AttemptState = "failed"
)

// Attempt fige le panier et son détail de prix au moment où l'intent est
// créé. Le commit repart TOUJOURS de cet instantané, jamais d'une relecture
// du panier : l'utilisateur peut continuer à cliquer pendant qu'il paie.
type Attempt struct {
	IntentID  string            `json:"intent_id"`
	UserID    string            `json:"user_id"`
	Email     string            `json:"email"`
	PromoID   string            `json:"promo_id,omitempty"`
	PromoCode string            `json:"promo_code,omitempty"`
	Lines     []models.CartLine `json:"lines"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	State     AttemptState      `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
}

// AttemptStore persiste les tentatives, indexées par id d'intent. Une
// tentative abandonnée expire d'elle-même, sans commande créée.
type AttemptStore interface {
	Save(ctx context.Context, a Attempt) error
	Get(ctx context.Context, intentID string) (*Attempt, error)
}

// --- Redis ---

const attemptTTL = 24 * time.Hour

type RedisAttemptStore struct {
	client *redis.Client
}

func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

func attemptKey(intentID string) string {
	return "checkout:attempt:" + intentID
}

func (s *RedisAttemptStore) Save(ctx context.Context, a Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("sérialisation tentative: %w", err)
	}
	return s.client.Set(ctx, attemptKey(a.IntentID), data, attemptTTL).Err()
}

func (s *RedisAttemptStore) Get(ctx context.Context, intentID string) (*Attempt, error) {
	data, err := s.client.Get(ctx, attemptKey(intentID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("tentative %s: %w", intentID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var a Attempt
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("désérialisation tentative: %w", err)
	}
	return &a, nil
}

// --- Mémoire (tests, mode développement) ---

type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]Attempt)}
}

func (s *MemoryAttemptStore) Save(_ context.Context, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[a.IntentID] = a
	return nil
}

func (s *MemoryAttemptStore) Get(_ context.Context, intentID string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[intentID]
	if !ok {
		return nil, fmt.Errorf("tentative %s: %w", intentID, apperr.ErrNotFound)
	}
	return &a, nil
}
