package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cmcafe_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cartTTL      = 30 * 24 * time.Hour // un panier abandonné expire au bout d'un mois
	cartLockTTL  = 5 * time.Second
	cartLockWait = 20 * time.Millisecond
)

// RedisCartRepository stocke le panier de chaque utilisateur sous forme de
// blob JSON dans Redis (clé cart:{userID}) et publie un signal sur le
// canal du même nom à chaque mutation pour la synchro WebSocket.
type RedisCartRepository struct {
	client *redis.Client
}

func NewRedisCartRepository(client *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{client: client}
}

func cartKey(userID string) string { return "cart:" + userID }

func (r *RedisCartRepository) Get(ctx context.Context, userID string) (models.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Cart{UserID: userID}, nil // panier vide par défaut
	}
	if err != nil {
		return models.Cart{}, fmt.Errorf("lecture panier: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return models.Cart{}, fmt.Errorf("décodage panier: %w", err)
	}
	return models.Cart{UserID: userID, Lines: lines}, nil
}

func (r *RedisCartRepository) Save(ctx context.Context, userID string, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("sérialisation panier: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(userID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("écriture panier: %w", err)
	}
	r.client.Publish(ctx, cartKey(userID), "updated")
	return nil
}

func (r *RedisCartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("suppression panier: %w", err)
	}
	r.client.Publish(ctx, cartKey(userID), "cleared")
	return nil
}

// RedisCartLocker sérialise les mutations d'un même panier entre
// plusieurs onglets/instances via SET NX.
type RedisCartLocker struct {
	client *redis.Client
}

func NewRedisCartLocker(client *redis.Client) *RedisCartLocker {
	return &RedisCartLocker{client: client}
}

func (l *RedisCartLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := "cart_lock:" + userID
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, cartLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("verrou panier: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cartLockWait):
		}
	}

	unlock := func() {
		// On ne supprime le verrou que s'il nous appartient encore.
		val, err := l.client.Get(context.Background(), key).Result()
		if err == nil && val == token {
			l.client.Del(context.Background(), key)
		}
	}
	return unlock, nil
}
