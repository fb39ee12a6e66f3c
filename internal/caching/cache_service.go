package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"opensox/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheService is the process-wide, lazily-populated view of
// subscription status. It is never authoritative: every value here is
// re-derivable from the subscriptions table and consumers must
// tolerate staleness.
type CacheService interface {
	GetSubscriptionStatus(ctx context.Context, userID uuid.UUID) (*models.SubscriptionStatus, error)
	SetSubscriptionStatus(ctx context.Context, userID uuid.UUID, status *models.SubscriptionStatus, ttl time.Duration) error
	DeleteSubscriptionStatus(ctx context.Context, userID uuid.UUID) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func subscriptionStatusKey(userID uuid.UUID) string {
	return fmt.Sprintf("opensox:substatus:%s", userID.String())
}

func (r *redisCacheService) GetSubscriptionStatus(ctx context.Context, userID uuid.UUID) (*models.SubscriptionStatus, error) {
	data, err := r.client.Get(ctx, subscriptionStatusKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var status models.SubscriptionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *redisCacheService) SetSubscriptionStatus(ctx context.Context, userID uuid.UUID, status *models.SubscriptionStatus, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, subscriptionStatusKey(userID), data, ttl).Err()
}

func (r *redisCacheService) DeleteSubscriptionStatus(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, subscriptionStatusKey(userID)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
