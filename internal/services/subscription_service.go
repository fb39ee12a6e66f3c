package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"opensox/internal/caching"
	"opensox/internal/models"
	"opensox/internal/repositories"

	"github.com/google/uuid"
)

const statusCacheTTL = 5 * time.Minute

// SubscriptionService answers "is this user a paid subscriber" through
// the cache, falling back to the subscriptions table. The table is the
// source of truth; the cache is a lazily-populated optimization.
type SubscriptionService interface {
	Status(ctx context.Context, userID uuid.UUID) (*models.SubscriptionStatus, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, userID uuid.UUID) error
	ExpireLapsed(ctx context.Context) (int, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	cache            caching.CacheService
}

func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository, cache caching.CacheService) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		cache:            cache,
	}
}

func (s *subscriptionService) Status(ctx context.Context, userID uuid.UUID) (*models.SubscriptionStatus, error) {
	cached, err := s.cache.GetSubscriptionStatus(ctx, userID)
	if err != nil {
		// cache trouble must not take down the status read
		log.Printf("WARN: subscription cache read failed: user=%s err=%v", userID, err)
	}
	if cached != nil {
		return cached, nil
	}

	subscription, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	status := &models.SubscriptionStatus{}
	if subscription != nil {
		status.Subscription = subscription
		status.IsPaid = subscription.IsActive(time.Now())
	}

	if err := s.cache.SetSubscriptionStatus(ctx, userID, status, statusCacheTTL); err != nil {
		log.Printf("WARN: subscription cache write failed: user=%s err=%v", userID, err)
	}
	return status, nil
}

func (s *subscriptionService) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return s.cache.DeleteSubscriptionStatus(ctx, userID)
}

// Refresh drops the cached entry and repopulates it from the table.
func (s *subscriptionService) Refresh(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.DeleteSubscriptionStatus(ctx, userID); err != nil {
		return err
	}
	_, err := s.Status(ctx, userID)
	return err
}

// ExpireLapsed flips lapsed subscriptions to expired and drops their
// cache entries. Run from the background scheduler.
func (s *subscriptionService) ExpireLapsed(ctx context.Context) (int, error) {
	userIDs, err := s.subscriptionRepo.ExpireLapsed(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	for _, userID := range userIDs {
		if err := s.cache.DeleteSubscriptionStatus(ctx, userID); err != nil {
			log.Printf("WARN: cache invalidation for expired subscription failed: user=%s err=%v", userID, err)
		}
	}
	return len(userIDs), nil
}
