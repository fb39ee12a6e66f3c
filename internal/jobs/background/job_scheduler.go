package background

import (
	"context"
	"log"
	"time"

	"opensox/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages the periodic maintenance jobs: expiring lapsed
// subscriptions and keeping the receipt bucket provisioned.
type JobScheduler struct {
	scheduler           gocron.Scheduler
	subscriptionService services.SubscriptionService
	receiptService      services.ReceiptService
	storage             services.ObjectStorageService
	jobs                map[string]gocron.Job
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(
	subscriptionService services.SubscriptionService,
	receiptService services.ReceiptService,
	storage services.ObjectStorageService,
) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:           scheduler,
		subscriptionService: subscriptionService,
		receiptService:      receiptService,
		storage:             storage,
		jobs:                make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Subscription expiry sweep - every hour. Singleton so overlapping
	// sweeps never race the same rows.
	expiryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.expireLapsedSubscriptions, context.Background()),
		gocron.WithName("subscription-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create subscription expiry job: %v", err)
	} else {
		js.jobs["subscription-expiry"] = expiryJob
	}

	// Receipt bucket check - daily
	bucketJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.ensureReceiptBucket, context.Background()),
		gocron.WithName("receipt-bucket-check"),
	)
	if err != nil {
		log.Printf("Failed to create receipt bucket job: %v", err)
	} else {
		js.jobs["receipt-bucket"] = bucketJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// expireLapsedSubscriptions flips subscriptions whose end date has
// passed and drops their cached status.
func (js *JobScheduler) expireLapsedSubscriptions(ctx context.Context) error {
	log.Printf("Starting subscription expiry sweep")

	count, err := js.subscriptionService.ExpireLapsed(ctx)
	if err != nil {
		log.Printf("Subscription expiry sweep failed: %v", err)
		return err
	}

	log.Printf("Subscription expiry sweep completed: %d subscriptions expired", count)
	return nil
}

// ensureReceiptBucket keeps the receipt bucket provisioned so receipt
// generation never fails on a missing bucket.
func (js *JobScheduler) ensureReceiptBucket(ctx context.Context) error {
	if js.storage == nil {
		return nil
	}
	if err := js.storage.EnsureBucketExists(ctx, js.receiptService.BucketName()); err != nil {
		log.Printf("Receipt bucket check failed: %v", err)
		return err
	}
	return nil
}
