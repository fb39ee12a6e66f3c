package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"opensox/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LedgerRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    LedgerRepository
	userID  uuid.UUID
	context context.Context
}

func (suite *LedgerRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewLedgerRepo(mock)
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *LedgerRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestLedgerRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerRepoTestSuite))
}

func (suite *LedgerRepoTestSuite) fixtures() (*models.Subscription, *models.Payment) {
	now := time.Now()
	subscription := &models.Subscription{
		ID:        uuid.New(),
		UserID:    suite.userID,
		PlanID:    "plan_pro_yearly",
		Status:    models.SubscriptionStatusActive,
		StartDate: now,
		EndDate:   now.AddDate(1, 0, 0),
		AutoRenew: true,
	}
	payment := &models.Payment{
		ID:                uuid.New(),
		UserID:            suite.userID,
		RazorpayPaymentID: "pay_abc123",
		RazorpayOrderID:   "order_abc123",
		Amount:            100,
		Currency:          "INR",
		Status:            models.PaymentStatusCaptured,
	}
	return subscription, payment
}

func (suite *LedgerRepoTestSuite) TestCommitCapture_Success() {
	subscription, payment := suite.fixtures()
	existingSubID := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`INSERT INTO subscriptions`).
		WithArgs(subscription.ID, subscription.UserID, subscription.PlanID, subscription.Status,
			subscription.StartDate, subscription.EndDate, subscription.AutoRenew).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(existingSubID))
	suite.mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.UserID, existingSubID, payment.RazorpayPaymentID,
			payment.RazorpayOrderID, payment.Amount, payment.Currency, payment.Status).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.CommitCapture(suite.context, subscription, payment)

	assert.NoError(suite.T(), err)
	// the payment must reference the subscription row the upsert resolved to
	assert.Equal(suite.T(), existingSubID, subscription.ID)
	assert.Equal(suite.T(), existingSubID, payment.SubscriptionID)
}

func (suite *LedgerRepoTestSuite) TestCommitCapture_PaymentReplayUpdatesNotDuplicates() {
	subscription, payment := suite.fixtures()

	// replayed razorpay_payment_id hits the ON CONFLICT branch: an
	// UPDATE result, not a second insert
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`INSERT INTO subscriptions`).
		WithArgs(subscription.ID, subscription.UserID, subscription.PlanID, subscription.Status,
			subscription.StartDate, subscription.EndDate, subscription.AutoRenew).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(subscription.ID))
	suite.mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.UserID, subscription.ID, payment.RazorpayPaymentID,
			payment.RazorpayOrderID, payment.Amount, payment.Currency, payment.Status).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.CommitCapture(suite.context, subscription, payment)
	assert.NoError(suite.T(), err)
}

func (suite *LedgerRepoTestSuite) TestCommitCapture_PaymentFailureRollsBackSubscription() {
	subscription, payment := suite.fixtures()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`INSERT INTO subscriptions`).
		WithArgs(subscription.ID, subscription.UserID, subscription.PlanID, subscription.Status,
			subscription.StartDate, subscription.EndDate, subscription.AutoRenew).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(subscription.ID))
	suite.mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.UserID, subscription.ID, payment.RazorpayPaymentID,
			payment.RazorpayOrderID, payment.Amount, payment.Currency, payment.Status).
		WillReturnError(errors.New("connection reset"))
	suite.mock.ExpectRollback()

	err := suite.repo.CommitCapture(suite.context, subscription, payment)

	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "failed to upsert payment")
}

func (suite *LedgerRepoTestSuite) TestCommitCapture_BeginFailure() {
	subscription, payment := suite.fixtures()

	suite.mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := suite.repo.CommitCapture(suite.context, subscription, payment)
	assert.Error(suite.T(), err)
}
