package integration

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/tanvo/fraudgate/internal/adapter/http"
	"github.com/tanvo/fraudgate/internal/adapter/http/handler"
	"github.com/tanvo/fraudgate/internal/adapter/repository/postgres"
	"github.com/tanvo/fraudgate/internal/usecase"
	"github.com/tanvo/fraudgate/internal/usecase/mocks"
	"github.com/tanvo/fraudgate/tests/testutil"
)

// stack bundles the wiring the integration tests exercise. The event
// producer is in-memory so the tests only need PostgreSQL.
type stack struct {
	Router     http.Handler
	IntakeUC   *usecase.IntakeUseCase
	DecisionUC *usecase.DecisionUseCase
	ReviewUC   *usecase.ReviewUseCase
	TimeoutUC  *usecase.TimeoutUseCase
	OutboxRepo *postgres.OutboxRepository
	Producer   *mocks.MockEventProducer
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func newStack(t *testing.T, testDB *testutil.TestDB) *stack {
	t.Helper()

	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier(zerolog.Nop())
	producer := mocks.NewMockEventProducer()

	intakeUC := usecase.NewIntakeUseCase(txManager, accountRepo, txnRepo, outboxRepo, idGen)
	decisionUC := usecase.NewDecisionUseCase(txManager, retrier, accountRepo, txnRepo, producer, idGen, 0.3, 0.8)
	reviewUC := usecase.NewReviewUseCase(txManager, retrier, accountRepo, txnRepo, producer, idGen)
	timeoutUC := usecase.NewTimeoutUseCase(txnRepo, producer, idGen)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(intakeUC, reviewUC, nil),
		AccountHandler:     handler.NewAccountHandler(accountUC, nil),
		HealthHandler:      &handler.HealthHandler{},
		Logger:             zerolog.Nop(),
	})

	return &stack{
		Router:     router,
		IntakeUC:   intakeUC,
		DecisionUC: decisionUC,
		ReviewUC:   reviewUC,
		TimeoutUC:  timeoutUC,
		OutboxRepo: outboxRepo,
		Producer:   producer,
	}
}
