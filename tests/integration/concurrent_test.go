package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
	"github.com/tanvo/fraudgate/tests/testutil"
)

func TestConcurrentScoredDeliveries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	testDB.CreateTestAccount(ctx, "ACC-A", mustDecimal(t, "1000"))
	testDB.CreateTestAccount(ctx, "ACC-B", mustDecimal(t, "0"))

	txID := requestTransfer(t, s, "ACC-A", "ACC-B", "250")

	const workers = 8

	var wg sync.WaitGroup
	outcomes := make([]usecase.DecisionOutcome, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = s.DecisionUC.HandleScored(ctx, &domain.ScoredEvent{
				TransactionID: txID,
				Risk:          0.1,
				OccurredAt:    time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	applied := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if outcomes[i].Applied {
			applied++
		}
	}

	if applied != 1 {
		t.Fatalf("expected exactly one worker to apply the ledger, got %d", applied)
	}

	if got := testDB.AccountBalance(ctx, "ACC-A"); !got.Equal(mustDecimal(t, "750")) {
		t.Fatalf("expected origin balance 750, got %s", got)
	}
	if got := testDB.AccountBalance(ctx, "ACC-B"); !got.Equal(mustDecimal(t, "250")) {
		t.Fatalf("expected destination balance 250, got %s", got)
	}
}

func TestConcurrentTransfersFromSameAccount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	testDB.CreateTestAccount(ctx, "ACC-A", mustDecimal(t, "1000"))
	testDB.CreateTestAccount(ctx, "ACC-B", mustDecimal(t, "0"))
	testDB.CreateTestAccount(ctx, "ACC-C", mustDecimal(t, "0"))

	// Both transfers individually fit the balance; together they do not.
	tx1 := requestTransfer(t, s, "ACC-A", "ACC-B", "600")
	tx2 := requestTransfer(t, s, "ACC-A", "ACC-C", "600")

	var wg sync.WaitGroup
	results := make(map[string]usecase.DecisionOutcome, 2)
	var mu sync.Mutex

	for _, txID := range []string{tx1, tx2} {
		wg.Add(1)
		go func(txID string) {
			defer wg.Done()
			outcome, err := s.DecisionUC.HandleScored(ctx, &domain.ScoredEvent{TransactionID: txID, Risk: 0.1})
			if err != nil {
				t.Errorf("HandleScored %s failed: %v", txID, err)
				return
			}
			mu.Lock()
			results[txID] = outcome
			mu.Unlock()
		}(txID)
	}
	wg.Wait()

	applied, demoted := 0, 0
	for _, outcome := range results {
		if outcome.Applied {
			applied++
		}
		if outcome.Demoted {
			demoted++
		}
	}

	if applied != 1 {
		t.Fatalf("expected exactly one applied transfer, got %d", applied)
	}
	if demoted != 1 {
		t.Fatalf("expected the losing transfer to be demoted to review, got %d", demoted)
	}

	if got := testDB.AccountBalance(ctx, "ACC-A"); !got.Equal(mustDecimal(t, "400")) {
		t.Fatalf("expected origin balance 400, got %s", got)
	}
}
