package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

type memoryStore struct {
	mu    sync.Mutex
	saved []Decision
	err   error
}

func (m *memoryStore) Save(_ context.Context, d Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, d)
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func sampleResult() *contracts.ScoringResult {
	return &contracts.ScoringResult{
		CreditScore:            90,
		ProbabilityOfDefault:   0.1,
		RiskTier:               contracts.RiskTierLow,
		RecommendedLoanAmount:  15000,
		RecommendedTenorMonths: 36,
		Currency:               "NGN",
		Explainability:         contracts.EmptyExplainability(),
		DerivedFeatures:        map[string]float64{"LIMIT_BAL": 10000},
		ModelVersion:           "3f2a9c1b7d4e",
	}
}

func TestNewDecision(t *testing.T) {
	d := NewDecision(sampleResult(), "req-1", PolicyRef{ID: "sycamore_default", Hash: "abc"})

	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, "req-1", d.RequestID)
	assert.Equal(t, "3f2a9c1b7d4e", d.ModelVersion)
	assert.Equal(t, "abc", d.PolicyHash)
	assert.Equal(t, contracts.RiskTierLow, d.RiskTier)
	assert.Equal(t, 10000.0, d.Features["LIMIT_BAL"])
	assert.False(t, d.CreatedAt.IsZero())

	other := NewDecision(sampleResult(), "req-1", PolicyRef{})
	assert.NotEqual(t, d.ID, other.ID)
}

func TestRecorder_WritesAndDrainsOnShutdown(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	rec.Start(ctx)

	for i := 0; i < 10; i++ {
		rec.Submit(NewDecision(sampleResult(), "", PolicyRef{}))
	}

	cancel()
	rec.Wait()

	assert.Equal(t, 10, store.count())
	assert.Equal(t, 0, rec.Dropped())
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, 2, nil) // 시작하지 않음 → 큐만 참

	for i := 0; i < 5; i++ {
		rec.Submit(NewDecision(sampleResult(), "", PolicyRef{}))
	}
	assert.Equal(t, 3, rec.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Start(ctx)
	rec.Wait()
	assert.Equal(t, 2, store.count())
}

func TestRecorder_StoreErrorIsLoggedOnly(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	rec := NewRecorder(store, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	rec.Start(ctx)
	rec.Submit(NewDecision(sampleResult(), "", PolicyRef{}))
	cancel()
	rec.Wait()

	require.Equal(t, 0, store.count())
}
