package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

// ErrNotFound is returned when no decision matches
var ErrNotFound = errors.New("decision not found")

// DBTX is the subset of *pgxpool.Pool the repository uses
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS scoring;

	CREATE TABLE IF NOT EXISTS scoring.decisions (
		id                       UUID PRIMARY KEY,
		request_id               TEXT,
		created_at               TIMESTAMPTZ NOT NULL,
		model_version            TEXT NOT NULL,
		policy_id                TEXT NOT NULL,
		policy_hash              TEXT NOT NULL,
		credit_score             INTEGER NOT NULL,
		probability_of_default   DOUBLE PRECISION NOT NULL,
		risk_tier                TEXT NOT NULL,
		recommended_loan_amount  NUMERIC(18, 2) NOT NULL,
		recommended_tenor_months INTEGER NOT NULL,
		currency                 TEXT NOT NULL,
		features                 JSONB NOT NULL,
		explainability           JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS decisions_created_at_idx ON scoring.decisions (created_at DESC);
`

const selectDecision = `
	SELECT id, COALESCE(request_id, ''), created_at, model_version, policy_id, policy_hash,
		credit_score, probability_of_default, risk_tier, recommended_loan_amount::float8,
		recommended_tenor_months, currency, features, explainability
	FROM scoring.decisions
`

// Repository handles decision persistence
// ⭐ SSOT: 심사 결과 저장/조회는 여기서만
type Repository struct {
	db DBTX
}

// NewRepository creates a new audit repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the scoring schema and table if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Save inserts a decision; re-saving the same id is a no-op
func (r *Repository) Save(ctx context.Context, d Decision) error {
	featuresJSON, err := json.Marshal(d.Features)
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}
	explainJSON, err := json.Marshal(d.Explainability)
	if err != nil {
		return fmt.Errorf("failed to marshal explainability: %w", err)
	}

	query := `
		INSERT INTO scoring.decisions (
			id, request_id, created_at, model_version, policy_id, policy_hash,
			credit_score, probability_of_default, risk_tier, recommended_loan_amount,
			recommended_tenor_months, currency, features, explainability
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.db.Exec(ctx, query,
		d.ID, d.RequestID, d.CreatedAt, d.ModelVersion, d.PolicyID, d.PolicyHash,
		d.CreditScore, d.ProbabilityOfDefault, string(d.RiskTier), d.RecommendedLoanAmount,
		d.RecommendedTenorMonths, d.Currency, featuresJSON, explainJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// Get retrieves one decision by id
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Decision, error) {
	d, err := scanDecision(r.db.QueryRow(ctx, selectDecision+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return d, nil
}

// Recent returns the latest decisions, newest first
func (r *Repository) Recent(ctx context.Context, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, selectDecision+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]Decision, 0)
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return decisions, nil
}

// Prune deletes decisions created before cutoff and returns how many were removed
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM scoring.decisions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune decisions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanDecision(row pgx.Row) (*Decision, error) {
	var d Decision
	var tier string
	var featuresJSON, explainJSON []byte

	err := row.Scan(
		&d.ID, &d.RequestID, &d.CreatedAt, &d.ModelVersion, &d.PolicyID, &d.PolicyHash,
		&d.CreditScore, &d.ProbabilityOfDefault, &tier, &d.RecommendedLoanAmount,
		&d.RecommendedTenorMonths, &d.Currency, &featuresJSON, &explainJSON,
	)
	if err != nil {
		return nil, err
	}
	d.RiskTier = contracts.RiskTier(tier)

	if err := json.Unmarshal(featuresJSON, &d.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}
	if err := json.Unmarshal(explainJSON, &d.Explainability); err != nil {
		return nil, fmt.Errorf("failed to unmarshal explainability: %w", err)
	}
	return &d, nil
}
