package explain

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/policy"
)

// DefaultTopN is the number of factors per direction
const DefaultTopN = 3

// Attributable is the part of a model adapter the explainer needs
type Attributable interface {
	Attribute(ctx context.Context, vector map[string]any) ([]float64, error)
	FeatureNames() []string
}

// Explainer turns raw attributions into ranked, labelled factors.
// 설명 실패는 예측을 절대 막지 않음 (빈 목록 + 로깅용 에러)
type Explainer struct {
	topN   int
	labels *Labeler
}

// New creates an explainer from the policy section
func New(cfg policy.Explainability) *Explainer {
	topN := cfg.TopN
	if topN < 1 {
		topN = DefaultTopN
	}
	return &Explainer{topN: topN, labels: NewLabeler(cfg.Labels)}
}

// Explain returns the ranked factors for vector. On any attribution failure
// the result is empty lists and a non-nil *contracts.ExplainabilityError.
func (e *Explainer) Explain(ctx context.Context, model Attributable, vector map[string]any) (contracts.Explainability, error) {
	values, err := attribute(ctx, model, vector)
	if err != nil {
		return contracts.EmptyExplainability(), err
	}

	names := model.FeatureNames()
	if len(values) != len(names) {
		return contracts.EmptyExplainability(), &contracts.ExplainabilityError{
			Reason: fmt.Sprintf("got %d attributions for %d features", len(values), len(names)),
		}
	}

	return e.Rank(names, values), nil
}

// attribute is the only place panics are recovered
func attribute(ctx context.Context, model Attributable, vector map[string]any) (values []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = &contracts.ExplainabilityError{Reason: fmt.Sprintf("attributor panic: %v", r)}
		}
	}()

	values, err = model.Attribute(ctx, vector)
	if err != nil {
		var explainErr *contracts.ExplainabilityError
		if !errors.As(err, &explainErr) {
			err = &contracts.ExplainabilityError{Reason: "attribution failed", Err: err}
		}
		return nil, err
	}
	return values, nil
}

type contribution struct {
	name  string
	value float64
}

// Rank keeps up to topN positive contributions (largest first) and up to topN
// negative ones (most negative first). Zeros are dropped; ties go by name.
func (e *Explainer) Rank(names []string, values []float64) contracts.Explainability {
	var pos, neg []contribution
	for i, v := range values {
		switch {
		case v > 0:
			pos = append(pos, contribution{names[i], v})
		case v < 0:
			neg = append(neg, contribution{names[i], v})
		}
	}

	sort.Slice(pos, func(i, j int) bool {
		if pos[i].value != pos[j].value {
			return pos[i].value > pos[j].value
		}
		return pos[i].name < pos[j].name
	})
	sort.Slice(neg, func(i, j int) bool {
		if neg[i].value != neg[j].value {
			return neg[i].value < neg[j].value
		}
		return neg[i].name < neg[j].name
	})

	return contracts.Explainability{
		TopPositiveFactors: e.factors(pos),
		TopNegativeFactors: e.factors(neg),
	}
}

func (e *Explainer) factors(list []contribution) []contracts.Factor {
	if len(list) > e.topN {
		list = list[:e.topN]
	}
	out := make([]contracts.Factor, 0, len(list))
	for _, c := range list {
		out = append(out, contracts.Factor{Feature: e.labels.Label(c.name), Impact: c.value})
	}
	return out
}
