package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/policy"
)

// Info describes the loaded model
type Info struct {
	Backend       string    `json:"backend"`
	Version       string    `json:"version"`
	ModelPath     string    `json:"model_path"`
	ExplainerPath string    `json:"explainer_path,omitempty"`
	HasExplainer  bool      `json:"has_explainer"`
	ExplainMethod string    `json:"explain_method,omitempty"`
	FeatureCount  int       `json:"feature_count"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Adapter is an immutable model + optional explainer pair.
// ⭐ SSOT: 피처 정렬/수치 변환은 여기서만
type Adapter struct {
	classifier Classifier
	attributor Attributor
	missing    string
	info       Info
}

// NewAdapter validates that the classifier's feature order is the canonical one.
// attributor may be nil.
func NewAdapter(c Classifier, a Attributor, missingPolicy string, info Info) (*Adapter, error) {
	if err := checkFeatureOrder(c.FeatureNames()); err != nil {
		return nil, err
	}
	if missingPolicy == "" {
		missingPolicy = policy.MissingZeroFill
	}
	if missingPolicy != policy.MissingZeroFill && missingPolicy != policy.MissingStrict {
		return nil, fmt.Errorf("unknown missing feature policy %q", missingPolicy)
	}

	info.Backend = c.Backend()
	info.HasExplainer = a != nil
	info.FeatureCount = len(c.FeatureNames())
	if info.LoadedAt.IsZero() {
		info.LoadedAt = time.Now().UTC()
	}

	return &Adapter{classifier: c, attributor: a, missing: missingPolicy, info: info}, nil
}

// checkFeatureOrder rejects artifacts whose columns differ from ExpectedFeatures
func checkFeatureOrder(names []string) error {
	expected := contracts.ExpectedFeatures
	if len(names) != len(expected) {
		return contracts.NewValidationError("feature_names",
			fmt.Sprintf("model has %d features, expected %d", len(names), len(expected)))
	}
	for i, name := range names {
		if name != expected[i] {
			return contracts.NewValidationError("feature_names",
				fmt.Sprintf("position %d is %q, expected %q", i, name, expected[i]))
		}
	}
	return nil
}

// Align reindexes vector to the model's feature order and coerces every value.
// Non-numeric, NaN and ±Inf become 0; missing keys follow the alignment policy.
func (a *Adapter) Align(vector map[string]any) ([]float64, error) {
	names := a.classifier.FeatureNames()
	row := make([]float64, len(names))

	var missing []string
	for i, name := range names {
		v, ok := vector[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if f, ok := contracts.ToFloat64(v); ok {
			row[i] = f
		}
	}

	if len(missing) > 0 && a.missing == policy.MissingStrict {
		return nil, contracts.MissingFeaturesError(missing)
	}
	return row, nil
}

// Predict returns P(default) for one feature mapping
func (a *Adapter) Predict(ctx context.Context, vector map[string]any) (float64, error) {
	row, err := a.Align(vector)
	if err != nil {
		return 0, err
	}

	pd, err := a.classifier.PredictProba(ctx, row)
	if err != nil {
		return 0, &contracts.InferenceError{Backend: a.info.Backend, Err: err}
	}
	if math.IsNaN(pd) || pd < 0 || pd > 1 {
		return 0, &contracts.InferenceError{
			Backend: a.info.Backend,
			Err:     fmt.Errorf("probability %v outside [0, 1]", pd),
		}
	}
	return pd, nil
}

// Attribute returns per-feature contributions in FeatureNames() order
func (a *Adapter) Attribute(ctx context.Context, vector map[string]any) ([]float64, error) {
	if a.attributor == nil {
		return nil, &contracts.ExplainabilityError{Reason: "no explainer loaded"}
	}

	row, err := a.Align(vector)
	if err != nil {
		return nil, &contracts.ExplainabilityError{Reason: "alignment", Err: err}
	}

	values, err := a.attributor.Attribute(ctx, row)
	if err != nil {
		return nil, &contracts.ExplainabilityError{Reason: "attribution failed", Err: err}
	}
	if len(values) != len(row) {
		return nil, &contracts.ExplainabilityError{
			Reason: fmt.Sprintf("attribution has %d values for %d features", len(values), len(row)),
		}
	}
	return values, nil
}

// FeatureNames returns the model column order
func (a *Adapter) FeatureNames() []string {
	return a.classifier.FeatureNames()
}

// HasExplainer reports whether attributions are available
func (a *Adapter) HasExplainer() bool {
	return a.attributor != nil
}

// Info returns a copy of the adapter metadata
func (a *Adapter) Info() Info {
	return a.info
}
