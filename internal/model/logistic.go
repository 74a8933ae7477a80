package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// FormatLogistic is the "format" tag of a logistic model artifact
const FormatLogistic = "logistic"

type logisticDocument struct {
	Format       string    `json:"format"`
	FeatureNames []string  `json:"feature_names"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Logistic is a linear log-odds model
type Logistic struct {
	featureNames []string
	intercept    float64
	coef         []float64
}

// ParseLogistic decodes a logistic model artifact
func ParseLogistic(data []byte) (*Logistic, error) {
	var doc logisticDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode logistic model: %w", err)
	}
	if doc.Format != FormatLogistic {
		return nil, fmt.Errorf("format %q is not %s", doc.Format, FormatLogistic)
	}
	if len(doc.FeatureNames) == 0 {
		return nil, fmt.Errorf("model has no feature_names")
	}
	if len(doc.Coefficients) != len(doc.FeatureNames) {
		return nil, fmt.Errorf("%d coefficients for %d features", len(doc.Coefficients), len(doc.FeatureNames))
	}
	for i, c := range doc.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %s is not finite", doc.FeatureNames[i])
		}
	}

	return &Logistic{
		featureNames: doc.FeatureNames,
		intercept:    doc.Intercept,
		coef:         doc.Coefficients,
	}, nil
}

// NewLogistic builds a logistic model directly (tests, tooling)
func NewLogistic(featureNames []string, intercept float64, coef []float64) *Logistic {
	return &Logistic{featureNames: featureNames, intercept: intercept, coef: coef}
}

func (m *Logistic) PredictProba(_ context.Context, row []float64) (float64, error) {
	if len(row) != len(m.coef) {
		return 0, fmt.Errorf("row has %d values, model expects %d", len(row), len(m.coef))
	}
	z := m.intercept
	for i, x := range row {
		z += m.coef[i] * x
	}
	return sigmoid(z), nil
}

func (m *Logistic) FeatureNames() []string { return m.featureNames }

func (m *Logistic) Backend() string { return BackendLogistic }

// LinearAttributor explains a logistic model as coef·(x − mean)
type LinearAttributor struct {
	coef  []float64
	means []float64
}

// NewLinearAttributor aligns the artifact's feature means to the model order.
// Features without a recorded mean use 0.
func NewLinearAttributor(m *Logistic, means map[string]float64) *LinearAttributor {
	aligned := make([]float64, len(m.featureNames))
	for i, name := range m.featureNames {
		aligned[i] = means[name]
	}
	return &LinearAttributor{coef: m.coef, means: aligned}
}

func (a *LinearAttributor) Attribute(_ context.Context, row []float64) ([]float64, error) {
	if len(row) != len(a.coef) {
		return nil, fmt.Errorf("row has %d values, model expects %d", len(row), len(a.coef))
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = a.coef[i] * (x - a.means[i])
	}
	return out, nil
}
