package model

import (
	"context"
	"math"
)

// Backend names
const (
	BackendTreeEnsemble = "tree_ensemble"
	BackendLogistic     = "logistic"
	BackendRemote       = "remote"
)

// Classifier is the single inference surface every backend implements.
// Rows are already aligned to FeatureNames() and fully numeric.
type Classifier interface {
	PredictProba(ctx context.Context, row []float64) (float64, error)
	FeatureNames() []string
	Backend() string
}

// Attributor returns one signed log-odds contribution per feature of row
type Attributor interface {
	Attribute(ctx context.Context, row []float64) ([]float64, error)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
