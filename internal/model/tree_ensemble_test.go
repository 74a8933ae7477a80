package model

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

func loadTestEnsemble(t *testing.T) *TreeEnsemble {
	t.Helper()
	data, err := os.ReadFile("testdata/credit_xgb.json")
	require.NoError(t, err)
	m, err := ParseTreeEnsemble(data)
	require.NoError(t, err)
	return m
}

// testRow: LIMIT_BAL 20000, PAY_0 2, credit_utilization 0.5
func testRow() []float64 {
	row := make([]float64, len(contracts.ExpectedFeatures))
	row[0] = 20000
	row[5] = 2
	row[13] = 0.5
	return row
}

func TestParseTreeEnsemble(t *testing.T) {
	m := loadTestEnsemble(t)

	assert.Equal(t, contracts.ExpectedFeatures, m.FeatureNames())
	assert.Equal(t, 2, m.NumTrees())
	assert.Equal(t, BackendTreeEnsemble, m.Backend())
	assert.InDelta(t, 0.0, m.baseMargin, 1e-12, "base_score 0.5 is a zero margin")
}

func TestTreeEnsemble_Predict(t *testing.T) {
	m := loadTestEnsemble(t)

	// 0.3 (tree 0) + 0.2 (tree 1)
	pd, err := m.PredictProba(context.Background(), testRow())
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-0.5)), pd, 1e-12)

	// PAY_0 < 1 → -0.4, LIMIT_BAL >= 50000 → -0.1
	row := testRow()
	row[0], row[5] = 60000, 0
	pd, err = m.PredictProba(context.Background(), row)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(0.5)), pd, 1e-12)

	_, err = m.PredictProba(context.Background(), row[:3])
	assert.Error(t, err)
}

func TestTreeEnsemble_MissingValueDefaultDirection(t *testing.T) {
	m := loadTestEnsemble(t)

	row := testRow()
	row[5] = math.NaN() // root default_left = 1 → leaf -0.4
	assert.InDelta(t, -0.4+0.2, m.Margin(row), 1e-12)
}

func TestTreeEnsemble_KnownAttributions(t *testing.T) {
	m := loadTestEnsemble(t)

	phi, err := NewTreeSHAP(m).Attribute(context.Background(), testRow())
	require.NoError(t, err)

	assert.InDelta(t, 0.18, phi[0], 1e-9)    // LIMIT_BAL
	assert.InDelta(t, 0.525, phi[5], 1e-9)   // PAY_0
	assert.InDelta(t, -0.065, phi[13], 1e-9) // credit_utilization
	assert.InDelta(t, -0.14, m.ExpectedMargin(), 1e-9)
}

func TestParseBaseScore(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"5E-1", 0.5, false},
		{"[2.5E-1]", 0.25, false},
		{"", 0.5, false},
		{"abc", 0, true},
		{"1", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBaseScore(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-12)
	}
}

func TestFlexBools(t *testing.T) {
	var ints, bools flexBools
	require.NoError(t, json.Unmarshal([]byte(`[0,1,0]`), &ints))
	require.NoError(t, json.Unmarshal([]byte(`[false,true,false]`), &bools))
	assert.Equal(t, []bool{false, true, false}, []bool(ints))
	assert.Equal(t, ints, bools)

	var bad flexBools
	assert.Error(t, json.Unmarshal([]byte(`[2]`), &bad))
}

func mutateTestModel(t *testing.T, mutate func(doc map[string]any)) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/credit_xgb.json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	mutate(doc)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func TestParseTreeEnsemble_Rejects(t *testing.T) {
	learner := func(doc map[string]any) map[string]any { return doc["learner"].(map[string]any) }
	firstTree := func(doc map[string]any) map[string]any {
		gb := learner(doc)["gradient_booster"].(map[string]any)
		return gb["model"].(map[string]any)["trees"].([]any)[0].(map[string]any)
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"softmax objective", func(d map[string]any) {
			learner(d)["objective"] = map[string]any{"name": "multi:softprob"}
		}},
		{"multi class", func(d map[string]any) {
			learner(d)["learner_model_param"].(map[string]any)["num_class"] = "3"
		}},
		{"linear booster", func(d map[string]any) {
			learner(d)["gradient_booster"].(map[string]any)["name"] = "gblinear"
		}},
		{"split on unknown feature", func(d map[string]any) {
			firstTree(d)["split_indices"] = []any{99, 0, 13, 0, 0}
		}},
		{"cyclic children", func(d map[string]any) {
			firstTree(d)["left_children"] = []any{0, -1, 3, -1, -1}
		}},
		{"ragged arrays", func(d map[string]any) {
			firstTree(d)["sum_hessian"] = []any{100, 70}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTreeEnsemble(mutateTestModel(t, tt.mutate))
			assert.Error(t, err)
		})
	}
}
