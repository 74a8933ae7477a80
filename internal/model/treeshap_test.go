package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stumpEnsemble() *TreeEnsemble {
	return &TreeEnsemble{
		featureNames: []string{"x0", "x1"},
		trees: []*regressionTree{{
			left:        []int{1, -1, -1},
			right:       []int{2, -1, -1},
			feature:     []int{0, 0, 0},
			threshold:   []float64{0.5, -1, 1},
			defaultLeft: []bool{false, false, false},
			cover:       []float64{100, 50, 50},
		}},
	}
}

// 같은 피처로 두 번 분기하는 트리
func repeatedSplitEnsemble() *TreeEnsemble {
	return &TreeEnsemble{
		featureNames: []string{"x0", "x1"},
		trees: []*regressionTree{{
			left:        []int{1, 3, 5, -1, -1, -1, -1},
			right:       []int{2, 4, 6, -1, -1, -1, -1},
			feature:     []int{0, 0, 1, 0, 0, 0, 0},
			threshold:   []float64{5, 2, 3, 1.0, -2.0, 0.5, 3.0},
			defaultLeft: make([]bool, 7),
			cover:       []float64{100, 60, 40, 25, 35, 10, 30},
		}},
	}
}

func TestTreeSHAP_Stump(t *testing.T) {
	m := stumpEnsemble()

	phi, err := NewTreeSHAP(m).Attribute(context.Background(), []float64{0, 7})
	require.NoError(t, err)

	assert.InDelta(t, -1.0, phi[0], 1e-12)
	assert.Equal(t, 0.0, phi[1], "unused feature gets no credit")
	assert.InDelta(t, 0.0, m.ExpectedMargin(), 1e-12)
}

func TestTreeSHAP_RepeatedFeature(t *testing.T) {
	m := repeatedSplitEnsemble()
	shap := NewTreeSHAP(m)

	tests := []struct {
		row  []float64
		want []float64
	}{
		{[]float64{1, 0}, []float64{0.875, -0.375}},
		{[]float64{3, 0}, []float64{-2.125, -0.375}},
		{[]float64{7, 1}, []float64{1.3125, -1.3125}},
		{[]float64{7, 9}, []float64{2.0625, 0.4375}},
	}

	for _, tt := range tests {
		phi, err := shap.Attribute(context.Background(), tt.row)
		require.NoError(t, err)
		assert.InDeltaSlice(t, tt.want, phi, 1e-9)
	}
}

func TestTreeSHAP_Additivity(t *testing.T) {
	for _, m := range []*TreeEnsemble{stumpEnsemble(), repeatedSplitEnsemble(), loadTestEnsemble(t)} {
		shap := NewTreeSHAP(m)
		for _, row := range sampleRows(len(m.featureNames)) {
			phi, err := shap.Attribute(context.Background(), row)
			require.NoError(t, err)

			total := m.ExpectedMargin()
			for _, v := range phi {
				total += v
			}
			assert.InDelta(t, m.Margin(row), total, 1e-9)
		}
	}
}

func TestTreeSHAP_RowLength(t *testing.T) {
	_, err := NewTreeSHAP(stumpEnsemble()).Attribute(context.Background(), []float64{1})
	assert.Error(t, err)
}

func sampleRows(n int) [][]float64 {
	rows := make([][]float64, 0, 4)
	for k := 0; k < 4; k++ {
		row := make([]float64, n)
		for i := range row {
			row[i] = float64((k*7+i*3)%11) - 2
		}
		rows = append(rows, row)
	}
	// 테스트용 모델의 분기 지점 부근
	if n == 18 {
		rows[0][0], rows[0][5], rows[0][13] = 20000, 2, 0.5
		rows[1][0], rows[1][5], rows[1][13] = 80000, 0, 1.1
	}
	return rows
}
