package model

import (
	"context"
	"fmt"
)

// TreeSHAP computes exact path-dependent Shapley values over node covers.
// 결과는 log-odds 단위: sum(phi) + ExpectedMargin() == Margin(row)
type TreeSHAP struct {
	model *TreeEnsemble
}

// NewTreeSHAP creates an attributor for a tree ensemble
func NewTreeSHAP(m *TreeEnsemble) *TreeSHAP {
	return &TreeSHAP{model: m}
}

func (s *TreeSHAP) Attribute(_ context.Context, row []float64) ([]float64, error) {
	if len(row) != len(s.model.featureNames) {
		return nil, fmt.Errorf("row has %d values, model expects %d", len(row), len(s.model.featureNames))
	}

	phi := make([]float64, len(row))
	for _, t := range s.model.trees {
		t.shap(row, phi, 0, nil, 0, 1, 1, -1)
	}
	return phi, nil
}

// pathElement tracks one feature on the decision path
type pathElement struct {
	featureIndex int
	zeroFraction float64
	oneFraction  float64
	pweight      float64
}

func (t *regressionTree) shap(x, phi []float64, node int, parent []pathElement, depth int, zeroFraction, oneFraction float64, featureIndex int) {
	path := make([]pathElement, depth+1)
	copy(path, parent)
	extendPath(path, depth, zeroFraction, oneFraction, featureIndex)

	if t.isLeaf(node) {
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			phi[el.featureIndex] += w * (el.oneFraction - el.zeroFraction) * t.threshold[node]
		}
		return
	}

	hot := t.next(node, x)
	cold := t.right[node]
	if hot == cold {
		cold = t.left[node]
	}

	w := t.cover[node]
	hotZero, coldZero := 0.0, 0.0
	if w > 0 {
		hotZero = t.cover[hot] / w
		coldZero = t.cover[cold] / w
	}

	incomingZero, incomingOne := 1.0, 1.0
	split := t.feature[node]

	// 같은 피처로 이미 분기했다면 경로에서 제거 후 분수 누적
	pathIndex := 0
	for ; pathIndex <= depth; pathIndex++ {
		if path[pathIndex].featureIndex == split {
			break
		}
	}
	if pathIndex != depth+1 {
		incomingZero = path[pathIndex].zeroFraction
		incomingOne = path[pathIndex].oneFraction
		unwindPath(path, depth, pathIndex)
		depth--
	}

	t.shap(x, phi, hot, path, depth+1, hotZero*incomingZero, incomingOne, split)
	t.shap(x, phi, cold, path, depth+1, coldZero*incomingZero, 0, split)
}

func extendPath(path []pathElement, depth int, zeroFraction, oneFraction float64, featureIndex int) {
	pw := 0.0
	if depth == 0 {
		pw = 1
	}
	path[depth] = pathElement{
		featureIndex: featureIndex,
		zeroFraction: zeroFraction,
		oneFraction:  oneFraction,
		pweight:      pw,
	}

	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		path[i+1].pweight += oneFraction * path[i].pweight * float64(i+1) / d
		path[i].pweight = zeroFraction * path[i].pweight * float64(depth-i) / d
	}
}

func unwindPath(path []pathElement, depth, pathIndex int) {
	one := path[pathIndex].oneFraction
	zero := path[pathIndex].zeroFraction
	next := path[depth].pweight
	d := float64(depth + 1)

	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].pweight
			path[i].pweight = next * d / (float64(i+1) * one)
			next = tmp - path[i].pweight*zero*float64(depth-i)/d
		} else {
			path[i].pweight = path[i].pweight * d / (zero * float64(depth-i))
		}
	}

	for i := pathIndex; i < depth; i++ {
		path[i].featureIndex = path[i+1].featureIndex
		path[i].zeroFraction = path[i+1].zeroFraction
		path[i].oneFraction = path[i+1].oneFraction
	}
}

func unwoundPathSum(path []pathElement, depth, pathIndex int) float64 {
	one := path[pathIndex].oneFraction
	zero := path[pathIndex].zeroFraction
	next := path[depth].pweight
	d := float64(depth + 1)
	total := 0.0

	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * d / (float64(i+1) * one)
			total += tmp
			next = path[i].pweight - tmp*zero*float64(depth-i)/d
		} else if zero != 0 {
			total += path[i].pweight / zero / (float64(depth-i) / d)
		}
	}
	return total
}
