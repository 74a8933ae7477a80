package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// xgbDocument is the subset of an XGBoost save_model JSON document we read
type xgbDocument struct {
	Learner xgbLearner `json:"learner"`
}

type xgbLearner struct {
	FeatureNames      []string      `json:"feature_names"`
	GradientBooster   xgbBooster    `json:"gradient_booster"`
	LearnerModelParam xgbModelParam `json:"learner_model_param"`
	Objective         xgbObjective  `json:"objective"`
}

type xgbBooster struct {
	Name  string          `json:"name"`
	Model xgbBoosterModel `json:"model"`
}

type xgbBoosterModel struct {
	Trees []xgbTree `json:"trees"`
}

type xgbModelParam struct {
	BaseScore string `json:"base_score"`
	NumClass  string `json:"num_class"`
}

type xgbObjective struct {
	Name string `json:"name"`
}

type xgbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     flexBools `json:"default_left"`
	SumHessian      []float64 `json:"sum_hessian"`
}

// flexBools accepts both [0,1,...] and [false,true,...]
// (XGBoost 버전에 따라 default_left 표현이 다름)
type flexBools []bool

func (f *flexBools) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, r := range raw {
		switch s := strings.TrimSpace(string(r)); s {
		case "true", "1":
			out[i] = true
		case "false", "0":
			out[i] = false
		default:
			return fmt.Errorf("default_left[%d]: unexpected value %s", i, s)
		}
	}
	*f = out
	return nil
}

// regressionTree is one validated tree in flat node-array form
type regressionTree struct {
	left        []int
	right       []int
	feature     []int
	threshold   []float64 // leaf value at leaves
	defaultLeft []bool
	cover       []float64
}

func (t *regressionTree) isLeaf(node int) bool {
	return t.left[node] < 0
}

// next returns the child x falls into at node
func (t *regressionTree) next(node int, x []float64) int {
	v := x[t.feature[node]]
	if math.IsNaN(v) {
		if t.defaultLeft[node] {
			return t.left[node]
		}
		return t.right[node]
	}
	if v < t.threshold[node] {
		return t.left[node]
	}
	return t.right[node]
}

func (t *regressionTree) leafValue(x []float64) float64 {
	node := 0
	for !t.isLeaf(node) {
		node = t.next(node, x)
	}
	return t.threshold[node]
}

// expectedValue is the cover-weighted mean leaf value
func (t *regressionTree) expectedValue(node int) float64 {
	if t.isLeaf(node) {
		return t.threshold[node]
	}
	l, r := t.left[node], t.right[node]
	if t.cover[node] == 0 {
		return 0
	}
	return (t.cover[l]*t.expectedValue(l) + t.cover[r]*t.expectedValue(r)) / t.cover[node]
}

// TreeEnsemble is a gradient boosted binary:logistic model
type TreeEnsemble struct {
	featureNames []string
	baseMargin   float64
	trees        []*regressionTree
}

// ParseTreeEnsemble decodes an XGBoost JSON model document
func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var doc xgbDocument
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode xgboost model: %w", err)
	}

	l := doc.Learner
	switch l.Objective.Name {
	case "binary:logistic", "reg:logistic":
	default:
		return nil, fmt.Errorf("unsupported objective %q (want binary:logistic)", l.Objective.Name)
	}
	if nc := strings.TrimSpace(l.LearnerModelParam.NumClass); nc != "" && nc != "0" && nc != "1" {
		return nil, fmt.Errorf("multi-class models are not supported (num_class=%s)", nc)
	}
	if name := l.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("unsupported booster %q", name)
	}
	if len(l.FeatureNames) == 0 {
		return nil, fmt.Errorf("model has no feature_names")
	}

	base, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}

	trees := make([]*regressionTree, 0, len(l.GradientBooster.Model.Trees))
	for i, raw := range l.GradientBooster.Model.Trees {
		tree, err := buildTree(raw, len(l.FeatureNames))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, tree)
	}

	return &TreeEnsemble{
		featureNames: append([]string(nil), l.FeatureNames...),
		baseMargin:   logit(base),
		trees:        trees,
	}, nil
}

// parseBaseScore handles "5E-1" and the bracketed "[5E-1]" form of newer releases
func parseBaseScore(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return 0.5, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid base_score %q: %w", s, err)
	}
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("base_score %v outside (0, 1)", v)
	}
	return v, nil
}

func buildTree(raw xgbTree, numFeatures int) (*regressionTree, error) {
	n := len(raw.LeftChildren)
	if n == 0 {
		return nil, fmt.Errorf("empty tree")
	}
	if len(raw.RightChildren) != n || len(raw.SplitIndices) != n ||
		len(raw.SplitConditions) != n || len(raw.SumHessian) != n {
		return nil, fmt.Errorf("node arrays have inconsistent lengths")
	}

	defaultLeft := []bool(raw.DefaultLeft)
	if len(defaultLeft) == 0 {
		defaultLeft = make([]bool, n)
	}
	if len(defaultLeft) != n {
		return nil, fmt.Errorf("default_left has %d entries, want %d", len(defaultLeft), n)
	}

	for node := 0; node < n; node++ {
		l, r := raw.LeftChildren[node], raw.RightChildren[node]
		if l < 0 {
			continue
		}
		// 자식 노드 번호는 항상 부모보다 큼 (순환 방지)
		if l <= node || l >= n || r <= node || r >= n || l == r {
			return nil, fmt.Errorf("node %d has out of range children", node)
		}
		if f := raw.SplitIndices[node]; f < 0 || f >= numFeatures {
			return nil, fmt.Errorf("node %d splits on unknown feature %d", node, f)
		}
	}

	return &regressionTree{
		left:        raw.LeftChildren,
		right:       raw.RightChildren,
		feature:     raw.SplitIndices,
		threshold:   raw.SplitConditions,
		defaultLeft: defaultLeft,
		cover:       raw.SumHessian,
	}, nil
}

// Margin returns the raw log-odds for row
func (m *TreeEnsemble) Margin(row []float64) float64 {
	margin := m.baseMargin
	for _, t := range m.trees {
		margin += t.leafValue(row)
	}
	return margin
}

// ExpectedMargin is the log-odds baseline the attributions are relative to
func (m *TreeEnsemble) ExpectedMargin() float64 {
	total := m.baseMargin
	for _, t := range m.trees {
		total += t.expectedValue(0)
	}
	return total
}

func (m *TreeEnsemble) PredictProba(_ context.Context, row []float64) (float64, error) {
	if len(row) != len(m.featureNames) {
		return 0, fmt.Errorf("row has %d values, model expects %d", len(row), len(m.featureNames))
	}
	return sigmoid(m.Margin(row)), nil
}

func (m *TreeEnsemble) FeatureNames() []string { return m.featureNames }

func (m *TreeEnsemble) Backend() string { return BackendTreeEnsemble }

// NumTrees returns the number of boosted trees
func (m *TreeEnsemble) NumTrees() int { return len(m.trees) }
