package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Explanation methods recorded in the explainer artifact
const (
	MethodTreePathDependent = "tree_path_dependent"
	MethodLinear            = "linear"
	MethodRemote            = "remote"
)

// ExplainerArtifact is the optional sidecar that enables attributions
type ExplainerArtifact struct {
	Method       string             `json:"method"`
	FeatureMeans map[string]float64 `json:"feature_means,omitempty"`
}

// ParseClassifier detects the artifact format and decodes it.
// XGBoost documents carry a "learner" object, logistic ones a "format" tag.
func ParseClassifier(data []byte) (Classifier, error) {
	var probe struct {
		Format  string          `json:"format"`
		Learner json.RawMessage `json:"learner"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("model artifact is not JSON: %w", err)
	}

	switch {
	case len(probe.Learner) > 0:
		return ParseTreeEnsemble(data)
	case probe.Format == FormatLogistic:
		return ParseLogistic(data)
	default:
		return nil, fmt.Errorf("unrecognised model artifact (neither xgboost nor %s)", FormatLogistic)
	}
}

// ParseExplainerArtifact decodes the explainer sidecar
func ParseExplainerArtifact(data []byte) (*ExplainerArtifact, error) {
	var art ExplainerArtifact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&art); err != nil {
		return nil, fmt.Errorf("decode explainer artifact: %w", err)
	}
	switch art.Method {
	case MethodTreePathDependent, MethodLinear, MethodRemote:
	default:
		return nil, fmt.Errorf("unknown explainer method %q", art.Method)
	}
	return &art, nil
}

// NewAttributor pairs an explainer artifact with the classifier it explains
func NewAttributor(c Classifier, art *ExplainerArtifact) (Attributor, error) {
	switch art.Method {
	case MethodTreePathDependent:
		tree, ok := c.(*TreeEnsemble)
		if !ok {
			return nil, fmt.Errorf("%s explainer needs a tree ensemble, model is %s", art.Method, c.Backend())
		}
		return NewTreeSHAP(tree), nil
	case MethodLinear:
		lin, ok := c.(*Logistic)
		if !ok {
			return nil, fmt.Errorf("%s explainer needs a logistic model, model is %s", art.Method, c.Backend())
		}
		return NewLinearAttributor(lin, art.FeatureMeans), nil
	case MethodRemote:
		remote, ok := c.(*Remote)
		if !ok {
			return nil, fmt.Errorf("%s explainer needs a remote model, model is %s", art.Method, c.Backend())
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown explainer method %q", art.Method)
	}
}
