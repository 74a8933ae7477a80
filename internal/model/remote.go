package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wonny/sycamore/backend/pkg/httputil"
)

// RemoteMetadata is the model server's GET /metadata response
type RemoteMetadata struct {
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	HasExplainer bool     `json:"has_explainer"`
}

type remoteRequest struct {
	FeatureNames []string  `json:"feature_names"`
	Features     []float64 `json:"features"`
}

type remotePrediction struct {
	ProbabilityOfDefault *float64 `json:"probability_of_default"`
}

type remoteExplanation struct {
	ShapValues json.RawMessage `json:"shap_values"`
}

// Remote delegates inference to an HTTP model server
type Remote struct {
	baseURL string
	client  *httputil.Client
	meta    RemoteMetadata
}

// DialRemote fetches the server metadata and returns a ready classifier
func DialRemote(ctx context.Context, client *httputil.Client, baseURL string) (*Remote, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	var meta RemoteMetadata
	if err := client.GetJSON(ctx, baseURL+"/metadata", &meta); err != nil {
		return nil, fmt.Errorf("fetch model metadata: %w", err)
	}
	if len(meta.FeatureNames) == 0 {
		return nil, fmt.Errorf("model server reported no feature_names")
	}

	return &Remote{baseURL: baseURL, client: client, meta: meta}, nil
}

func (m *Remote) PredictProba(ctx context.Context, row []float64) (float64, error) {
	var out remotePrediction
	req := remoteRequest{FeatureNames: m.meta.FeatureNames, Features: row}
	if err := m.client.PostJSONInto(ctx, m.baseURL+"/predict", req, &out); err != nil {
		return 0, err
	}
	if out.ProbabilityOfDefault == nil {
		return 0, fmt.Errorf("model server response has no probability_of_default")
	}
	return *out.ProbabilityOfDefault, nil
}

func (m *Remote) FeatureNames() []string { return m.meta.FeatureNames }

func (m *Remote) Backend() string { return BackendRemote }

// Metadata returns what the server reported at dial time
func (m *Remote) Metadata() RemoteMetadata { return m.meta }

// Attribute calls POST /explain.
// 서버가 클래스별 배열 [[neg...],[pos...]]을 주면 양성 클래스만 사용
func (m *Remote) Attribute(ctx context.Context, row []float64) ([]float64, error) {
	var out remoteExplanation
	req := remoteRequest{FeatureNames: m.meta.FeatureNames, Features: row}
	if err := m.client.PostJSONInto(ctx, m.baseURL+"/explain", req, &out); err != nil {
		return nil, err
	}
	return positiveClass(out.ShapValues)
}

// positiveClass reduces flat, per-class, per-sample or per-class-per-sample
// attribution payloads to a single vector for the positive class
func positiveClass(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty attribution payload")
	}

	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err != nil {
		return perClassSamples(raw)
	}
	switch len(nested) {
	case 0:
		return nil, fmt.Errorf("empty attribution payload")
	case 1:
		// 단일 샘플
		return nested[0], nil
	default:
		return nested[len(nested)-1], nil
	}
}

// perClassSamples handles [class][sample][feature]; one row was sent, so the
// positive class's first sample is the answer
func perClassSamples(raw json.RawMessage) ([]float64, error) {
	var cube [][][]float64
	if err := json.Unmarshal(raw, &cube); err != nil {
		return nil, fmt.Errorf("unrecognised attribution payload: %w", err)
	}
	if len(cube) == 0 {
		return nil, fmt.Errorf("empty attribution payload")
	}
	positive := cube[len(cube)-1]
	if len(positive) == 0 {
		return nil, fmt.Errorf("attribution payload has no samples")
	}
	return positive[0], nil
}
