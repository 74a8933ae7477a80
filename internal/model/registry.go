package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/pkg/httputil"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// Source kinds
const (
	SourceFile   = "file"
	SourceRemote = "remote"
)

// Options configures how the registry builds adapters
type Options struct {
	Source          string // file, remote
	MissingFeatures string // zero_fill, strict

	// Client is required for the remote source
	Client *httputil.Client

	// OnLoad is called after every successful publish
	OnLoad func(Info)
}

// Registry holds the current adapter and swaps it atomically on reload
// ⭐ SSOT: 요청 처리 중에는 Current()로 스냅샷 1개만 사용
type Registry struct {
	opts    Options
	log     *logger.Logger
	current atomic.Pointer[Adapter]

	mu            sync.Mutex // Load/Reload 직렬화
	modelPath     string
	explainerPath string
}

// NewRegistry creates an empty registry (nothing loaded yet)
func NewRegistry(opts Options, log *logger.Logger) *Registry {
	if opts.Source == "" {
		opts.Source = SourceFile
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{opts: opts, log: log.Component("model")}
}

// Load builds an adapter from modelPath (a file, or the server base URL for
// the remote source) and the optional explainer artifact, then publishes it.
// Returns false, nil when the model artifact does not exist.
func (r *Registry) Load(ctx context.Context, modelPath, explainerPath string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modelPath = modelPath
	r.explainerPath = explainerPath
	return r.loadLocked(ctx)
}

// Reload rebuilds from the last loaded paths. A failed reload keeps the
// previous adapter in place.
func (r *Registry) Reload(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.modelPath == "" {
		return false, &contracts.ModelUnavailableError{Reason: "no model path configured"}
	}
	return r.loadLocked(ctx)
}

func (r *Registry) loadLocked(ctx context.Context) (bool, error) {
	start := time.Now()

	adapter, err := r.build(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.WithField("model_path", r.modelPath).Warn("Model artifact not found")
		return false, nil
	}
	if err != nil {
		r.log.WithError(err).WithField("model_path", r.modelPath).Error("Model load failed")
		return false, err
	}

	r.Publish(adapter)

	info := adapter.Info()
	r.log.WithFields(map[string]interface{}{
		"backend":       info.Backend,
		"version":       info.Version,
		"has_explainer": info.HasExplainer,
		"duration":      time.Since(start).String(),
	}).Info("Model loaded")
	return true, nil
}

// Publish swaps in a ready adapter
func (r *Registry) Publish(a *Adapter) {
	r.current.Store(a)
	if r.opts.OnLoad != nil {
		r.opts.OnLoad(a.Info())
	}
}

// Current returns the adapter snapshot for one request
func (r *Registry) Current() (*Adapter, error) {
	a := r.current.Load()
	if a == nil {
		return nil, &contracts.ModelUnavailableError{}
	}
	return a, nil
}

// Loaded reports whether any adapter has been published
func (r *Registry) Loaded() bool {
	return r.current.Load() != nil
}

// Predict is a convenience for a single call against the current adapter
func (r *Registry) Predict(ctx context.Context, vector map[string]any) (float64, error) {
	a, err := r.Current()
	if err != nil {
		return 0, err
	}
	return a.Predict(ctx, vector)
}

func (r *Registry) build(ctx context.Context) (*Adapter, error) {
	switch r.opts.Source {
	case SourceFile:
		return r.buildFromFile()
	case SourceRemote:
		return r.buildRemote(ctx)
	default:
		return nil, fmt.Errorf("unknown model source %q", r.opts.Source)
	}
}

func (r *Registry) buildFromFile() (*Adapter, error) {
	data, err := os.ReadFile(r.modelPath)
	if err != nil {
		return nil, err
	}

	classifier, err := ParseClassifier(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.modelPath, err)
	}

	attributor, method := r.loadAttributor(classifier)

	sum := sha256.Sum256(data)
	info := Info{
		Version:       hex.EncodeToString(sum[:])[:12],
		ModelPath:     r.modelPath,
		ExplainerPath: r.explainerPath,
		ExplainMethod: method,
	}
	return NewAdapter(classifier, attributor, r.opts.MissingFeatures, info)
}

// loadAttributor never fails the load: an absent or unusable explainer
// artifact only disables attributions
func (r *Registry) loadAttributor(c Classifier) (Attributor, string) {
	if r.explainerPath == "" {
		return nil, ""
	}

	data, err := os.ReadFile(r.explainerPath)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.WithField("explainer_path", r.explainerPath).Info("No explainer artifact, explanations disabled")
		return nil, ""
	}

	var art *ExplainerArtifact
	if err == nil {
		art, err = ParseExplainerArtifact(data)
	}
	var attributor Attributor
	if err == nil {
		attributor, err = NewAttributor(c, art)
	}
	if err != nil {
		r.log.WithError(err).WithField("explainer_path", r.explainerPath).Warn("Explainer unusable, explanations disabled")
		return nil, ""
	}
	return attributor, art.Method
}

func (r *Registry) buildRemote(ctx context.Context) (*Adapter, error) {
	if r.opts.Client == nil {
		return nil, fmt.Errorf("remote model source needs an HTTP client")
	}

	remote, err := DialRemote(ctx, r.opts.Client, r.modelPath)
	if err != nil {
		return nil, err
	}

	meta := remote.Metadata()
	info := Info{
		Version:   meta.Version,
		ModelPath: r.modelPath,
	}
	if info.Version == "" {
		info.Version = "remote"
	}

	var attributor Attributor
	if meta.HasExplainer {
		attributor = remote
		info.ExplainMethod = MethodRemote
	}
	return NewAdapter(remote, attributor, r.opts.MissingFeatures, info)
}
