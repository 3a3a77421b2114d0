// Package generate implements the cached, fail-over text generation proxy.
package generate

import (
	"context"
	"errors"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/services/cache"
	"github.com/Egham-7/consizen-proxy/internal/services/fallback"
	"github.com/Egham-7/consizen-proxy/internal/services/metrics"
	"github.com/Egham-7/consizen-proxy/internal/services/policy"
	"github.com/Egham-7/consizen-proxy/internal/services/prompts"
	"github.com/Egham-7/consizen-proxy/internal/services/providers"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Options holds the collaborators of a Service. Cache, Keys, Policy,
// Providers and Executor are required.
type Options struct {
	Cache     cache.ResponseCache
	Keys      cache.KeyBuilder
	Policy    *policy.Table
	Providers *providers.Registry
	Executor  *fallback.Executor
	Prompts   *prompts.Renderer
	Metrics   metrics.Recorder
}

// Service turns an AnalysisRequest into generated text. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	cache     cache.ResponseCache
	keys      cache.KeyBuilder
	policy    *policy.Table
	providers *providers.Registry
	executor  *fallback.Executor
	prompts   *prompts.Renderer
	metrics   metrics.Recorder
}

// NewService validates opts and builds a Service.
func NewService(opts Options) (*Service, error) {
	switch {
	case opts.Cache == nil:
		return nil, errors.New("generate service requires a response cache")
	case opts.Policy == nil:
		return nil, errors.New("generate service requires a policy table")
	case opts.Providers == nil:
		return nil, errors.New("generate service requires a provider registry")
	case opts.Executor == nil:
		return nil, errors.New("generate service requires a fallback executor")
	}

	s := &Service{
		cache:     opts.Cache,
		keys:      opts.Keys,
		policy:    opts.Policy,
		providers: opts.Providers,
		executor:  opts.Executor,
		prompts:   opts.Prompts,
		metrics:   opts.Metrics,
	}
	if s.keys == (cache.KeyBuilder{}) {
		s.keys = cache.NewKeyBuilder(models.CacheConfig{})
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop()
	}
	return s, nil
}

// HandleGenerate answers req from the cache when possible, otherwise from the
// first candidate model that succeeds. Only successful results are cached.
func (s *Service) HandleGenerate(ctx context.Context, requestID string, req *models.AnalysisRequest) (*models.GenerationResult, error) {
	if req == nil || req.Prompt == "" {
		s.metrics.RequestFailed(ctx, models.CodeMissingPrompt)
		return nil, models.NewMissingPromptError()
	}

	task := policy.NormalizeTask(req.Task)
	complexity := policy.ParseComplexity(string(req.ModelComplexity))
	key := s.keys.Key(task, req.Prompt)

	if text, ok := s.lookup(ctx, requestID, key); ok {
		s.metrics.CacheHit(ctx, task)
		fiberlog.Infof("[%s] Cache hit for task %s", requestID, task)
		return &models.GenerationResult{Text: text, CacheHit: true}, nil
	}
	s.metrics.CacheMiss(ctx, task)

	candidates := s.policy.Candidates(task, complexity)
	fiberlog.Debugf("[%s] Cache miss for task %s (complexity %s), %d candidates", requestID, task, complexity, len(candidates))

	upstreamPrompt, err := s.render(task, req.Prompt)
	if err != nil {
		s.metrics.RequestFailed(ctx, models.CodeInternal)
		return nil, models.NewInternalError("failed to build upstream prompt", err)
	}

	outcome, err := s.executor.Execute(ctx, requestID, candidates, s.attempt(upstreamPrompt))
	if err != nil {
		appErr := models.AsAppError(err)
		s.metrics.RequestFailed(ctx, appErr.Code)
		return nil, appErr
	}

	// the request may already be finished; the write must still land
	if err := s.cache.Set(context.WithoutCancel(ctx), key, outcome.Text); err != nil {
		fiberlog.Warnf("[%s] Failed to cache result: %v", requestID, err)
	}

	return &models.GenerationResult{
		Text:  outcome.Text,
		Model: outcome.Candidate.String(),
	}, nil
}

// lookup treats a cache backend error as a miss.
func (s *Service) lookup(ctx context.Context, requestID, key string) (string, bool) {
	text, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		fiberlog.Warnf("[%s] Cache lookup failed, treating as miss: %v", requestID, err)
		return "", false
	}
	return text, ok
}

func (s *Service) render(task, prompt string) (string, error) {
	if s.prompts == nil {
		return prompt, nil
	}
	return s.prompts.Render(task, prompt)
}

func (s *Service) attempt(prompt string) fallback.AttemptFunc {
	return func(ctx context.Context, candidate models.Candidate) (string, error) {
		generator, err := s.providers.Get(candidate.Provider)
		if err != nil {
			return "", models.NewUpstreamModelError(candidate.Provider, candidate.Model, 0, err)
		}
		return generator.Generate(ctx, candidate.Model, prompt)
	}
}

// Candidates exposes the policy resolution for a task and complexity hint.
func (s *Service) Candidates(task, complexity string) []models.Candidate {
	return s.policy.Candidates(policy.NormalizeTask(task), policy.ParseComplexity(complexity))
}
