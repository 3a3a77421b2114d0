package builder

import (
	"maps"
	"strings"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
)

// WithAttemptTimeout bounds each upstream model call.
func (b *Builder) WithAttemptTimeout(timeout time.Duration) *Builder {
	b.cfg.Fallback.AttemptTimeoutMs = int(timeout.Milliseconds())
	return b
}

// WithCircuitBreaker enables per-model circuit breaking. It needs a Redis URL,
// set through WithRedisCache.
func (b *Builder) WithCircuitBreaker(cfg models.CircuitBreakerConfig) *Builder {
	cfg.Enabled = true
	b.cfg.Fallback.CircuitBreaker = &cfg
	return b
}

// WithPolicy replaces the model policy table.
func (b *Builder) WithPolicy(cfg models.PolicyConfig) *Builder {
	cfg.Tasks = maps.Clone(cfg.Tasks)
	cfg.Complexity = maps.Clone(cfg.Complexity)
	b.cfg.Policy = cfg
	return b
}

// WithTaskModel routes task to modelSpec ("model" or "provider:model").
// Setting any task rule replaces the built-in task rules.
func (b *Builder) WithTaskModel(task, modelSpec string) *Builder {
	if b.cfg.Policy.Tasks == nil {
		b.cfg.Policy.Tasks = make(map[string]string)
	}
	b.cfg.Policy.Tasks[strings.ToLower(task)] = modelSpec
	return b
}

func (b *Builder) WithFallbackModel(modelSpec string) *Builder {
	b.cfg.Policy.FallbackModel = modelSpec
	return b
}

// WithPrompt overrides or adds the framing template for task.
func (b *Builder) WithPrompt(task, template string) *Builder {
	if b.cfg.Prompts == nil {
		b.cfg.Prompts = make(map[string]string)
	}
	b.cfg.Prompts[task] = template
	return b
}
