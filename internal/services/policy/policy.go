// Package policy maps a request's task and complexity hints to an ordered list
// of upstream model candidates.
package policy

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/utils"
)

// Tasks with dedicated model rules in the default table.
const (
	TaskSustainabilityAnalysis = "sustainability_analysis"
	TaskSpendingAnalysis       = "spending_analysis"
	TaskMerchantAnalysis       = "merchant_analysis"
	TaskCarbonFootprint        = "carbon_footprint"
	TaskRecommendations        = "recommendations"
	TaskCommunityChallenges    = "community_challenges"
)

const (
	ModelFlash    = "gemini-1.5-flash"
	ModelPro      = "gemini-1.5-pro"
	ModelFallback = "gemini-1.0-pro"
)

// Table is the immutable model selection policy. Build it with NewTable or
// DefaultTable; the zero value is not usable.
type Table struct {
	tasks           map[string]string
	complexity      map[models.ModelComplexity]string
	fallback        string
	defaultProvider string
}

// DefaultConfig returns the built-in policy.
func DefaultConfig() models.PolicyConfig {
	return models.PolicyConfig{
		Tasks: map[string]string{
			TaskSustainabilityAnalysis: ModelPro,
			TaskSpendingAnalysis:       ModelPro,
			TaskMerchantAnalysis:       ModelFlash,
			TaskCarbonFootprint:        ModelFlash,
			TaskRecommendations:        ModelFlash,
			TaskCommunityChallenges:    ModelFlash,
		},
		Complexity: map[models.ModelComplexity]string{
			models.ComplexityLow:    ModelFlash,
			models.ComplexityMedium: ModelFlash,
			models.ComplexityHigh:   ModelPro,
		},
		FallbackModel:   ModelFallback,
		DefaultProvider: models.ProviderGemini,
	}
}

// DefaultTable returns the built-in policy table.
func DefaultTable() *Table {
	t, err := NewTable(models.PolicyConfig{})
	if err != nil {
		// the built-in table is always complete
		panic(err)
	}
	return t
}

// NewTable builds a table from cfg. Sections left empty in cfg are taken from
// DefaultConfig; a configured Tasks map replaces the default one entirely.
// The maps are copied so later changes to cfg do not leak into the table.
func NewTable(cfg models.PolicyConfig) (*Table, error) {
	def := DefaultConfig()

	tasks := cfg.Tasks
	if len(tasks) == 0 {
		tasks = def.Tasks
	}
	complexity := maps.Clone(def.Complexity)
	for level, model := range cfg.Complexity {
		level = models.ModelComplexity(strings.ToLower(string(level)))
		if !validComplexity(level) {
			return nil, fmt.Errorf("unknown complexity level %q in policy", level)
		}
		complexity[level] = model
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = def.FallbackModel
	}
	defaultProvider := cfg.DefaultProvider
	if defaultProvider == "" {
		defaultProvider = def.DefaultProvider
	}

	t := &Table{
		tasks:           make(map[string]string, len(tasks)),
		complexity:      complexity,
		fallback:        strings.TrimSpace(fallback),
		defaultProvider: defaultProvider,
	}
	for task, model := range tasks {
		t.tasks[strings.ToLower(strings.TrimSpace(task))] = strings.TrimSpace(model)
	}

	for _, spec := range t.Models() {
		if _, _, err := utils.ParseProviderModelWithDefault(spec, defaultProvider); err != nil {
			return nil, fmt.Errorf("invalid model in policy: %w", err)
		}
	}
	return t, nil
}

func validComplexity(c models.ModelComplexity) bool {
	switch c {
	case models.ComplexityLow, models.ComplexityMedium, models.ComplexityHigh:
		return true
	}
	return false
}

// NormalizeTask lowercases task and substitutes the default task for blanks.
func NormalizeTask(task string) string {
	task = strings.ToLower(strings.TrimSpace(task))
	if task == "" {
		return models.DefaultTask
	}
	return task
}

// ParseComplexity maps an arbitrary hint to a known complexity level;
// blank or unrecognised hints become medium.
func ParseComplexity(raw string) models.ModelComplexity {
	c := models.ModelComplexity(strings.ToLower(strings.TrimSpace(raw)))
	if validComplexity(c) {
		return c
	}
	return models.ComplexityMedium
}

// Resolve returns the primary model spec for a task and complexity.
// Task rules win over complexity rules, which win over the medium default.
func (t *Table) Resolve(task string, complexity models.ModelComplexity) string {
	if model, ok := t.tasks[NormalizeTask(task)]; ok {
		return model
	}
	if model, ok := t.complexity[ParseComplexity(string(complexity))]; ok {
		return model
	}
	return t.complexity[models.ComplexityMedium]
}

// Fallback returns the static fallback model spec.
func (t *Table) Fallback() string {
	return t.fallback
}

// DefaultProvider returns the provider assumed for bare model names.
func (t *Table) DefaultProvider() string {
	return t.defaultProvider
}

// Candidates returns the ordered attempt list: the resolved primary, then the
// fallback. A fallback identical to the primary is dropped so the same model
// is never tried twice.
func (t *Table) Candidates(task string, complexity models.ModelComplexity) []models.Candidate {
	primary := t.candidate(t.Resolve(task, complexity), false)
	fallback := t.candidate(t.fallback, true)

	if fallback.Provider == primary.Provider && fallback.Model == primary.Model {
		return []models.Candidate{primary}
	}
	return []models.Candidate{primary, fallback}
}

func (t *Table) candidate(spec string, isFallback bool) models.Candidate {
	// specs are validated in NewTable
	provider, model, _ := utils.ParseProviderModelWithDefault(spec, t.defaultProvider)
	return models.Candidate{
		Spec:     spec,
		Provider: provider,
		Model:    model,
		Fallback: isFallback,
	}
}

// Models returns every model spec the table can produce, sorted and de-duplicated.
func (t *Table) Models() []string {
	set := make(map[string]struct{}, len(t.tasks)+len(t.complexity)+1)
	for _, m := range t.tasks {
		set[m] = struct{}{}
	}
	for _, m := range t.complexity {
		set[m] = struct{}{}
	}
	set[t.fallback] = struct{}{}
	return slices.Sorted(maps.Keys(set))
}

// Tasks returns the task names that have dedicated rules, sorted.
func (t *Table) Tasks() []string {
	return slices.Sorted(maps.Keys(t.tasks))
}
