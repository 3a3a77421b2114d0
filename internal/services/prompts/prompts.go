// Package prompts frames caller prompts with task-specific instructions
// before they are sent upstream.
package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Egham-7/consizen-proxy/internal/utils"

	"github.com/valyala/bytebufferpool"
)

const sustainabilityAnalysis = `As an AI sustainability agent for ConsizeN, analyze the following transaction or merchant data and provide:
1. A sustainability score (0-100)
2. Environmental impact assessment
3. Specific recommendations for more eco-friendly alternatives
4. Carbon offset suggestion

Think step-by-step about how this merchant or transaction impacts the environment.

Transaction/Merchant: {{.Prompt}}`

const merchantAnalysis = `Analyze the sustainability of this merchant and provide a detailed assessment.

Merchant details: {{.Prompt}}

Please provide a JSON response with the following structure:
{
  "score": number (1-100),
  "reasoning": "detailed explanation",
  "category": "eco-friendly" | "neutral" | "harmful",
  "recommendations": ["array of improvement suggestions"],
  "carbonIntensity": "low" | "medium" | "high"
}

Consider factors like:
- Environmental impact
- Social responsibility
- Sustainable practices
- Carbon footprint
- Certifications and standards`

const carbonFootprint = `Calculate the carbon footprint for this transaction:

{{.Prompt}}

Please provide a JSON response with the following structure:
{
  "co2Kg": number (estimated CO2 in kg),
  "category": "transaction category",
  "offsetCost": number (cost to offset in USD),
  "impact": "low" | "medium" | "high"
}

Consider:
- Transaction amount
- Merchant type and practices
- Industry averages
- Environmental impact factors`

const spendingAnalysis = `Analyze these spending patterns for sustainability insights:

Transactions: {{.Prompt}}

Provide a JSON response with:
{
  "sustainabilityTrend": "improving" | "declining" | "stable",
  "topCategories": ["array of spending categories"],
  "ecoScore": number (1-100),
  "suggestions": ["array of improvement suggestions"],
  "impact": "summary of environmental impact"
}`

const recommendations = `Based on the user's preferences and spending history, provide sustainability recommendations:

{{.Prompt}}

Provide 5 actionable recommendations as a JSON array of strings.
Focus on:
- Eco-friendly alternatives
- Sustainable spending habits
- Carbon reduction strategies
- Community impact opportunities`

const communityChallenges = `Generate 5 creative sustainability challenges for a community of conscious consumers.

Community context: {{.Prompt}}

Challenges should be:
- Achievable within a month
- Measurable and trackable
- Engaging and fun
- Focused on spending habits
- Community-oriented

Provide as a JSON array of challenge descriptions.`

// builtin maps task names to their framing templates.
var builtin = map[string]string{
	"sustainability_analysis": sustainabilityAnalysis,
	"merchant_analysis":       merchantAnalysis,
	"carbon_footprint":        carbonFootprint,
	"spending_analysis":       spendingAnalysis,
	"recommendations":         recommendations,
	"community_challenges":    communityChallenges,
}

type templateData struct {
	Prompt string
}

// Renderer expands a caller prompt into the upstream prompt for its task.
// Tasks without a template, including "general", are passed through verbatim.
type Renderer struct {
	templates map[string]*template.Template
	pool      *utils.BufferPool
}

// NewRenderer parses the built-in templates, then overrides, which may add
// tasks or replace built-in ones.
func NewRenderer(overrides map[string]string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(builtin)+len(overrides)),
		pool:      utils.Global(),
	}
	for task, text := range builtin {
		if err := r.add(task, text); err != nil {
			return nil, err
		}
	}
	for task, text := range overrides {
		if err := r.add(strings.ToLower(strings.TrimSpace(task)), text); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) add(task, text string) error {
	tmpl, err := template.New(task).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("invalid prompt template for task %s: %w", task, err)
	}
	r.templates[task] = tmpl
	return nil
}

// Has reports whether task has a framing template.
func (r *Renderer) Has(task string) bool {
	_, ok := r.templates[task]
	return ok
}

// Render returns the upstream prompt for task. task must already be normalized.
func (r *Renderer) Render(task, prompt string) (string, error) {
	tmpl, ok := r.templates[task]
	if !ok {
		return prompt, nil
	}

	return r.pool.Render(func(buf *bytebufferpool.ByteBuffer) error {
		if err := tmpl.Execute(buf, templateData{Prompt: prompt}); err != nil {
			return fmt.Errorf("failed to render prompt for task %s: %w", task, err)
		}
		return nil
	})
}
