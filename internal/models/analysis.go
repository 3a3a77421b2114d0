package models

// ModelComplexity is the caller-supplied hint used when no task rule matches.
type ModelComplexity string

const (
	ComplexityLow    ModelComplexity = "low"
	ComplexityMedium ModelComplexity = "medium"
	ComplexityHigh   ModelComplexity = "high"
)

// DefaultTask is applied when the request carries no task.
const DefaultTask = "general"

// AnalysisRequest is the body accepted by POST /api/gemini.
type AnalysisRequest struct {
	Prompt          string          `json:"prompt"`
	Task            string          `json:"task,omitzero"`
	ModelComplexity ModelComplexity `json:"modelComplexity,omitzero"`
}

// GenerationResult is the text produced for an AnalysisRequest, either fresh
// from an upstream model or replayed from the response cache.
type GenerationResult struct {
	Text     string `json:"result"`
	Model    string `json:"-"`
	CacheHit bool   `json:"-"`
}

// AnalysisResponse is the success body of POST /api/gemini.
type AnalysisResponse struct {
	Result string `json:"result"`
}

// ErrorResponse is the failure body of POST /api/gemini.
// Validation failures only populate Error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitzero"`
	Status  int    `json:"status,omitzero"`
}
