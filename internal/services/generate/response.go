package generate

import (
	"net/http"

	"github.com/Egham-7/consizen-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	headerCache = "X-Cache"
	headerModel = "X-Model"
)

// generationFailedMessage is the client-facing summary for exhausted candidates.
const generationFailedMessage = "Failed to generate content"

// ResponseService renders generation results and errors
type ResponseService struct{}

// NewResponseService creates a new ResponseService
func NewResponseService() *ResponseService {
	return &ResponseService{}
}

// HandleSuccess writes {result} and cache diagnostics headers.
func (rs *ResponseService) HandleSuccess(c *fiber.Ctx, result *models.GenerationResult, requestID string) error {
	if result.CacheHit {
		c.Set(headerCache, "HIT")
	} else {
		c.Set(headerCache, "MISS")
		if result.Model != "" {
			c.Set(headerModel, result.Model)
		}
	}
	c.Set(fiber.HeaderXRequestID, requestID)

	return c.Status(fiber.StatusOK).JSON(models.AnalysisResponse{Result: result.Text})
}

// HandleError writes the structured error body for err. Validation failures
// carry only {error}; everything else carries {error, details, status}.
func (rs *ResponseService) HandleError(c *fiber.Ctx, err error, requestID string) error {
	appErr := models.AsAppError(err)
	status := appErr.GetStatusCode()
	c.Set(fiber.HeaderXRequestID, requestID)

	if appErr.Type == models.ErrorTypeValidation {
		fiberlog.Warnf("[%s] Rejected request: %v", requestID, appErr)
		body := models.ErrorResponse{Error: appErr.Message}
		if appErr.Code != models.CodeMissingPrompt && appErr.Cause != nil {
			body.Details = appErr.Cause.Error()
		}
		return c.Status(status).JSON(body)
	}

	fiberlog.Errorf("[%s] Generation failed: %v", requestID, appErr)

	message := generationFailedMessage
	if appErr.Code != models.CodeAllModelsFailed {
		message = http.StatusText(status)
	}
	return c.Status(status).JSON(models.ErrorResponse{
		Error:   message,
		Details: appErr.Details(),
		Status:  status,
	})
}
