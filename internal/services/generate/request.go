package generate

import (
	"github.com/Egham-7/consizen-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestService handles request parsing
type RequestService struct{}

// NewRequestService creates a new RequestService
func NewRequestService() *RequestService {
	return &RequestService{}
}

// GetRequestID extracts or generates a request ID for tracking
func (rs *RequestService) GetRequestID(c *fiber.Ctx) string {
	requestID := c.Get(fiber.HeaderXRequestID)
	if requestID == "" {
		requestID = "gen_" + uuid.NewString()
	}
	return requestID
}

// ParseRequest decodes the JSON body regardless of Content-Type. An empty
// body decodes to an empty request, which the service rejects as a missing
// prompt.
func (rs *RequestService) ParseRequest(c *fiber.Ctx) (*models.AnalysisRequest, error) {
	var req models.AnalysisRequest

	body := c.Body()
	if len(body) == 0 {
		return &req, nil
	}

	if err := c.App().Config().JSONDecoder(body, &req); err != nil {
		return nil, models.NewValidationError(models.CodeInvalidRequest, "Invalid JSON body", err)
	}
	return &req, nil
}
