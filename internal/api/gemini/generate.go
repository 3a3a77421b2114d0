package gemini

import (
	"github.com/Egham-7/consizen-proxy/internal/services/generate"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// GenerateHandler serves /api/gemini, the cached fail-over generation endpoint
// used by the ConsizeN frontend.
type GenerateHandler struct {
	requestSvc  *generate.RequestService
	generateSvc *generate.Service
	responseSvc *generate.ResponseService
}

// NewGenerateHandler creates a GenerateHandler around an injected generate service.
func NewGenerateHandler(generateSvc *generate.Service) *GenerateHandler {
	return &GenerateHandler{
		requestSvc:  generate.NewRequestService(),
		generateSvc: generateSvc,
		responseSvc: generate.NewResponseService(),
	}
}

// Generate handles POST /api/gemini.
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	requestID := h.requestSvc.GetRequestID(c)
	fiberlog.Infof("[%s] Starting generate request from %s", requestID, c.IP())

	req, err := h.requestSvc.ParseRequest(c)
	if err != nil {
		return h.responseSvc.HandleError(c, err, requestID)
	}

	result, err := h.generateSvc.HandleGenerate(c.UserContext(), requestID, req)
	if err != nil {
		return h.responseSvc.HandleError(c, err, requestID)
	}

	fiberlog.Infof("[%s] Generate request completed (cache hit: %t)", requestID, result.CacheHit)
	return h.responseSvc.HandleSuccess(c, result, requestID)
}

// Ready handles GET /api/gemini.
func (h *GenerateHandler) Ready(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ready"})
}
