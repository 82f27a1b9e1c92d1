package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-shopflow-be/internal/pkg/serverutils"
	"ai-shopflow-be/internal/service"
)

type IHealthController interface {
	RegisterRoutes(app *fiber.App)
}

type HealthController struct {
	healthService service.IHealthService
	lifecycle     service.ILifecycleConsumerService // nil without NATS
}

func NewHealthController(healthService service.IHealthService, lifecycle service.ILifecycleConsumerService) *HealthController {
	return &HealthController{healthService: healthService, lifecycle: lifecycle}
}

func (c *HealthController) RegisterRoutes(app *fiber.App) {
	app.Get("/health", c.Check)
	app.Get("/health/lifecycle", c.LifecycleCounts)
}

func (c *HealthController) Check(ctx *fiber.Ctx) error {
	response := c.healthService.Check(ctx.Context())
	status := fiber.StatusOK
	if response.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(response)
}

func (c *HealthController) LifecycleCounts(ctx *fiber.Ctx) error {
	if c.lifecycle == nil {
		return ctx.Status(fiber.StatusNotImplemented).JSON(serverutils.ErrorResponse(fiber.StatusNotImplemented, "Lifecycle consumer is not running"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Lifecycle event counts", c.lifecycle.Counts()))
}
