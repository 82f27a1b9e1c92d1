package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"ai-shopflow-be/internal/pkg/serverutils"
	"ai-shopflow-be/internal/service"
)

type ISessionController interface {
	RegisterRoutes(router fiber.Router)
}

// SessionController exposes the read-only session inspection API.
type SessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

func (c *SessionController) RegisterRoutes(router fiber.Router) {
	h := router.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)

	h.Get("/history", c.GetHistory)
	h.Get("/:id", c.GetSession)
	h.Get("/:id/archive", c.GetArchive)
}

func (c *SessionController) GetSession(ctx *fiber.Ctx) error {
	summary, err := c.sessionService.GetSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session summary", summary))
}

func (c *SessionController) GetArchive(ctx *fiber.Ctx) error {
	archive, err := c.sessionService.GetArchive(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session archive", archive))
}

func (c *SessionController) GetHistory(ctx *fiber.Ctx) error {
	userID, ok := ctx.Locals("user_id").(string)
	if !ok || userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing user identity"))
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))
	archives, err := c.sessionService.RecentArchives(ctx.Context(), userID, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recent sessions", archives))
}
