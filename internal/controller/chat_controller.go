package controller

import (
	"docuchat-be/internal/dto"
	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Documents(ctx *fiber.Ctx) error
}

type chatController struct {
	sessionService  service.ISessionService
	queryService    service.IQueryService
	documentService service.IDocumentService
}

func NewChatController(
	sessionService service.ISessionService,
	queryService service.IQueryService,
	documentService service.IDocumentService,
) IChatController {
	return &chatController{
		sessionService:  sessionService,
		queryService:    queryService,
		documentService: documentService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("start", c.Start)
	h.Post("query", c.Query)
	h.Get("history", c.History)
	h.Get(":chatId/documents", c.Documents)
}

func (c *chatController) Start(ctx *fiber.Ctx) error {
	var req dto.StartChatRequest
	// An empty body is fine: the caller becomes a guest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	res, err := c.sessionService.StartChat(ctx.Context(), req.UserId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start chat", res))
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.queryService.Query(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success query chat", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId := ctx.Query("user_id")
	chatId := ctx.Query("chat_id")

	res, err := c.sessionService.GetHistory(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat history", res))
}

func (c *chatController) Documents(ctx *fiber.Ctx) error {
	userId := ctx.Query("user_id")
	chatId := ctx.Params("chatId")

	res, err := c.documentService.ListByChat(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chat documents", res))
}
