package controller

import (
	"io"

	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("upload", c.Upload)
	h.Get(":id", c.Show)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId := ctx.FormValue("user_id")
	chatId := ctx.FormValue("chat_id")

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}

	res, err := c.documentService.Upload(ctx.Context(), userId, chatId, fileHeader.Filename, content)
	if err != nil {
		return err
	}

	// 202: the document is accepted but still ingesting
	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse("Document accepted for processing", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userId := ctx.Query("user_id")
	chatId := ctx.Query("chat_id")

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}

	res, err := c.documentService.Show(ctx.Context(), userId, chatId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}
