package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/pkg/serverutils"
	"doc-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	SetMode(ctx *fiber.Ctx) error
	GetPromptState(ctx *fiber.Ctx) error
	SetSystemPrompt(ctx *fiber.Ctx) error
	ListFiles(ctx *fiber.Ctx) error
	UploadFiles(ctx *fiber.Ctx) error
	DeleteAllFiles(ctx *fiber.Ctx) error
	DeleteSelectedFile(ctx *fiber.Ctx) error
	SelectFile(ctx *fiber.Ctx) error
	DeselectFile(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	uploadDir        string
}

func NewAssistantController(assistantService service.IAssistantService, uploadDir string) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		uploadDir:        uploadDir,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("chat", c.Chat)
	h.Post("mode", c.SetMode)
	h.Get("system-prompt", c.GetPromptState)
	h.Put("system-prompt", c.SetSystemPrompt)
	h.Get("files", c.ListFiles)
	h.Post("files", c.UploadFiles)
	h.Delete("files", c.DeleteAllFiles)
	h.Delete("files/selected", c.DeleteSelectedFile)
	h.Post("files/select", c.SelectFile)
	h.Post("files/deselect", c.DeselectFile)
}

// Chat answers one turn as a server-sent event stream. Each event's data
// is the cumulative response text so far; the final event carries the
// complete answer with its sources block.
func (c *assistantController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The writer runs after this handler returns, so the turn cannot
	// hang on the request context
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		snapshots, err := c.assistantService.SubmitTurn(context.Background(), &req)
		if err != nil {
			writeSSEEvent(w, "error", map[string]string{"error": err.Error()})
			return
		}
		// Releases the generation stream if the client goes away
		defer snapshots.Close()

		for snapshots.Next() {
			if !writeSSEEvent(w, "delta", map[string]string{"text": snapshots.Text()}) {
				return
			}
		}
		if err := snapshots.Err(); err != nil {
			writeSSEEvent(w, "error", map[string]string{"error": err.Error()})
			return
		}

		writeSSEEvent(w, "done", map[string]string{})
	}))

	return nil
}

func writeSSEEvent(w *bufio.Writer, event string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	return w.Flush() == nil
}

func (c *assistantController) SetMode(ctx *fiber.Ctx) error {
	var req dto.SetModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SetMode(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set mode", res))
}

func (c *assistantController) GetPromptState(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")

	res, err := c.assistantService.PromptState(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get prompt state", res))
}

func (c *assistantController) SetSystemPrompt(ctx *fiber.Ctx) error {
	var req dto.SetSystemPromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.assistantService.SetSystemPrompt(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success set system prompt", nil))
}

func (c *assistantController) ListFiles(ctx *fiber.Ctx) error {
	res, err := c.assistantService.ListFiles(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list files", res))
}

func (c *assistantController) UploadFiles(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected multipart form with 'files'")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No files provided")
	}

	var items []dto.IngestItem
	for _, file := range files {
		// Randomized on-disk name; the display name survives in metadata
		dst := filepath.Join(c.uploadDir, uuid.NewString()+"_"+filepath.Base(file.Filename))
		if err := ctx.SaveFile(file, dst); err != nil {
			return err
		}
		items = append(items, dto.IngestItem{
			FileName: filepath.Base(file.Filename),
			Path:     dst,
		})
	}

	res, err := c.assistantService.UploadFiles(ctx.Context(), sessionId, items)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload files", res))
}

func (c *assistantController) DeleteAllFiles(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")

	res, err := c.assistantService.DeleteAllFiles(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete all files", res))
}

func (c *assistantController) DeleteSelectedFile(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")

	res, err := c.assistantService.DeleteSelectedFile(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete selected file", res))
}

func (c *assistantController) SelectFile(ctx *fiber.Ctx) error {
	var req dto.SelectFileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SelectFile(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select file", res))
}

func (c *assistantController) DeselectFile(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")

	res, err := c.assistantService.DeselectFile(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success deselect file", res))
}
