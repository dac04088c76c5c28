package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"canvas_ai_server/internal/build"
	"canvas_ai_server/internal/sitefiles"
	"canvas_ai_server/internal/store"
	"canvas_ai_server/internal/types"

	"github.com/gin-gonic/gin"
)

// PageService is what the handlers need from build.Service.
type PageService interface {
	Instruct(ctx context.Context, instruction string) build.Result
	Current(ctx context.Context) (types.PageVersion, error)
	Version(ctx context.Context, version int) (types.PageVersion, error)
	Reset(ctx context.Context) error
}

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	pages       PageService
	viewers     ViewerSource
	channel     string
	ownerSecret string
}

func NewAPIHandler(pages PageService, viewers ViewerSource, channel, ownerSecret string) *APIHandler {
	return &APIHandler{
		pages:       pages,
		viewers:     viewers,
		channel:     channel,
		ownerSecret: ownerSecret,
	}
}

// --- Structs for API Requests/Responses ---

type InstructRequest struct {
	Instruction *string `json:"instruction"`
}

type InstructResponse struct {
	Success bool `json:"success"`
	Version int  `json:"version"`
}

type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// PageResponse is a PageVersion with the nullable fields of version 0.
type PageResponse struct {
	Version     int           `json:"version"`
	Content     string        `json:"content"`
	Files       types.FileSet `json:"files"`
	Instruction *string       `json:"instruction"`
	CreatedAt   *time.Time    `json:"created_at"`
}

func toPageResponse(p types.PageVersion) PageResponse {
	resp := PageResponse{Version: p.Version, Content: p.Content, Files: p.Files}
	if p.Version > 0 {
		instruction := p.Instruction
		resp.Instruction = &instruction
	}
	if !p.CreatedAt.IsZero() {
		createdAt := p.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

// --- API Handlers ---

// POST /api/page/instruct
func (h *APIHandler) Instruct(c *gin.Context) {
	var req InstructRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Instruction == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Instruction is required"})
		return
	}

	log.Printf("received instruction (%d chars)", len(*req.Instruction))
	res := h.pages.Instruct(c.Request.Context(), *req.Instruction)
	if res.Err != nil {
		status, msg := errorStatus(res.Err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, InstructResponse{Success: true, Version: res.Version})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, build.ErrInvalidInstruction):
		return http.StatusBadRequest, "Instruction is required"
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict, "Another build saved this version first, retry the instruction"
	case errors.Is(err, build.ErrChannelUnavailable):
		return http.StatusServiceUnavailable, "Broadcast channel unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// GET /api/page/current
func (h *APIHandler) CurrentPage(c *gin.Context) {
	page, err := h.pages.Current(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching current page: %v", err)
		page = types.PageVersion{Content: sitefiles.InitialPreview(), Files: sitefiles.InitialFiles()}
	}
	c.JSON(http.StatusOK, toPageResponse(page))
}

// GET /api/page/versions/:version
func (h *APIHandler) PageVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Version must be a positive integer"})
		return
	}
	page, err := h.pages.Version(c.Request.Context(), version)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching version %d: %v", version, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, toPageResponse(page))
}

// POST /api/page/reset
func (h *APIHandler) ResetPage(c *gin.Context) {
	if err := h.pages.Reset(c.Request.Context()); err != nil {
		log.Printf("Error resetting page state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset"})
		return
	}
	c.JSON(http.StatusOK, ResetResponse{Success: true, Message: "Page state reset successfully"})
}

// POST /api/auth/verify
func (h *APIHandler) VerifyToken(c *gin.Context) {
	if !validBearer(c.GetHeader("Authorization"), h.ownerSecret) {
		c.JSON(http.StatusUnauthorized, VerifyResponse{Valid: false})
		return
	}
	c.JSON(http.StatusOK, VerifyResponse{Valid: true})
}
