// Package handler provides the HTTP handlers for the PropertyAI service.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/propertyai/internal/propertyai/biz"
)

// queryTimeout bounds one question end to end, covering retrieval plus the
// whole generation tier chain.
const queryTimeout = 90 * time.Second

// QAHandler handles the question answering HTTP API.
type QAHandler struct {
	service *biz.QAService
}

func NewQAHandler(service *biz.QAService) *QAHandler {
	return &QAHandler{service: service}
}

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: message, Data: data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, ErrorResponse{Code: status, Message: err.Error()})
}

// Ingest accepts multipart file uploads, stages them to a temp directory,
// and rebuilds the index from them.
func (h *QAHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		fail(c, http.StatusBadRequest, errors.New("no files uploaded, use the 'files' form field"))
		return
	}

	tmpDir, err := os.MkdirTemp("", "propertyai-ingest-*")
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Errorf("create staging directory: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	// Unsupported file types are not rejected here; normalization skips
	// them per file and the batch succeeds as long as one file is usable.
	paths := make([]string, 0, len(files))
	for _, file := range files {
		dst := filepath.Join(tmpDir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			fail(c, http.StatusInternalServerError, fmt.Errorf("save %s: %w", file.Filename, err))
			return
		}
		paths = append(paths, dst)
	}

	sessionID := c.Query("session_id")
	if sessionID != "" {
		if err := h.service.Sessions().StartProcessing(sessionID); err != nil {
			if errors.Is(err, biz.ErrIngestInProgress) {
				fail(c, http.StatusConflict, err)
				return
			}
			fail(c, http.StatusNotFound, err)
			return
		}
	}

	result, err := h.service.Ingest(c.Request.Context(), paths)
	if err != nil {
		if sessionID != "" {
			_ = h.service.Sessions().StopProcessing(sessionID)
		}
		status := http.StatusInternalServerError
		if errors.Is(err, biz.ErrNoUsableDocuments) {
			status = http.StatusBadRequest
		}
		fail(c, status, err)
		return
	}

	if sessionID != "" {
		_ = h.service.Sessions().MarkFilesProcessed(sessionID)
	}

	ok(c, "Documents indexed successfully", result)
}

// QueryRequest is the body of a query call.
type QueryRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

// Query answers one question.
func (h *QAHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	var result interface{}
	var err error
	if req.SessionID != "" {
		result, err = h.service.QueryWithSession(ctx, req.SessionID, req.Question)
	} else {
		result, err = h.service.Query(ctx, req.Question)
	}
	if err != nil {
		if errors.Is(err, biz.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, err)
			return
		}
		fail(c, http.StatusInternalServerError, err)
		return
	}

	ok(c, "success", result)
}

// Stats returns index, cache, and runtime counters.
func (h *QAHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, "success", stats)
}

// Suggestions returns sample questions.
func (h *QAHandler) Suggestions(c *gin.Context) {
	ok(c, "success", gin.H{"suggestions": h.service.Suggestions()})
}

// CreateSession starts a new session.
func (h *QAHandler) CreateSession(c *gin.Context) {
	session := h.service.Sessions().Create()
	ok(c, "session created", session)
}

// GetSession returns a session with its chat history.
func (h *QAHandler) GetSession(c *gin.Context) {
	session, err := h.service.Sessions().Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	ok(c, "success", session)
}

// DeleteSession removes a session.
func (h *QAHandler) DeleteSession(c *gin.Context) {
	h.service.Sessions().Delete(c.Param("id"))
	ok(c, "session deleted", nil)
}

// Healthz is the liveness probe.
func (h *QAHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}
