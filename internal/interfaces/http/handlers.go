package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// UserIDHeader identifies the submitting user when the body does not
const UserIDHeader = "X-User-ID"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	intake         service.IntakeService
	readiness      ReadinessChecker
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(intake service.IntakeService, readiness ReadinessChecker, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		intake:         intake,
		readiness:      readiness,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.readiness != nil && !h.readiness.Ready() {
		response.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: response})
}

// Allocate handles POST /api/allocations
func (h *Handlers) Allocate(c *gin.Context) {
	var req AllocateRequest
	if !h.bind(c, &req) {
		return
	}
	if err := validateTargets(req.Targets); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	result, err := h.intake.Allocate(c.Request.Context(), req.Total, req.Targets, normalizeMethod(req.Method), req.Overrides)
	if err != nil {
		h.fail(c, "Failed to allocate", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// RecomputeAllocation handles POST /api/allocations/recompute
func (h *Handlers) RecomputeAllocation(c *gin.Context) {
	var req RecomputeRequest
	if !h.bind(c, &req) {
		return
	}
	if err := validateTargets(req.Targets); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	result, err := h.intake.RecomputeAllocation(c.Request.Context(), req.Previous, normalizeMethod(req.PreviousMethod),
		req.Total, req.Targets, normalizeMethod(req.Method))
	if err != nil {
		h.fail(c, "Failed to recompute allocation", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// UpdatePercentage handles POST /api/allocations/percentage
func (h *Handlers) UpdatePercentage(c *gin.Context) {
	var req UpdatePercentageRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.intake.UpdatePercentage(c.Request.Context(), req.Allocations, req.Total, req.TargetID, req.Percentage)
	if err != nil {
		h.fail(c, "Failed to update percentage", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// UpdateAmount handles POST /api/allocations/amount
func (h *Handlers) UpdateAmount(c *gin.Context) {
	var req UpdateAmountRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.intake.UpdateAmount(c.Request.Context(), req.Allocations, req.Total, req.TargetID, req.Amount)
	if err != nil {
		h.fail(c, "Failed to update amount", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ExportAllocation handles POST /api/allocations/export and returns an xlsx file
func (h *Handlers) ExportAllocation(c *gin.Context) {
	var req DraftRequest
	if !h.bind(c, &req) {
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	data, report, err := h.intake.ExportAllocation(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, "Failed to export allocation", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="allocation-%s.xlsx"`, report.ID))
	c.Header("X-Report-ID", report.ID)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExtractReceipt handles POST /api/receipts/extract
func (h *Handlers) ExtractReceipt(c *gin.Context) {
	var req ExtractReceiptRequest
	if !h.bind(c, &req) {
		return
	}

	result := h.intake.ExtractReceiptText(c.Request.Context(), req.RawText, req.Confidence)
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// RecognizeReceipt handles POST /api/receipts/recognize with a multipart "file" field
func (h *Handlers) RecognizeReceipt(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, Response{
				Success: false,
				Error:   fmt.Sprintf("receipt exceeds %d bytes", h.maxUploadBytes),
			})
			return
		}
		h.badRequest(c, "a receipt file is required in the \"file\" field")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, "Failed to open upload", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, "Failed to read upload", err)
		return
	}

	result, err := h.intake.RecognizeReceipt(c.Request.Context(), data, mediaType(header.Header.Get("Content-Type"), data))
	if err != nil {
		h.fail(c, "Failed to recognize receipt", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ValidateExpense handles POST /api/expenses/validate
func (h *Handlers) ValidateExpense(c *gin.Context) {
	var req DraftRequest
	if !h.bind(c, &req) {
		return
	}

	userID := utils.SanitizeString(c.GetHeader(UserIDHeader))
	if userID == "" {
		userID = utils.SanitizeString(req.UserID)
	}
	if userID == "" {
		h.badRequest(c, "user id is required")
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	report, err := h.intake.ValidateDraft(c.Request.Context(), userID, draft, req.ProceedAnyway)
	if err != nil {
		h.fail(c, "Failed to validate expense", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ValidateResponse{
			Report:               report,
			CanSubmit:            report.CanSubmit(),
			RequiresConfirmation: report.RequiresConfirmation(),
		},
	})
}

func (h *Handlers) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", "path", c.FullPath(), "error", err)
		h.badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps service errors to status codes; anything unrecognized is a 500
func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	text := "internal error"

	switch {
	case errors.Is(err, allocation.ErrUnknownMethod), errors.Is(err, allocation.ErrUnknownTarget),
		errors.Is(err, money.ErrCurrencyMismatch):
		status, text = http.StatusBadRequest, err.Error()
	case errors.Is(err, port.ErrUnsupportedMedia):
		status, text = http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, service.ErrRecognizerUnavailable), errors.Is(err, service.ErrExporterUnavailable):
		status, text = http.StatusServiceUnavailable, err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "request_id", c.GetString("request_id"))
	}
	c.JSON(status, Response{Success: false, Error: text})
}

// mediaType prefers the declared part type and sniffs the bytes when it is missing or generic
func mediaType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
