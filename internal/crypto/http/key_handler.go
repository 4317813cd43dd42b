// Package http provides the administrative HTTP handlers of the key lifecycle.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	"github.com/allisson/secpolicy/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/secpolicy/internal/crypto/usecase"
	"github.com/allisson/secpolicy/internal/httputil"
	customValidation "github.com/allisson/secpolicy/internal/validation"
)

// KeyHandler handles key rotation, listing, export and import.
type KeyHandler struct {
	keyManager cryptoUseCase.KeyManager
	emitter    auditUseCase.Emitter
	logger     *slog.Logger
}

// NewKeyHandler creates a new key handler.
func NewKeyHandler(
	keyManager cryptoUseCase.KeyManager,
	emitter auditUseCase.Emitter,
	logger *slog.Logger,
) *KeyHandler {
	return &KeyHandler{
		keyManager: keyManager,
		emitter:    emitter,
		logger:     logger,
	}
}

// RotateHandler generates and promotes a new key. The key_rotated event is emitted by the
// key manager's rotation hook.
// POST /v1/admin/keys/rotate
// Returns 201 Created with the new current key metadata.
func (h *KeyHandler) RotateHandler(c *gin.Context) {
	key, err := h.keyManager.Rotate(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, key)
}

// ListHandler returns metadata of every retained key.
// GET /v1/admin/keys
func (h *KeyHandler) ListHandler(c *gin.Context) {
	ctx := c.Request.Context()

	keys, err := h.keyManager.List(ctx)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	stats, err := h.keyManager.Stats(ctx)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ListKeysResponse{Data: keys, Stats: stats})
}

// ExportHandler returns every retained key with its material.
// POST /v1/admin/keys/export - 403 unless KEY_EXPORT_ENABLED.
func (h *KeyHandler) ExportHandler(c *gin.Context) {
	export, err := h.keyManager.Export(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.emit(c, auditDomain.EventKeyExported, map[string]any{"key_count": len(export.Keys)})

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, export)
}

// ImportHandler adds keys from an export document. A key already in the ring is skipped when
// its material matches and rejected with 409 when it differs.
// POST /v1/admin/keys/import - 403 unless KEY_EXPORT_ENABLED.
func (h *KeyHandler) ImportHandler(c *gin.Context) {
	var req dto.ImportKeysRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	imported, err := h.keyManager.Import(c.Request.Context(), &req.KeyExport)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.emit(c, auditDomain.EventKeyImported, map[string]any{"imported": imported})

	c.JSON(http.StatusOK, dto.ImportKeysResponse{Imported: imported})
}

func (h *KeyHandler) emit(c *gin.Context, eventType auditDomain.EventType, metadata map[string]any) {
	h.emitter.Emit(auditDomain.NewSecurityEvent(eventType, auditDomain.Subject{
		Identity:  c.ClientIP(),
		RequestID: httputil.RequestID(c),
		Method:    c.Request.Method,
		Path:      c.FullPath(),
		UserAgent: c.Request.UserAgent(),
	}, metadata))
}
