package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	"github.com/allisson/secpolicy/internal/httputil"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	"github.com/allisson/secpolicy/internal/policy/http/dto"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
	customValidation "github.com/allisson/secpolicy/internal/validation"
)

// FieldHandler handles encryption and decryption of individual field values.
type FieldHandler struct {
	policy policyUseCase.SecurityPolicy
	cfg    SessionConfig
	logger *slog.Logger
}

// NewFieldHandler creates a new field handler.
func NewFieldHandler(policy policyUseCase.SecurityPolicy, cfg SessionConfig, logger *slog.Logger) *FieldHandler {
	return &FieldHandler{
		policy: policy,
		cfg:    cfg,
		logger: logger,
	}
}

// EncryptHandler seals a value under the current key.
// POST /v1/fields/encrypt
// Returns 200 OK with key_id, ciphertext, the compact envelope and the format version.
func (h *FieldHandler) EncryptHandler(c *gin.Context) {
	var req dto.EncryptFieldRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := req.DecodePlaintext()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 plaintext: %w", err), h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	aad, err := req.DecodeAssociatedData()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 associated_data: %w", err), h.logger)
		return
	}

	envelope, err := h.policy.EncryptField(c.Request.Context(), h.requestContext(c), plaintext, aad)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEnvelopeToResponse(envelope))
}

// DecryptHandler verifies and opens an envelope.
// POST /v1/fields/decrypt
// Returns 200 OK with the base64 plaintext. Tampered data, a wrong AAD or a wrong key all
// return the same 422 response.
func (h *FieldHandler) DecryptHandler(c *gin.Context) {
	var req dto.DecryptFieldRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	envelope, err := req.ParseEnvelope()
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	aad, err := req.DecodeAssociatedData()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 associated_data: %w", err), h.logger)
		return
	}

	plaintext, err := h.policy.DecryptField(c.Request.Context(), h.requestContext(c), envelope, aad)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	c.JSON(http.StatusOK, dto.MapPlaintextToResponse(plaintext))
}

func (h *FieldHandler) requestContext(c *gin.Context) policyDomain.RequestContext {
	if request, ok := GetRequestContext(c.Request.Context()); ok {
		return request
	}
	return NewRequestContext(c, h.cfg)
}
