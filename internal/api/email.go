package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sensiq/coldmail/internal"
	"github.com/sensiq/coldmail/internal/content"
)

// emailRequest is the body of preview-email and send-email.
type emailRequest struct {
	content.Request
	Email string `json:"email"`
}

// EmailHandler serves single-recipient previews, sends and diagnostics.
type EmailHandler struct {
	campaign Campaign
}

func NewEmailHandler(c Campaign) *EmailHandler {
	return &EmailHandler{campaign: c}
}

func (h *EmailHandler) Routes(r internal.Router) {
	r.POST("/api/preview-email", h.preview)
	r.POST("/api/send-email", h.send)
	r.GET("/api/test-email-structure", h.testStructure)
	r.GET("/api/test-regular-email", h.testRegular)
}

func (h *EmailHandler) bind(c internal.Context) (emailRequest, error) {
	var in emailRequest
	if err := c.BindJSON(&in); err != nil {
		return in, internal.ErrBadRequest(msgJSONRequired, internal.WithError(err))
	}

	req, err := withDefaults(in.Request)
	if err != nil {
		return in, err
	}
	in.Request = req

	if err := h.campaign.Validate(in.Request); err != nil {
		return in, err
	}
	return in, nil
}

func (h *EmailHandler) preview(c internal.Context) error {
	in, err := h.bind(c)
	if err != nil {
		return err
	}

	p, err := h.campaign.Preview(c.Context(), in.Request, in.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"subject": p.Subject,
		"body":    p.Body,
	})
}

func (h *EmailHandler) send(c internal.Context) error {
	in, err := h.bind(c)
	if err != nil {
		return err
	}
	to := strings.TrimSpace(in.Email)
	if to == "" {
		return internal.ErrBadRequest(msgEmailRequired)
	}

	if err := h.campaign.Send(c.Context(), in.Request, to); err != nil {
		return err
	}

	c.LogInfo("email sent", slog.String("email_type", in.EmailType))
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Email sent successfully to " + to,
	})
}

func (h *EmailHandler) testStructure(c internal.Context) error {
	d, err := h.campaign.TestStructure(c.Context())
	if err != nil {
		return diagnosticError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Email structure verified",
		"structure": d.Structure,
	})
}

func (h *EmailHandler) testRegular(c internal.Context) error {
	d, err := h.campaign.TestRegular(c.Context())
	if err != nil {
		return diagnosticError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":                  true,
		"message":                  "Regular email structure verified",
		"structure":                d.Structure,
		"product_image_referenced": d.ProductImageReferenced,
		"body_excerpt":             d.BodyExcerpt,
	})
}

// diagnosticError renders the cause itself, since these endpoints exist
// to surface it.
func diagnosticError(err error) error {
	return internal.ErrInternal(err.Error(), internal.WithError(err))
}
