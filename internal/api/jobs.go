package api

import (
	"errors"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/sensiq/coldmail/internal"
	"github.com/sensiq/coldmail/internal/batch"
	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/internal/tracker"
)

// MaxUploadSize is the largest accepted spreadsheet.
const MaxUploadSize = 16 << 20

// multipart framing allowance on top of the file itself
const uploadOverhead = 1 << 20

// processRequest is the body of process-excel.
type processRequest struct {
	JobID             string   `json:"job_id"`
	EmailColumn       string   `json:"email_column"`
	AdditionalColumns []string `json:"additional_columns"`
	content.Request
}

func (p processRequest) complete() bool {
	return p.JobID != "" && p.EmailColumn != "" && p.EmailType != "" &&
		p.RecipientType != "" && p.Country != "" && p.Language != ""
}

// JobHandler serves bulk uploads and job progress.
type JobHandler struct {
	tracker    *tracker.Tracker
	campaign   Campaign
	deliveries Deliveries
}

// NewJobHandler creates the job routes. deliveries may be nil, in which
// case the deliveries route is not registered.
func NewJobHandler(t *tracker.Tracker, c Campaign, deliveries Deliveries) *JobHandler {
	return &JobHandler{tracker: t, campaign: c, deliveries: deliveries}
}

func (h *JobHandler) Routes(r internal.Router) {
	r.POST("/api/upload-excel", h.upload)
	r.POST("/api/process-excel", h.process)
	r.GET("/api/job-status/{id}", h.status)
	r.POST("/api/job-cancel/{id}", h.cancel)
	if h.deliveries != nil {
		r.GET("/api/job-deliveries/{id}", h.listDeliveries)
	}
}

func (h *JobHandler) upload(c internal.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, MaxUploadSize+uploadOverhead)

	file, header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return internal.ErrBadRequest(msgNoFilePart, internal.WithError(err))
	}
	defer file.Close()

	if header.Filename == "" {
		return internal.ErrBadRequest(msgNoFileSelected)
	}
	if !slices.Contains(batch.Extensions, strings.ToLower(path.Ext(header.Filename))) {
		return internal.ErrBadRequest(msgInvalidFormat)
	}

	created, err := h.tracker.Create(c.Context(), tracker.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		return err
	}

	c.LogInfo("spreadsheet uploaded", "job_id", created.ID, "columns", len(created.Columns))
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"job_id":  created.ID,
		"columns": created.Columns,
		"message": "File uploaded successfully",
	})
}

func (h *JobHandler) process(c internal.Context) error {
	var in processRequest
	if err := c.BindJSON(&in); err != nil {
		return internal.ErrBadRequest(msgNoData, internal.WithError(err))
	}
	if !in.complete() {
		if in.JobID == "" && in.EmailColumn == "" && in.Request == (content.Request{}) {
			return internal.ErrBadRequest(msgNoData)
		}
		return internal.ErrBadRequest(msgMissingParams)
	}

	req, err := withDefaults(in.Request)
	if err != nil {
		return err
	}
	if err := h.campaign.Validate(req); err != nil {
		return err
	}

	total, err := h.tracker.Start(c.Context(), in.JobID, tracker.SendConfig{
		EmailColumn:  in.EmailColumn,
		ExtraColumns: in.AdditionalColumns,
		Request:      req,
	})
	if errors.Is(err, tracker.ErrNotFound) {
		return internal.ErrBadRequest(msgInvalidJobID, internal.WithError(err))
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"job_id":       in.JobID,
		"message":      "Email sending process started",
		"total_emails": total,
	})
}

func (h *JobHandler) status(c internal.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Status(c.Param("id")))
}

func (h *JobHandler) cancel(c internal.Context) error {
	id := c.Param("id")
	if err := h.tracker.Cancel(id); err != nil {
		return err
	}
	c.LogInfo("job cancel requested", "job_id", id)
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Job cancellation requested",
	})
}

func (h *JobHandler) listDeliveries(c internal.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return internal.ErrBadRequest(msgInvalidJobID, internal.WithError(err))
	}

	deliveries, err := h.deliveries.List(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"deliveries": deliveries,
	})
}
