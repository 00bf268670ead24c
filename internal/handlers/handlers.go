package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
	"github.com/Brownie44l1/agrosathi-api/internal/enrichment"
	"github.com/Brownie44l1/agrosathi-api/internal/notify"
	"github.com/Brownie44l1/agrosathi-api/internal/service"
)

const defaultMaxUploadBytes = 10 << 20

type Options struct {
	Service      *service.Service
	Sender       notify.Sender
	ModelVersion string
	Classes      int
	// MaxUploadBytes caps classification request bodies. Zero means 10 MiB.
	MaxUploadBytes int64
	AllowedOrigin  string
	Logger         *slog.Logger
}

type Handler struct {
	svc           *service.Service
	sender        notify.Sender
	modelVersion  string
	classes       int
	maxUpload     int64
	allowedOrigin string
	logger        *slog.Logger
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		svc:           opts.Service,
		sender:        opts.Sender,
		modelVersion:  opts.ModelVersion,
		classes:       opts.Classes,
		maxUpload:     opts.MaxUploadBytes,
		allowedOrigin: opts.AllowedOrigin,
		logger:        opts.Logger,
	}
	if h.maxUpload <= 0 {
		h.maxUpload = defaultMaxUploadBytes
	}
	if h.allowedOrigin == "" {
		h.allowedOrigin = "*"
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.sender == nil {
		h.sender = notify.NewLogSender(h.logger)
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"model_version": h.modelVersion,
		"classes":       h.classes,
	})
}

// Classify takes a multipart upload with an "image" file and optional
// "latitude", "longitude" and "phone" fields.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatusError(w, http.StatusRequestEntityTooLarge, apperror.CodeInvalidInput,
				fmt.Sprintf("upload exceeds %d bytes", h.maxUpload))
			return
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			h.writeError(w, r, apperror.MissingImage())
			return
		}
		h.writeError(w, r, apperror.InvalidRequest("failed to parse form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, r, apperror.MissingImage())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, apperror.InvalidRequest("failed to read image", err))
		return
	}

	coords, err := h.formCoordinates(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "image received",
		"filename", header.Filename,
		"size", len(data),
	)

	resp, err := h.svc.Classify(r.Context(), data, coords)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp.RequestID = RequestIDFromContext(r.Context())

	if phone := strings.TrimSpace(r.FormValue("phone")); phone != "" {
		resp.MessageID = h.notifyDiagnosis(r.Context(), phone, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// notifyDiagnosis sends the diagnosis summary to phone. Delivery problems are
// logged and never fail the classification.
func (h *Handler) notifyDiagnosis(ctx context.Context, phone string, resp *service.ClassificationResponse) string {
	id, err := h.sender.Send(ctx, notify.Message{
		Phone: phone,
		Body:  notify.Truncate(resp.Summary()),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "diagnosis message not delivered", "error", err)
		return ""
	}
	return id
}

type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Weather takes a JSON body with both coordinates.
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	var req coordinatesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, apperror.InvalidRequest("invalid JSON body", err))
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		h.writeError(w, r, apperror.MissingCoordinates())
		return
	}

	resp, err := h.svc.CurrentWeather(r.Context(), enrichment.Coordinates{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Location takes a JSON body with both coordinates and names the place.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	var req coordinatesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, apperror.InvalidRequest("invalid JSON body", err))
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		h.writeError(w, r, apperror.MissingCoordinates())
		return
	}

	resp, err := h.svc.Locate(r.Context(), enrichment.Coordinates{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Send hands a text message to the configured sender.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var msg notify.Message
	if err := decodeJSON(r, &msg); err != nil {
		h.writeError(w, r, apperror.InvalidRequest("invalid JSON body", err))
		return
	}
	msg.Phone = strings.TrimSpace(msg.Phone)
	if msg.Phone == "" || strings.TrimSpace(msg.Body) == "" {
		h.writeError(w, r, apperror.InvalidRequest("phone and message are required", nil))
		return
	}
	msg.Body = notify.Truncate(msg.Body)

	id, err := h.sender.Send(r.Context(), msg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"message":    "Message sent successfully",
		"message_id": id,
	})
}

// formCoordinates reads the optional coordinate fields. Each one missing
// falls back to its own default; nil means both were absent.
func (h *Handler) formCoordinates(r *http.Request) (*enrichment.Coordinates, error) {
	latRaw := strings.TrimSpace(r.FormValue("latitude"))
	lonRaw := strings.TrimSpace(r.FormValue("longitude"))
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}

	coords := h.svc.Defaults()
	if latRaw != "" {
		v, err := strconv.ParseFloat(latRaw, 64)
		if err != nil {
			return nil, apperror.InvalidRequest("latitude must be a number", err)
		}
		coords.Latitude = v
	}
	if lonRaw != "" {
		v, err := strconv.ParseFloat(lonRaw, 64)
		if err != nil {
			return nil, apperror.InvalidRequest("longitude must be a number", err)
		}
		coords.Longitude = v
	}
	return &coords, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	switch {
	case errors.Is(err, apperror.ErrCanceled):
		h.logger.InfoContext(r.Context(), "request canceled", "path", r.URL.Path, "error", err)
	case status >= http.StatusInternalServerError:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeStatusError(w, status, apperror.CodeOf(err), apperror.PublicMessage(err))
}
