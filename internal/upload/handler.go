package upload

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gramline/service/internal/media"
	"github.com/gramline/service/internal/response"
)

const (
	defaultListLimit  = 100
	defaultPresignTTL = time.Hour
	maxPresignTTL     = 7 * 24 * time.Hour
)

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type progressData struct {
	Progress float64 `json:"progress" example:"0.66"`
}

type presignData struct {
	URL string `json:"url"`
}

// UploadBatch godoc
//
//	@Summary		Archive an image batch to object storage
//	@Description	Accepts multipart "images" files and uploads them sequentially with server-side encryption. All-or-nothing: the first failure aborts the batch.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			images	formData	file	true	"image files (JPEG or PNG)"
//	@Success		200		{object}	response.Envelope{data=[]Descriptor}
//	@Failure		400		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/uploads [post]
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	items, err := media.ItemsFromMultipart(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	descriptors, err := h.svc.UploadBatch(r.Context(), items)
	if errors.Is(err, ErrMissingConfiguration) {
		response.ServiceUnavailable(w, err.Error())
		return
	}
	if err != nil {
		response.BadGateway(w, err.Error())
		return
	}

	response.OK(w, descriptors)
}

// Progress godoc
//
//	@Summary		Current batch progress
//	@Description	Fraction of the running (or last) upload batch that has completed, in [0, 1].
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=progressData}
//	@Router			/uploads/progress [get]
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]float64{"progress": h.svc.Progress()})
}

// List godoc
//
//	@Summary		List archived objects
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"maximum keys to return"	default(100)
//	@Success		200		{object}	response.Envelope{data=[]string}
//	@Failure		502		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/uploads [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	keys, err := h.svc.List(r.Context(), limit)
	if errors.Is(err, ErrMissingConfiguration) {
		response.ServiceUnavailable(w, err.Error())
		return
	}
	if err != nil {
		response.BadGateway(w, err.Error())
		return
	}

	response.OK(w, keys)
}

// PresignURL godoc
//
//	@Summary		Presign a retrieval URL
//	@Description	Returns a time-bounded GET URL for a stored key.
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key			query		string	true	"object key"
//	@Param			ttl_seconds	query		int		false	"URL validity in seconds"	default(3600)
//	@Success		200			{object}	response.Envelope{data=presignData}
//	@Failure		400			{object}	response.Envelope
//	@Failure		502			{object}	response.Envelope
//	@Failure		503			{object}	response.Envelope
//	@Router			/uploads/url [get]
func (h *Handler) PresignURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	ttl := defaultPresignTTL
	if raw := r.URL.Query().Get("ttl_seconds"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || time.Duration(n)*time.Second > maxPresignTTL {
			response.BadRequest(w, "ttl_seconds must be between 1 and 604800")
			return
		}
		ttl = time.Duration(n) * time.Second
	}

	u, err := h.svc.PresignedURL(r.Context(), key, ttl)
	if errors.Is(err, ErrMissingConfiguration) {
		response.ServiceUnavailable(w, err.Error())
		return
	}
	if err != nil {
		response.BadGateway(w, err.Error())
		return
	}

	response.OK(w, map[string]string{"url": u})
}

// Delete godoc
//
//	@Summary		Delete an archived object
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	query		string	true	"object key"
//	@Success		200	{object}	response.Envelope
//	@Failure		400	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Failure		503	{object}	response.Envelope
//	@Router			/uploads [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	err := h.svc.Delete(r.Context(), key)
	if errors.Is(err, ErrMissingConfiguration) {
		response.ServiceUnavailable(w, err.Error())
		return
	}
	if err != nil {
		response.BadGateway(w, err.Error())
		return
	}

	response.OK(w, map[string]bool{"success": true})
}
