package publish

import (
	"errors"
	"net/http"

	"github.com/gramline/service/internal/media"
	"github.com/gramline/service/internal/response"
)

// Handler holds HTTP handlers for publish endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new publish Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type publishData struct {
	PublishedIDs []string `json:"publishedIds"`
}

// PublishBatch godoc
//
//	@Summary		Publish an image batch to Instagram
//	@Description	Accepts multipart "images" files, stages each as a media container, then publishes all containers in order. All-or-nothing: the first failure aborts the batch and no IDs are returned.
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			images	formData	file	true	"image files (JPEG or PNG)"
//	@Success		200		{object}	response.Envelope{data=publishData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/media/publish [post]
func (h *Handler) PublishBatch(w http.ResponseWriter, r *http.Request) {
	items, err := media.ItemsFromMultipart(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	ids, err := h.svc.PublishBatch(r.Context(), items)
	if errors.Is(err, ErrNotAuthenticated) {
		response.Unauthorized(w, "not authenticated")
		return
	}
	if err != nil {
		response.BadGateway(w, err.Error())
		return
	}

	response.OK(w, map[string]interface{}{"publishedIds": ids})
}
