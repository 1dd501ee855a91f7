package auth

import (
	"errors"
	"net/http"

	"github.com/gramline/service/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type sessionData struct {
	Token string `json:"token" example:"eyJhbGci..."`
}

type statusData struct {
	Authenticated bool `json:"authenticated" example:"true"`
}

// Login godoc
//
//	@Summary		Start Instagram login
//	@Description	Redirects the browser to the Instagram authorization endpoint with the configured client ID, redirect target, and scopes.
//	@Tags			auth
//	@Success		302
//	@Router			/auth/login [get]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.svc.AuthorizationURL(), http.StatusFound)
}

// Callback godoc
//
//	@Summary		OAuth redirect callback
//	@Description	Consumes the provider redirect. With a code parameter the full exchange runs and a session token is returned; with an error parameter the attempt fails and no credential is written.
//	@Tags			auth
//	@Produce		json
//	@Param			code	query		string	false	"authorization code"
//	@Param			error	query		string	false	"provider error"
//	@Success		200		{object}	response.Envelope{data=sessionData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/auth/callback [get]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	res, err := ParseCallback(r.URL.Query())
	if err != nil {
		response.BadRequest(w, "callback must carry a code or error parameter")
		return
	}

	token, err := h.svc.CompleteCallback(r.Context(), res)
	if errors.Is(err, ErrExchangeFailed) {
		response.BadGateway(w, err.Error())
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	data := map[string]interface{}{"token": token}
	if p := h.svc.Profile(); p != nil {
		data["profile"] = p
	}
	response.OK(w, data)
}

// Cancel godoc
//
//	@Summary		Report a cancelled login
//	@Description	Called by the UI when the user dismisses the authentication session. Logged, no state changes.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	response.Envelope
//	@Router			/auth/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	_, _ = h.svc.CompleteCallback(r.Context(), Cancelled())
	response.OK(w, map[string]bool{"cancelled": true})
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Clears the committed credential and cached profile. Idempotent.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]bool{"success": true})
}

// Status godoc
//
//	@Summary		Authentication status
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=statusData}
//	@Router			/auth/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]bool{"authenticated": h.svc.IsAuthenticated()})
}

// Me godoc
//
//	@Summary		Current account profile
//	@Description	Returns the cached profile snapshot, fetching it from the provider if none is cached yet.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=instagram.UserProfile}
//	@Failure		401	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.svc.IsAuthenticated() {
		response.Unauthorized(w, "not authenticated")
		return
	}

	p := h.svc.Profile()
	if p == nil {
		var err error
		p, err = h.svc.FetchProfile(r.Context())
		if err != nil || p == nil {
			response.BadGateway(w, "profile fetch failed")
			return
		}
	}
	response.OK(w, p)
}
