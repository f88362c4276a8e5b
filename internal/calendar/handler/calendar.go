package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"clinicdesk/internal/calendar/service"
	apperrors "clinicdesk/pkg/errors"
	httputil "clinicdesk/pkg/http"
	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CalendarHandler struct {
	service service.CalendarService
	log     *logger.Logger
}

func NewCalendarHandler(service service.CalendarService, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		service: service,
		log:     log,
	}
}

// parseCursorParams reads the anchor/view query pair shared by the read
// endpoints. The anchor accepts RFC3339 or a bare date.
func (h *CalendarHandler) parseCursorParams(r *http.Request) (time.Time, model.View, error) {
	query := r.URL.Query()

	anchorStr := query.Get("anchor")
	if anchorStr == "" {
		return time.Time{}, "", apperrors.InvalidInput("'anchor' query parameter is required")
	}

	anchor, err := time.Parse(time.RFC3339, anchorStr)
	if err != nil {
		anchor, err = time.Parse("2006-01-02", anchorStr)
		if err != nil {
			return time.Time{}, "", apperrors.InvalidInput("invalid 'anchor' format, must be RFC3339 or YYYY-MM-DD")
		}
	}

	view := model.View(query.Get("view"))
	if view == "" {
		return time.Time{}, "", apperrors.InvalidInput("'view' query parameter is required")
	}

	return anchor, view, nil
}

func (h *CalendarHandler) Cells(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	anchor, view, err := h.parseCursorParams(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cells", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	cells, err := h.service.Cells(r.Context(), anchor, view)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cells", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cells); err != nil {
		h.log.Error("failed to write success response", "handler", "Cells", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) Grid(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	anchor, view, err := h.parseCursorParams(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Grid", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	grid, err := h.service.Grid(r.Context(), anchor, view)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Grid", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, grid); err != nil {
		h.log.Error("failed to write success response", "handler", "Grid", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) Navigate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Navigate", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	cursor, err := h.service.Navigate(r.Context(), req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Navigate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cursor); err != nil {
		h.log.Error("failed to write success response", "handler", "Navigate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/calendar/cells", h.Cells)
	router.GET("/api/v1/calendar/grid", h.Grid)
	router.POST("/api/v1/calendar/navigate", h.Navigate)
}
