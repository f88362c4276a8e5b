package handler

import (
	"encoding/json"
	"net/http"

	"clinicdesk/internal/records/service"
	httputil "clinicdesk/pkg/http"
	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type DocumentHandler struct {
	service service.DocumentService
	log     *logger.Logger
}

func NewDocumentHandler(service service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		log:     log,
	}
}

type uploadRequest struct {
	Kind     model.DocumentKind `json:"kind"`
	FileName string             `json:"file_name"`
	Content  []byte             `json:"content"` // base64 in JSON
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Upload", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	doc := &model.PatientDocument{
		PatientRef: ps.ByName("patientRef"),
		Kind:       req.Kind,
		FileName:   req.FileName,
		Content:    req.Content,
	}

	if err := h.service.Upload(r.Context(), doc); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Upload", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	// Echo back without the payload.
	doc.Content = nil
	if err := httputil.WriteCreated(w, doc); err != nil {
		h.log.Error("failed to write created response", "handler", "Upload", "operation", "WriteCreated", "error", err)
	}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docs, err := h.service.ListByPatient(r.Context(), ps.ByName("patientRef"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, docs); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DocumentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/patients/:patientRef/documents", h.Upload)
	router.GET("/api/v1/patients/:patientRef/documents", h.List)
}
