package service

import (
	"context"
	"errors"

	"clinicdesk/internal/records/repository"
	"clinicdesk/pkg/client"
	"clinicdesk/pkg/config"
	apperrors "clinicdesk/pkg/errors"
	"clinicdesk/pkg/model"
	"clinicdesk/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type DocumentService interface {
	Upload(ctx context.Context, doc *model.PatientDocument) error
	ListByPatient(ctx context.Context, patientRef string) ([]*model.PatientDocument, error)
}

// DiagnosticsAnalyzer runs an uploaded document through the external
// diagnostics service.
type DiagnosticsAnalyzer interface {
	Analyze(ctx context.Context, patientRef, kind string, document []byte) (*client.AnalysisResult, error)
}

type documentService struct {
	repo        repository.DocumentRepository
	diagnostics DiagnosticsAnalyzer
	validate    *validator.Validate
	cfg         *config.Config
}

func NewDocumentService(
	repo repository.DocumentRepository,
	diagnostics DiagnosticsAnalyzer,
	cfg *config.Config,
) DocumentService {
	return &documentService{
		repo:        repo,
		diagnostics: diagnostics,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

func (s *documentService) Upload(ctx context.Context, doc *model.PatientDocument) error {
	doc.FileName = sanitizer.TrimAndNormalize(doc.FileName)
	doc.PatientRef = sanitizer.TrimAndNormalize(doc.PatientRef)

	if err := s.validate.Struct(doc); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			s.cfg.Log.Warn("Document validation failed", "patient_ref", doc.PatientRef, "error", err)
			return apperrors.Validation("Document validation failed", map[string]any{"error": err.Error()})
		}
		return apperrors.Internal("Document validation failed", err)
	}

	s.analyze(ctx, doc)

	if err := s.repo.Create(ctx, doc); err != nil {
		s.cfg.Log.Error("Failed to store patient document", "patient_ref", doc.PatientRef, "error", err)
		return apperrors.Internal("Failed to store patient document", err)
	}

	s.cfg.Log.Info("Patient document stored",
		"id", doc.ID,
		"patient_ref", doc.PatientRef,
		"kind", doc.Kind,
		"analyzed", doc.Findings != "",
	)
	return nil
}

// analyze attaches diagnostics findings when the service is configured.
// Analysis failure degrades to storing the bare document.
func (s *documentService) analyze(ctx context.Context, doc *model.PatientDocument) {
	if s.diagnostics == nil {
		return
	}

	result, err := s.diagnostics.Analyze(ctx, doc.PatientRef, string(doc.Kind), doc.Content)
	if err != nil {
		s.cfg.Log.Warn("Diagnostics analysis failed, storing document without findings",
			"patient_ref", doc.PatientRef,
			"kind", doc.Kind,
			"error", err,
		)
		return
	}

	doc.Findings = string(result.Findings)
	doc.Summary = result.Summary
}

func (s *documentService) ListByPatient(ctx context.Context, patientRef string) ([]*model.PatientDocument, error) {
	if patientRef == "" {
		return nil, apperrors.InvalidInput("Patient reference cannot be empty")
	}

	docs, err := s.repo.FindByPatientRef(ctx, patientRef)
	if err != nil {
		s.cfg.Log.Error("Failed to list patient documents", "patient_ref", patientRef, "error", err)
		return nil, apperrors.Internal("Failed to retrieve patient documents", err)
	}

	return docs, nil
}
