package model

import "time"

type DocumentKind string

const (
	DocXray     DocumentKind = "xray"
	DocReferral DocumentKind = "referral"
	DocLab      DocumentKind = "lab_result"
	DocNote     DocumentKind = "note"
)

// PatientDocument is an uploaded artifact attached to a patient record.
// Findings holds the raw JSON returned by the diagnostics service; the
// scheduler stores it opaquely and never interprets it.
type PatientDocument struct {
	ID         string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PatientRef string       `json:"patient_ref" bson:"patient_ref" validate:"required,min=1,max=64"`
	Kind       DocumentKind `json:"kind" bson:"kind" validate:"required,oneof=xray referral lab_result note"`
	FileName   string       `json:"file_name" bson:"file_name" validate:"required,min=1,max=255"`
	Content    []byte       `json:"content,omitempty" bson:"content" validate:"required,max=10485760"`
	Findings   string       `json:"findings,omitempty" bson:"findings,omitempty"`
	Summary    string       `json:"summary,omitempty" bson:"summary,omitempty"`
	UploadedAt time.Time    `json:"uploaded_at" bson:"uploaded_at"`
}
