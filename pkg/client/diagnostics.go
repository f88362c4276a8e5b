package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AnalysisResult is whatever the Diagnostic Analysis Service returned.
// Findings are opaque to this service: stored next to the patient record,
// never interpreted, never consulted by scheduling.
type AnalysisResult struct {
	Findings json.RawMessage `json:"findings"`
	Summary  string          `json:"summary,omitempty"`
}

// DiagnosticsClient submits uploaded patient documents (prescriptions,
// X-rays, photos) to the external Diagnostic Analysis Service. Calls may be
// slow or fail; the caller records the outcome and moves on - nothing here
// is retried.
type DiagnosticsClient struct {
	httpClient *HttpClient
}

func NewDiagnosticsClient(baseURL string, timeout time.Duration) *DiagnosticsClient {
	return &DiagnosticsClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

type analyzeRequest struct {
	PatientRef string `json:"patient_ref"`
	Kind       string `json:"kind"`
	Document   []byte `json:"document"`
}

func (c *DiagnosticsClient) Analyze(ctx context.Context, patientRef, kind string, document []byte) (*AnalysisResult, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/analyses", analyzeRequest{
		PatientRef: patientRef,
		Kind:       kind,
		Document:   document,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("diagnostic analysis service returned status %d", resp.StatusCode)
	}

	var result AnalysisResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis result: %w", err)
	}
	return &result, nil
}
