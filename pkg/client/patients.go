package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// PatientInfo is the subset of the Patient Directory record the scheduler
// cares about; everything else about patients lives outside this service.
type PatientInfo struct {
	Ref         string `json:"ref"`
	DisplayName string `json:"display_name"`
}

// PatientDirectoryClient is a read-only lookup against the external Patient
// Directory (patient ref -> display name).
type PatientDirectoryClient struct {
	httpClient *HttpClient
}

func NewPatientDirectoryClient(baseURL string, timeout time.Duration) *PatientDirectoryClient {
	return &PatientDirectoryClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

func (c *PatientDirectoryClient) GetByRef(ctx context.Context, ref string) (*PatientInfo, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/patients/"+url.PathEscape(ref))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("patient %s not found in directory", ref)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("patient directory returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data PatientInfo `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode patient directory response: %w", err)
	}
	return &wrapper.Data, nil
}
