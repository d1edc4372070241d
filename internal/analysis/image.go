package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ImageAnalysis is the result of scoring a set of image URLs.
type ImageAnalysis struct {
	HasText        bool    `json:"has_text"`
	ExtractedText  string  `json:"extracted_text,omitempty"`
	AdultContent   float64 `json:"adult_content"`   // 0..1
	Violence       float64 `json:"violence"`        // 0..1
	MedicalContent float64 `json:"medical_content"` // 0..1
}

// ImageAnalyzer scores image URLs. Implementations are remote, latent and
// fallible; a failure or timeout must degrade screening to pending_review,
// never to silent approval.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, urls []string) (*ImageAnalysis, error)
}

// HTTPImageAnalyzer calls an external vision service over HTTP.
type HTTPImageAnalyzer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPImageAnalyzer returns an analyzer posting to the given endpoint
// with the given per-request timeout.
func NewHTTPImageAnalyzer(endpoint string, timeout time.Duration) *HTTPImageAnalyzer {
	return &HTTPImageAnalyzer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Analyze posts the URL list and decodes the scores.
func (a *HTTPImageAnalyzer) Analyze(ctx context.Context, urls []string) (*ImageAnalysis, error) {
	body, err := json.Marshal(map[string][]string{"urls": urls})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image analysis returned status %d", resp.StatusCode)
	}

	var out ImageAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("image analysis response decode failed: %w", err)
	}
	return &out, nil
}

// NoopImageAnalyzer returns zero scores for every input. Used when no
// vision service is configured.
type NoopImageAnalyzer struct{}

// Analyze returns an empty analysis.
func (NoopImageAnalyzer) Analyze(_ context.Context, _ []string) (*ImageAnalysis, error) {
	return &ImageAnalysis{}, nil
}
