package gapfill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mobilevet/routefill/internal/observability/metrics"
	"github.com/mobilevet/routefill/pkg/logging"
)

const (
	defaultTimeout = 60 * time.Second

	// Organizational policy, not a per-run preference: a gap-fill visit may
	// push the provider's return to depot past end of day, up to this cap.
	returnToDepotPolicy = "afterHoursOk"
	tailOvertimeMinutes = 120
)

// fetchRequest is the wire shape sent to the route optimizer.
type fetchRequest struct {
	ProviderID          string `json:"providerId"`
	TargetDate          string `json:"targetDate"`
	IgnoreReserveBlocks bool   `json:"ignoreReserveBlocks"`
	ReturnToDepotPolicy string `json:"returnToDepotPolicy"`
	TailOvertimeMinutes int    `json:"tailOvertimeMinutes"`
}

// Client calls the external scheduling collaborator that runs the route
// optimizer. Pure request/response; it never caches or mutates candidates.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.WorkflowMetrics
	tracer     trace.Tracer
}

// NewClient creates an optimizer client.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger, m *metrics.WorkflowMetrics) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("routefill.internal.gapfill.client"),
	}
}

// FetchCandidates asks the optimizer for gap-fill candidates for one
// provider+day. Missing inputs fail locally before any network call. The
// depot-return policy and overtime allowance are always forced.
func (c *Client) FetchCandidates(ctx context.Context, providerID, targetDate string) (*FetchResult, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, ErrMissingProvider
	}
	if strings.TrimSpace(targetDate) == "" {
		return nil, ErrMissingDate
	}

	ctx, span := c.tracer.Start(ctx, "gapfill.fetch_candidates")
	defer span.End()

	body, err := json.Marshal(fetchRequest{
		ProviderID:          providerID,
		TargetDate:          targetDate,
		IgnoreReserveBlocks: true,
		ReturnToDepotPolicy: returnToDepotPolicy,
		TailOvertimeMinutes: tailOvertimeMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("gapfill: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scheduling/gapfill/candidates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gapfill: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveFetch("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("gapfill: optimizer request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveFetch("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("gapfill: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveFetch("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("gapfill: %s", ExtractErrorMessage(respBody, fmt.Sprintf("optimizer returned status %d", resp.StatusCode)))
	}

	var result FetchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.metrics.ObserveFetch("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("gapfill: unmarshal response: %w", err)
	}

	// Candidates inherit the requested day so downstream previews do not
	// have to re-derive it from timestamps.
	for i := range result.Candidates {
		if result.Candidates[i].TargetDate == "" {
			result.Candidates[i].TargetDate = targetDate
		}
	}

	c.metrics.ObserveFetch("ok", time.Since(start).Seconds())
	c.logger.Info("fetched gap-fill candidates",
		"provider_id", providerID,
		"target_date", targetDate,
		"count", len(result.Candidates),
		"holes_found", result.Stats.HolesFound,
	)
	return &result, nil
}

// ExtractErrorMessage pulls a human-readable message out of a structured
// backend error payload, falling back to the supplied generic string.
func ExtractErrorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if strings.TrimSpace(payload.Message) != "" {
			return payload.Message
		}
		if strings.TrimSpace(payload.Error) != "" {
			return payload.Error
		}
	}
	return fallback
}
