package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mobilevet/routefill/internal/gapfill"
	"github.com/mobilevet/routefill/pkg/logging"
)

const defaultSendTimeout = 20 * time.Second

// MessageSender dispatches one outreach message to a client.
type MessageSender interface {
	SendClientMessage(ctx context.Context, clientID, message string, overrideNonProd bool) error
}

// sendRequest is the wire shape of the SMS gateway call.
type sendRequest struct {
	Message         string `json:"message"`
	OverrideNonProd bool   `json:"overrideNonProd,omitempty"`
}

// GatewaySender posts outreach messages through the SMS gateway collaborator.
// Delivery guarantees are the gateway's responsibility.
type GatewaySender struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewGatewaySender builds a sender with sane defaults.
func NewGatewaySender(baseURL string, timeout time.Duration, logger *logging.Logger) *GatewaySender {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &GatewaySender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     otel.Tracer("routefill.internal.outreach.sender"),
	}
}

var _ MessageSender = (*GatewaySender)(nil)

// SendClientMessage posts the message to /sms/client/{clientId}. On failure
// the error carries the gateway's structured message when one is present.
func (s *GatewaySender) SendClientMessage(ctx context.Context, clientID, message string, overrideNonProd bool) error {
	if strings.TrimSpace(clientID) == "" {
		return fmt.Errorf("outreach: client id required")
	}

	ctx, span := s.tracer.Start(ctx, "outreach.send_client_message")
	defer span.End()

	body, err := json.Marshal(sendRequest{Message: message, OverrideNonProd: overrideNonProd})
	if err != nil {
		return fmt.Errorf("outreach: marshal request: %w", err)
	}

	endpoint := s.baseURL + "/sms/client/" + url.PathEscape(clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("outreach: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("outreach: gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("outreach: %s", gapfill.ExtractErrorMessage(respBody, fmt.Sprintf("gateway returned status %d", resp.StatusCode)))
	}

	s.logger.Info("outreach message sent", "client_id", clientID, "override", overrideNonProd)
	return nil
}
