package schedule

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mobilevet/routefill/internal/gapfill"
	"github.com/mobilevet/routefill/internal/observability/metrics"
	"github.com/mobilevet/routefill/pkg/logging"
)

// PreviewOption is the ephemeral data behind one provisional appointment
// preview. It is rebuilt on every request and never persisted.
type PreviewOption struct {
	TargetDate        string    `json:"targetDate"`
	InsertionIndex    int       `json:"insertionIndex"`
	SuggestedStart    time.Time `json:"suggestedStart"`
	ProviderID        string    `json:"providerId"`
	ProviderName      string    `json:"providerName,omitempty"`
	AddedDriveSeconds int       `json:"addedDriveSeconds"`
	ServiceMinutes    int       `json:"serviceMinutes"`
	ClientName        string    `json:"clientName"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
}

// Resolver assembles preview options for chosen candidates. Provider identity
// resolutions go through the shared cache; a miss costs exactly one lookup.
type Resolver struct {
	employees EmployeeLookup
	cache     ProviderIDCache
	logger    *logging.Logger
	metrics   *metrics.WorkflowMetrics
	tracer    trace.Tracer
}

// NewResolver creates a preview resolver.
func NewResolver(employees EmployeeLookup, cache ProviderIDCache, logger *logging.Logger, m *metrics.WorkflowMetrics) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	if cache == nil {
		cache = NewMemoryProviderCache()
	}
	return &Resolver{
		employees: employees,
		cache:     cache,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("routefill.internal.schedule.resolver"),
	}
}

// ResolvePreview builds the provisional-appointment preview for a candidate.
// It fails explicitly on any unusable input rather than degrading silently.
func (r *Resolver) ResolvePreview(ctx context.Context, c *gapfill.Candidate) (*PreviewOption, error) {
	ctx, span := r.tracer.Start(ctx, "schedule.resolve_preview")
	defer span.End()

	start, ok := gapfill.ParseTimestamp(c.ProposedStart)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, c.ProposedStart)
	}

	externalID, err := ParseProviderDeepLink(c.DeepLink)
	if err != nil {
		return nil, err
	}

	ref, err := r.resolveProvider(ctx, externalID)
	if err != nil {
		return nil, err
	}

	date, err := NormalizeDate(c.TargetDate, start)
	if err != nil {
		return nil, err
	}

	return &PreviewOption{
		TargetDate:        date,
		InsertionIndex:    InsertionIndex(c.HoleIndex),
		SuggestedStart:    start,
		ProviderID:        ref.InternalID,
		ProviderName:      ref.Name,
		AddedDriveSeconds: c.AddedDriveSeconds,
		ServiceMinutes:    ServiceMinutes(c.RequiredDurationS),
		ClientName:        c.ClientName,
		// The candidate's own coordinates, never borrowed from an existing
		// appointment on the route.
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}, nil
}

func (r *Resolver) resolveProvider(ctx context.Context, externalID string) (ProviderRef, error) {
	ref, hit, err := r.cache.Get(ctx, externalID)
	if err != nil {
		r.logger.Error("provider cache read failed, falling through to lookup", "external_id", externalID, "error", err)
	}
	if hit && ref.InternalID != "" {
		r.metrics.ObserveResolution("hit")
		return ref, nil
	}

	r.metrics.ObserveResolution("miss")
	ref, err = r.employees.LookupByExternalID(ctx, externalID)
	if err != nil {
		r.metrics.ObserveResolution("error")
		return ProviderRef{}, fmt.Errorf("%w: %v", ErrUnresolvedProvider, err)
	}
	if ref.InternalID == "" {
		r.metrics.ObserveResolution("error")
		return ProviderRef{}, fmt.Errorf("%w: external id %q", ErrUnresolvedProvider, externalID)
	}

	// Only positive results are cached; a later attempt may retry a failure.
	if err := r.cache.Put(ctx, externalID, ref); err != nil {
		r.logger.Error("provider cache write failed", "external_id", externalID, "error", err)
	}
	return ref, nil
}

const deepLinkMarker = "appointments/doctor/"

// ParseProviderDeepLink extracts the provider's external id from a deep link
// of the form .../appointments/doctor/<externalId>. Custom URL schemes place
// the first path element in the host, so the pattern is matched on the raw
// link rather than on parsed path segments.
func ParseProviderDeepLink(link string) (string, error) {
	idx := strings.Index(link, deepLinkMarker)
	if idx < 0 {
		return "", ErrUnparseableLink
	}
	rest := link[idx+len(deepLinkMarker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", ErrUnparseableLink
	}
	return rest, nil
}

// InsertionIndex converts the optimizer's 1-based hole index to the 0-based
// schedule insertion position, clamping malformed indices to 0.
func InsertionIndex(holeIndex int) int {
	if holeIndex <= 1 {
		return 0
	}
	return holeIndex - 1
}

// NormalizeDate produces the strict YYYY-MM-DD the preview consumer parses
// without further validation. The candidate's target date wins when present;
// otherwise the date is derived from the proposed start.
func NormalizeDate(targetDate string, fallback time.Time) (string, error) {
	value := strings.TrimSpace(targetDate)
	if value == "" {
		return fallback.Format("2006-01-02"), nil
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.Format("2006-01-02"), nil
	}
	if ts, ok := gapfill.ParseTimestamp(value); ok {
		return ts.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDateFormat, targetDate)
}

// ServiceMinutes rounds the required duration to whole minutes for display,
// with a one minute floor. The underlying duration is never mutated.
func ServiceMinutes(requiredSeconds int) int {
	minutes := int(math.Round(float64(requiredSeconds) / 60.0))
	if minutes < 1 {
		return 1
	}
	return minutes
}
