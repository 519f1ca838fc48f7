package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mobilevet/routefill/pkg/logging"
)

const defaultLookupTimeout = 20 * time.Second

// EmployeeLookup resolves an external provider id to an employee record.
type EmployeeLookup interface {
	LookupByExternalID(ctx context.Context, externalID string) (ProviderRef, error)
}

// EmployeeClient queries the employee service for provider records.
type EmployeeClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewEmployeeClient creates an employee lookup client.
func NewEmployeeClient(baseURL string, timeout time.Duration, logger *logging.Logger) *EmployeeClient {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &EmployeeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ EmployeeLookup = (*EmployeeClient)(nil)

// flexID tolerates string or numeric ids on the wire.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	return fmt.Errorf("schedule: id is neither string nor number")
}

type employeeRecord struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	Employee *struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
	} `json:"employee"`
}

func (r employeeRecord) ref() ProviderRef {
	ref := ProviderRef{InternalID: string(r.ID), Name: r.Name}
	if ref.InternalID == "" && r.Employee != nil {
		ref.InternalID = string(r.Employee.ID)
		if ref.Name == "" {
			ref.Name = r.Employee.Name
		}
	}
	return ref
}

// LookupByExternalID fetches /employees/external/{externalId}. The backend
// answers with either a single record or an array; the internal id may sit at
// the top level or under a nested employee object.
func (c *EmployeeClient) LookupByExternalID(ctx context.Context, externalID string) (ProviderRef, error) {
	endpoint := c.baseURL + "/employees/external/" + url.PathEscape(externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProviderRef{}, fmt.Errorf("schedule: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProviderRef{}, fmt.Errorf("schedule: employee lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ProviderRef{}, fmt.Errorf("schedule: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ProviderRef{}, fmt.Errorf("schedule: employee lookup status %d", resp.StatusCode)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var records []employeeRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return ProviderRef{}, fmt.Errorf("schedule: decode employee array: %w", err)
		}
		if len(records) == 0 {
			return ProviderRef{}, nil
		}
		return records[0].ref(), nil
	}

	var record employeeRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return ProviderRef{}, fmt.Errorf("schedule: decode employee record: %w", err)
	}
	return record.ref(), nil
}
