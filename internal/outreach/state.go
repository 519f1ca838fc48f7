package outreach

import (
	"context"
	"sync"
	"time"

	"github.com/mobilevet/routefill/internal/config"
	"github.com/mobilevet/routefill/internal/gapfill"
	"github.com/mobilevet/routefill/internal/observability/metrics"
	"github.com/mobilevet/routefill/pkg/logging"
)

// ConfirmState is the lifecycle state of the single pending confirmation.
type ConfirmState string

const (
	StateClosed     ConfirmState = "closed"
	StatePreviewing ConfirmState = "previewing"
	StateSending    ConfirmState = "sending"
)

// defaultSuccessWindow is how long a per-client success flag stays visible
// before auto-clearing.
const defaultSuccessWindow = 3 * time.Second

// SendStatus is the per-client send status, readable while other candidates
// are being reviewed.
type SendStatus struct {
	InFlight  bool   `json:"inFlight"`
	LastError string `json:"lastError,omitempty"`
	Succeeded bool   `json:"succeeded"`
}

// Confirmation is a read-only snapshot of the pending confirmation.
type Confirmation struct {
	State    ConfirmState `json:"state"`
	ClientID string       `json:"clientId,omitempty"`
	Message  string       `json:"message,omitempty"`
	Override bool         `json:"override,omitempty"`
}

// AuditRecord captures one send attempt for the audit log.
type AuditRecord struct {
	ClientID string
	Message  string
	Override bool
	Status   string
	Error    string
}

// AuditLog persists send attempts. Implementations must be safe for
// concurrent use.
type AuditLog interface {
	Record(ctx context.Context, rec AuditRecord) error
}

type pendingConfirmation struct {
	clientID string
	buffer   string
	override bool
	sending  bool
}

// Manager gates outreach sends behind an explicit review/edit/confirm step.
// At most one confirmation is open at a time; send status is tracked
// independently per client so a second candidate can be reviewed while a
// previous send resolves.
type Manager struct {
	mode          config.DeploymentMode
	sender        MessageSender
	audit         AuditLog
	logger        *logging.Logger
	metrics       *metrics.WorkflowMetrics
	successWindow time.Duration

	mu            sync.Mutex
	pending       *pendingConfirmation
	status        map[string]*SendStatus
	successTimers map[string]*time.Timer
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithSuccessWindow overrides the success display window.
func WithSuccessWindow(d time.Duration) ManagerOption {
	return func(m *Manager) { m.successWindow = d }
}

// NewManager creates a confirmation manager for the given deployment mode.
func NewManager(mode config.DeploymentMode, sender MessageSender, audit AuditLog, logger *logging.Logger, wm *metrics.WorkflowMetrics, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	m := &Manager{
		mode:          mode,
		sender:        sender,
		audit:         audit,
		logger:        logger,
		metrics:       wm,
		successWindow: defaultSuccessWindow,
		status:        make(map[string]*SendStatus),
		successTimers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open composes the initial message for a candidate and transitions to
// Previewing, superseding any previous confirmation. The override path is
// rejected outright in production.
func (m *Manager) Open(c *gapfill.Candidate, override bool) (Confirmation, error) {
	if override && !m.mode.AllowsSendOverride() {
		return Confirmation{State: StateClosed}, ErrOverrideForbidden
	}

	message := gapfill.ComposeMessage(c)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &pendingConfirmation{
		clientID: c.ClientID,
		buffer:   message,
		override: override,
	}
	return m.snapshotLocked(), nil
}

// Edit replaces the buffered message. No validation is applied; rejecting an
// empty message is the transport's concern.
func (m *Manager) Edit(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ErrNoPendingConfirmation
	}
	if m.pending.sending {
		return ErrSendInFlight
	}
	m.pending.buffer = message
	return nil
}

// Cancel discards the buffer and closes the confirmation with no side effects.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ErrNoPendingConfirmation
	}
	if m.pending.sending {
		return ErrSendInFlight
	}
	m.pending = nil
	return nil
}

// Send issues the outbound message with the current buffered text. On
// success the confirmation closes and the client's success flag auto-clears
// after the display window. On failure the confirmation returns to
// Previewing with edits intact so the user can retry.
func (m *Manager) Send(ctx context.Context) error {
	m.mu.Lock()
	if m.pending == nil {
		m.mu.Unlock()
		return ErrNoPendingConfirmation
	}
	pending := m.pending
	clientID := pending.clientID
	st := m.statusLocked(clientID)
	if st.InFlight {
		m.mu.Unlock()
		return ErrSendInFlight
	}
	pending.sending = true
	st.InFlight = true
	message := pending.buffer
	override := pending.override
	m.mu.Unlock()

	err := m.sender.SendClientMessage(ctx, clientID, message, override)
	m.recordAudit(ctx, clientID, message, override, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	st.InFlight = false
	if err != nil {
		st.Succeeded = false
		st.LastError = err.Error()
		if m.pending == pending {
			pending.sending = false
		}
		m.metrics.ObserveOutreach("failed", override)
		m.logger.Error("outreach send failed", "client_id", clientID, "error", err)
		return err
	}

	st.Succeeded = true
	st.LastError = ""
	if m.pending == pending {
		m.pending = nil
	}
	m.scheduleSuccessClearLocked(clientID)
	m.metrics.ObserveOutreach("sent", override)
	return nil
}

// DismissError clears a client's displayed error after explicit dismissal.
func (m *Manager) DismissError(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.status[clientID]; ok {
		st.LastError = ""
	}
}

// Pending returns a snapshot of the open confirmation, or a Closed snapshot.
func (m *Manager) Pending() Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status returns the send status for one client.
func (m *Manager) Status(clientID string) SendStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.status[clientID]; ok {
		return *st
	}
	return SendStatus{}
}

// Statuses returns a copy of all per-client send statuses.
func (m *Manager) Statuses() map[string]SendStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]SendStatus, len(m.status))
	for id, st := range m.status {
		out[id] = *st
	}
	return out
}

func (m *Manager) snapshotLocked() Confirmation {
	if m.pending == nil {
		return Confirmation{State: StateClosed}
	}
	state := StatePreviewing
	if m.pending.sending {
		state = StateSending
	}
	return Confirmation{
		State:    state,
		ClientID: m.pending.clientID,
		Message:  m.pending.buffer,
		Override: m.pending.override,
	}
}

func (m *Manager) statusLocked(clientID string) *SendStatus {
	st, ok := m.status[clientID]
	if !ok {
		st = &SendStatus{}
		m.status[clientID] = st
	}
	return st
}

func (m *Manager) scheduleSuccessClearLocked(clientID string) {
	if timer, ok := m.successTimers[clientID]; ok {
		timer.Stop()
	}
	m.successTimers[clientID] = time.AfterFunc(m.successWindow, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if st, ok := m.status[clientID]; ok {
			st.Succeeded = false
		}
		delete(m.successTimers, clientID)
	})
}

func (m *Manager) recordAudit(ctx context.Context, clientID, message string, override bool, sendErr error) {
	if m.audit == nil {
		return
	}
	rec := AuditRecord{
		ClientID: clientID,
		Message:  message,
		Override: override,
		Status:   "sent",
	}
	if sendErr != nil {
		rec.Status = "failed"
		rec.Error = sendErr.Error()
	}
	if err := m.audit.Record(ctx, rec); err != nil {
		m.logger.Error("failed to record outreach audit row", "client_id", clientID, "error", err)
	}
}
