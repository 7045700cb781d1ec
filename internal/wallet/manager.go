package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Issuer is the external wallet boundary: it accepts a pass payload and
// returns an opaque issuance id, or a TransientError/PermanentError.
type Issuer interface {
	IssuePass(ctx context.Context, pass *Pass) (string, error)
}

// IDGenerator generates unique IDs for passes
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Manager owns the pass lifecycle: create, issue, expire, delete. Local
// state is authoritative; a remote failure never loses or corrupts it.
type Manager struct {
	db          DB
	issuer      Issuer
	idGenerator IDGenerator
	timeSource  TimeSource

	maxAttempts int
	baseBackoff time.Duration

	// mu serializes local pass mutations. It is never held across the
	// issuer call; issuance concurrency is collapsed per id by group.
	mu    sync.Mutex
	group singleflight.Group
}

// NewManager creates a Manager with default retry policy (3 attempts,
// exponential backoff starting at 500ms).
func NewManager(db DB, issuer Issuer) *Manager {
	return NewManagerWithDeps(db, issuer, &defaultIDGenerator{}, &defaultTimeSource{}, 3, 500*time.Millisecond)
}

// NewManagerWithDeps creates a Manager with custom dependencies for testing.
func NewManagerWithDeps(db DB, issuer Issuer, idGen IDGenerator, timeSrc TimeSource, maxAttempts int, baseBackoff time.Duration) *Manager {
	return &Manager{
		db:          db,
		issuer:      issuer,
		idGenerator: idGen,
		timeSource:  timeSrc,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
	}
}

// Create persists a candidate pass, assigning id, timestamps and active
// status. The candidate's ExternalID is always cleared; issuance ids are
// only ever set by Issue.
func (m *Manager) Create(candidate Pass) (*Pass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.timeSource.Now()
	candidate.ID = m.idGenerator.Generate()
	candidate.Status = StatusActive
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	candidate.ExternalID = ""

	if err := m.db.SavePass(&candidate); err != nil {
		return nil, fmt.Errorf("saving pass: %w", err)
	}
	return &candidate, nil
}

// Get retrieves a pass by ID
func (m *Manager) Get(id string) (*Pass, error) {
	return m.db.GetPass(id)
}

// List returns all passes
func (m *Manager) List() ([]*Pass, error) {
	return m.db.ListPasses()
}

// Issue sends the pass to the external wallet and records the issuance id.
// Idempotent per pass id: a pass that already has an issuance id returns it
// without a remote call, and concurrent calls for the same id share one
// remote call. On exhausted retries the pass stays active with a null
// issuance id and a retryable error is surfaced. Cancellation leaves the
// pass exactly as it was.
func (m *Manager) Issue(ctx context.Context, id string) (string, error) {
	result, err, _ := m.group.Do(id, func() (any, error) {
		m.mu.Lock()
		pass, err := m.db.GetPass(id)
		m.mu.Unlock()
		if err != nil {
			return "", err
		}
		if pass.ExternalID != "" {
			return pass.ExternalID, nil
		}

		externalID, err := m.issueWithRetry(ctx, pass)
		if err != nil {
			return "", err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// Re-read: the pass may have been mutated while the remote call ran
		pass, err = m.db.GetPass(id)
		if err != nil {
			return "", err
		}
		pass.ExternalID = externalID
		pass.UpdatedAt = m.timeSource.Now()
		if err := m.db.SavePass(pass); err != nil {
			return "", fmt.Errorf("recording issuance id: %w", err)
		}
		return externalID, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// issueWithRetry calls the issuer with bounded exponential backoff.
// Permanent errors and context cancellation short-circuit.
func (m *Manager) issueWithRetry(ctx context.Context, pass *Pass) (string, error) {
	backoff := m.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		externalID, err := m.issuer.IssuePass(ctx, pass)
		if err == nil {
			return externalID, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
		slog.Warn("Issuance attempt failed",
			"pass_id", pass.ID,
			"attempt", attempt,
			"error", err,
		)
		if attempt == m.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return "", fmt.Errorf("issuing pass after %d attempts: %w", m.maxAttempts, lastErr)
}

// Expire transitions an active or draft pass to expired. Expiring an
// already-expired pass is a no-op.
func (m *Manager) Expire(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pass, err := m.db.GetPass(id)
	if err != nil {
		return err
	}
	if pass.Status == StatusExpired {
		return nil
	}
	pass.Status = StatusExpired
	pass.UpdatedAt = m.timeSource.Now()
	if err := m.db.SavePass(pass); err != nil {
		return fmt.Errorf("saving expired pass: %w", err)
	}
	return nil
}

// Delete removes a pass. Only ever called on explicit user action; expiry
// never deletes.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.DeletePass(id)
}

// ExpireStale expires every active pass whose last update is older than the
// retention window. Returns the number of passes expired.
func (m *Manager) ExpireStale(retention time.Duration) (int, error) {
	passes, err := m.db.ListPasses()
	if err != nil {
		return 0, fmt.Errorf("listing passes: %w", err)
	}

	cutoff := m.timeSource.Now().Add(-retention)
	expired := 0
	for _, pass := range passes {
		if pass.Status != StatusActive || pass.UpdatedAt.After(cutoff) {
			continue
		}
		if err := m.Expire(pass.ID); err != nil {
			return expired, fmt.Errorf("expiring pass %s: %w", pass.ID, err)
		}
		expired++
	}
	return expired, nil
}
