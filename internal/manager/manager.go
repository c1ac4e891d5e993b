// Package manager owns the client-side lifecycle of the sales
// collection: loading, filtering, row expansion and the payment
// dialog. The local collection is the single source of truth for
// rendering; mutations reconcile against the server's response instead
// of editing amounts speculatively.
package manager

import (
	"context"
	"errors"
	"sync"

	"duedesk/internal/api"
	"duedesk/internal/view"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrRecordNotFound = errors.New("sale record not found")
	ErrNothingDue     = errors.New("memo has no outstanding due")
	ErrNoOpenDialog   = errors.New("no payment dialog is open")
)

// API is the remote surface the manager needs. *api.Client satisfies
// it; tests substitute a fake transport.
type API interface {
	FetchSales(ctx context.Context, path string) ([]api.SaleRecord, error)
	FetchAccounts(ctx context.Context) ([]api.PaymentAccount, error)
	SubmitPayment(ctx context.Context, saleID string, amount decimal.Decimal, accountID string) (api.SaleRecord, error)
	DeleteSale(ctx context.Context, saleID string) error
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

type Manager struct {
	mu sync.Mutex

	api    API
	logger *zap.Logger

	source     string
	state      State
	generation uint64

	records  []api.SaleRecord
	accounts []api.PaymentAccount

	filter     view.Filter
	expandedID string
	dialog     *PaymentDialog
	lastErr    error
}

func New(apiClient API, source string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:    apiClient,
		logger: logger.Named("manager"),
		source: source,
		filter: view.FilterAll,
	}
}

// Load fetches the sales collection and the payment accounts
// concurrently and waits for both. On either failure the manager still
// reaches Ready, with an empty collection and the error retained, so
// the view degrades to empty rather than crashing. Each load carries a
// generation; a load that finishes after a newer one started discards
// its result instead of overwriting newer state.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateLoading
	m.generation++
	gen := m.generation
	source := m.source
	m.mu.Unlock()

	var (
		records  []api.SaleRecord
		accounts []api.PaymentAccount
		recErr   error
		accErr   error
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		records, recErr = m.api.FetchSales(ctx, source)
		return nil
	})
	g.Go(func() error {
		accounts, accErr = m.api.FetchAccounts(ctx)
		return nil
	})
	_ = g.Wait()

	err := errors.Join(recErr, accErr)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		m.logger.Debug("stale load discarded",
			zap.Uint64("generation", gen),
			zap.Uint64("current", m.generation),
			zap.String("source", source),
		)
		return nil
	}

	m.state = StateReady
	m.lastErr = err
	if err != nil {
		m.records = nil
		if accErr == nil {
			m.accounts = accounts
		}
		m.logger.Warn("load failed, degrading to empty view",
			zap.String("source", source),
			zap.Error(err),
		)
		return err
	}

	m.records = records
	m.accounts = accounts
	m.logger.Info("collection loaded",
		zap.String("source", source),
		zap.Int("records", len(records)),
		zap.Int("accounts", len(accounts)),
	)
	return nil
}

// SetSource points the manager at a different fetch path (the report
// views reuse one manager against different sources) and reloads.
func (m *Manager) SetSource(ctx context.Context, source string) error {
	m.mu.Lock()
	m.source = source
	m.mu.Unlock()
	return m.Load(ctx)
}

func (m *Manager) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) Records() []api.SaleRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.SaleRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Manager) Accounts() []api.PaymentAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.PaymentAccount, len(m.accounts))
	copy(out, m.accounts)
	return out
}

func (m *Manager) Filter() view.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

func (m *Manager) SetFilter(filter view.Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = filter
}

// View recomputes the derived view from the current collection and
// filter. Nothing is memoized; the derivation is a pure pass.
func (m *Manager) View() view.DerivedView {
	m.mu.Lock()
	records := m.records
	filter := m.filter
	m.mu.Unlock()
	return view.Derive(records, filter)
}

// ToggleExpand is single-select: expanding a row collapses the
// previously expanded one, toggling the same row collapses it. Returns
// whether the row is expanded afterwards.
func (m *Manager) ToggleExpand(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expandedID == id {
		m.expandedID = ""
		return false
	}
	m.expandedID = id
	return true
}

func (m *Manager) ExpandedID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expandedID
}

// BeginCollect opens the payment dialog for one memo with outstanding
// due, capturing the record and resetting the amount/account fields.
func (m *Manager) BeginCollect(id string) (*PaymentDialog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.findLocked(id)
	if !ok {
		return nil, ErrRecordNotFound
	}
	if !rec.Due().IsPositive() {
		return nil, ErrNothingDue
	}

	m.dialog = NewPaymentDialog(rec)
	return m.dialog, nil
}

func (m *Manager) Dialog() *PaymentDialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog
}

func (m *Manager) CancelDialog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = nil
}

// SubmitPayment validates the open dialog locally first; a validation
// failure never reaches the network and leaves the dialog open. On
// server success the one affected record is replaced wholesale with the
// server's response and the dialog closes. On server failure nothing
// changes locally.
func (m *Manager) SubmitPayment(ctx context.Context) (api.SaleRecord, error) {
	m.mu.Lock()
	dialog := m.dialog
	m.mu.Unlock()

	if dialog == nil {
		return api.SaleRecord{}, ErrNoOpenDialog
	}
	if err := dialog.Validate(); err != nil {
		return api.SaleRecord{}, err
	}

	updated, err := m.api.SubmitPayment(ctx, dialog.Record.ID, dialog.Amount, dialog.AccountID)
	if err != nil {
		m.logger.Warn("payment rejected",
			zap.String("sale_id", dialog.Record.ID),
			zap.String("amount", dialog.Amount.String()),
			zap.Error(err),
		)
		return api.SaleRecord{}, err
	}

	m.mu.Lock()
	for i := range m.records {
		if m.records[i].ID == updated.ID {
			m.records[i] = updated
			break
		}
	}
	m.dialog = nil
	m.mu.Unlock()

	m.logger.Info("payment collected",
		zap.String("sale_id", updated.ID),
		zap.String("memo_no", updated.MemoNo),
		zap.String("amount", dialog.Amount.String()),
		zap.String("account_id", dialog.AccountID),
		zap.String("remaining_due", updated.Due().String()),
	)
	return updated, nil
}

// Delete removes one memo. The blocking yes/no confirmation lives with
// the caller; by the time this runs the action is confirmed. The record
// leaves local state only after the server acknowledges.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.findLocked(id)
	m.mu.Unlock()
	if !ok {
		return ErrRecordNotFound
	}

	if err := m.api.DeleteSale(ctx, id); err != nil {
		m.logger.Warn("delete rejected", zap.String("sale_id", id), zap.Error(err))
		return err
	}

	m.mu.Lock()
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	if m.expandedID == id {
		m.expandedID = ""
	}
	m.mu.Unlock()

	m.logger.Info("memo deleted", zap.String("sale_id", id))
	return nil
}

func (m *Manager) findLocked(id string) (api.SaleRecord, bool) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return api.SaleRecord{}, false
}
