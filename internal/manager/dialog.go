package manager

import (
	"errors"
	"fmt"
	"strings"

	"duedesk/internal/api"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountNotPositive = errors.New("payment amount must be greater than zero")
	ErrAmountExceedsDue  = errors.New("payment amount exceeds outstanding due")
	ErrNoAccountSelected = errors.New("a payment account must be selected")
)

// ValidationError wraps a sentinel with human-readable detail so
// callers can both match with errors.Is and show a useful message.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PaymentDialog captures one memo with outstanding due plus the
// transient amount/account entry. Entry of out-of-range values is not
// blocked; only submission is, via Validate.
type PaymentDialog struct {
	Record    api.SaleRecord
	Amount    decimal.Decimal
	AccountID string
}

func NewPaymentDialog(rec api.SaleRecord) *PaymentDialog {
	return &PaymentDialog{Record: rec}
}

func (d *PaymentDialog) SetAmount(amount decimal.Decimal) {
	d.Amount = amount
}

func (d *PaymentDialog) SetAccount(accountID string) {
	d.AccountID = strings.TrimSpace(accountID)
}

// Remaining previews the due left after the entered amount, live as
// the user types. It may go negative; Validate blocks submission.
func (d *PaymentDialog) Remaining() decimal.Decimal {
	return d.Record.Due().Sub(d.Amount)
}

func (d *PaymentDialog) Validate() error {
	if !d.Amount.IsPositive() {
		return &ValidationError{
			Err:     ErrAmountNotPositive,
			Details: fmt.Sprintf("entered %s", d.Amount),
		}
	}
	if due := d.Record.Due(); d.Amount.GreaterThan(due) {
		return &ValidationError{
			Err:     ErrAmountExceedsDue,
			Details: fmt.Sprintf("due is %s, entered %s", due, d.Amount),
		}
	}
	if d.AccountID == "" {
		return &ValidationError{Err: ErrNoAccountSelected}
	}
	return nil
}
