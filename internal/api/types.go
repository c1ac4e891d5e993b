package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Customer arrives either as an embedded object with a name or as a
// bare identifier string, depending on the endpoint.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Customer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(data, &c.ID)
	}

	type plain Customer
	return json.Unmarshal(data, (*plain)(c))
}

type LineItem struct {
	Name        string          `json:"name,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func (li LineItem) DisplayName() string {
	if strings.TrimSpace(li.Name) != "" {
		return li.Name
	}
	return li.ProductName
}

// SaleRecord is one sales memo. The amount fields are read through the
// accessor methods below; the wire spelling varies by endpoint.
type SaleRecord struct {
	ID       string     `json:"id"`
	MemoNo   string     `json:"memo_no"`
	SaleDate time.Time  `json:"sale_date"`
	Customer Customer   `json:"customer"`
	Items    []LineItem `json:"items,omitempty"`

	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	TotalAlt    *decimal.Decimal `json:"total,omitempty"`
	PaidAmount  *decimal.Decimal `json:"paid_amount,omitempty"`
	PaidAlt     *decimal.Decimal `json:"paid,omitempty"`
	DueAmount   *decimal.Decimal `json:"due_amount,omitempty"`
	DueAlt      *decimal.Decimal `json:"due,omitempty"`
}

func (s SaleRecord) Total() decimal.Decimal {
	return pickAmount(s.TotalAmount, s.TotalAlt)
}

func (s SaleRecord) Paid() decimal.Decimal {
	return pickAmount(s.PaidAmount, s.PaidAlt)
}

// Due is the server's authoritative outstanding balance. It is never
// recomputed locally from Total and Paid.
func (s SaleRecord) Due() decimal.Decimal {
	return pickAmount(s.DueAmount, s.DueAlt)
}

func pickAmount(primary, alt *decimal.Decimal) decimal.Decimal {
	if primary != nil {
		return *primary
	}
	if alt != nil {
		return *alt
	}
	return decimal.Zero
}

type PaymentAccount struct {
	ID      string          `json:"id"`
	Name    string          `json:"name,omitempty"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// paymentRequest keeps payAmount a plain JSON number on the wire.
type paymentRequest struct {
	PayAmount        float64 `json:"payAmount"`
	PaymentAccountID string  `json:"paymentAccountId"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}
