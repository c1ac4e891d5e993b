// Package view derives the rendered subset and the aggregate cards
// from a sales collection. Everything here is a pure function of its
// inputs; no requests are issued and nothing is cached.
package view

import (
	"fmt"
	"strings"

	"duedesk/internal/api"

	"github.com/shopspring/decimal"
)

type Filter string

const (
	FilterAll  Filter = "all"
	FilterDue  Filter = "due"
	FilterPaid Filter = "paid"
)

func ParseFilter(value string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(value))) {
	case FilterAll:
		return FilterAll, nil
	case FilterDue:
		return FilterDue, nil
	case FilterPaid:
		return FilterPaid, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, due or paid)", value)
	}
}

// Totals are always swept over the full unfiltered collection. The
// aggregate cards describe the whole data set, not the visible rows.
type Totals struct {
	Total decimal.Decimal `json:"total"`
	Paid  decimal.Decimal `json:"paid"`
	Due   decimal.Decimal `json:"due"`
}

type DerivedView struct {
	Visible []api.SaleRecord
	Totals  Totals
}

// Derive computes the visible subset for filter and the collection-wide
// totals in a single pass. A record with due > 0 is pending; due <= 0
// counts as fully paid, so the due and paid filters partition the
// collection exactly.
func Derive(records []api.SaleRecord, filter Filter) DerivedView {
	out := DerivedView{
		Visible: make([]api.SaleRecord, 0, len(records)),
	}

	for _, rec := range records {
		due := rec.Due()
		out.Totals.Total = out.Totals.Total.Add(rec.Total())
		out.Totals.Paid = out.Totals.Paid.Add(rec.Paid())
		out.Totals.Due = out.Totals.Due.Add(due)

		switch filter {
		case FilterDue:
			if !due.IsPositive() {
				continue
			}
		case FilterPaid:
			if due.IsPositive() {
				continue
			}
		}
		out.Visible = append(out.Visible, rec)
	}

	return out
}
