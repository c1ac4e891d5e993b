package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"duedesk/internal/api"
	"duedesk/internal/manager"
	"duedesk/internal/view"

	"github.com/shopspring/decimal"
)

const (
	badgePending = "Pending Due"
	badgePaid    = "Fully Paid"

	walkInCustomer = "Walk-in Customer"
)

func statusBadge(rec api.SaleRecord) string {
	if rec.Due().IsPositive() {
		return badgePending
	}
	return badgePaid
}

func customerName(rec api.SaleRecord) string {
	if rec.Customer.Name != "" {
		return rec.Customer.Name
	}
	if rec.Customer.ID != "" {
		return rec.Customer.ID
	}
	return walkInCustomer
}

func accountLabel(acc api.PaymentAccount) string {
	if acc.Name != "" {
		return fmt.Sprintf("%s (%s)", acc.Name, acc.Type)
	}
	return acc.Type
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func writeSalesTable(w io.Writer, title string, filter view.Filter, dv view.DerivedView, expandedID string) {
	fmt.Fprintf(w, "%s — filter: %s\n", title, filter)
	fmt.Fprintf(w, "totals: total %s, paid %s, due %s\n",
		money(dv.Totals.Total), money(dv.Totals.Paid), money(dv.Totals.Due))

	if len(dv.Visible) == 0 {
		fmt.Fprintln(w, "(no memos)")
		return
	}

	for i, rec := range dv.Visible {
		fmt.Fprintf(w, "%2d) %s  %-12s  %-22s  due %10s  [%s]\n",
			i+1, formatDate(rec.SaleDate), rec.MemoNo, customerName(rec),
			money(rec.Due()), statusBadge(rec))
		if rec.ID == expandedID {
			writeLineItems(w, rec.Items)
		}
	}
}

func writeLineItems(w io.Writer, items []api.LineItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "      (no line items)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "      - %s  x%d @ %s = %s\n",
			item.DisplayName(), item.Quantity, money(item.UnitPrice), money(item.Subtotal))
	}
}

func writeStats(w io.Writer, title string, totals view.Totals, recordCount, dueCount int) {
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "- memos: %d (%d pending, %d paid)\n", recordCount, dueCount, recordCount-dueCount)
	fmt.Fprintf(w, "- total: %s\n", money(totals.Total))
	fmt.Fprintf(w, "- paid: %s\n", money(totals.Paid))
	fmt.Fprintf(w, "- due: %s\n", money(totals.Due))
}

func writeAccounts(w io.Writer, accounts []api.PaymentAccount) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "(no payment accounts)")
		return
	}
	for i, acc := range accounts {
		fmt.Fprintf(w, "%2d) %-24s  balance %12s\n", i+1, accountLabel(acc), money(acc.Balance))
	}
}

func writeHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list                      show memos for the active filter")
	fmt.Fprintln(w, "  filter all|due|paid       switch the row filter (totals stay global)")
	fmt.Fprintln(w, "  stats                     collection-wide totals and counts")
	fmt.Fprintln(w, "  accounts                  payment accounts and balances")
	fmt.Fprintln(w, "  expand <#|memo>           toggle the line-item breakdown of one row")
	fmt.Fprintln(w, "  collect <#> [amt] [acc#]  collect a due payment into an account")
	fmt.Fprintln(w, "  delete <#|memo>           delete a memo (asks for confirmation)")
	fmt.Fprintln(w, "  view all|today|week|month|year   switch the report source")
	fmt.Fprintln(w, "  refresh                   refetch memos and accounts")
	fmt.Fprintln(w, "  exit                      quit")
}

type jsonRecord struct {
	ID       string          `json:"id"`
	MemoNo   string          `json:"memo_no"`
	Date     string          `json:"date"`
	Customer string          `json:"customer"`
	Total    decimal.Decimal `json:"total"`
	Paid     decimal.Decimal `json:"paid"`
	Due      decimal.Decimal `json:"due"`
	Status   string          `json:"status"`
	Items    []api.LineItem  `json:"items,omitempty"`
}

type jsonList struct {
	View    string       `json:"view"`
	Filter  string       `json:"filter"`
	Totals  view.Totals  `json:"totals"`
	Records []jsonRecord `json:"records"`
}

func toJSONRecord(rec api.SaleRecord) jsonRecord {
	return jsonRecord{
		ID:       rec.ID,
		MemoNo:   rec.MemoNo,
		Date:     formatDate(rec.SaleDate),
		Customer: customerName(rec),
		Total:    rec.Total(),
		Paid:     rec.Paid(),
		Due:      rec.Due(),
		Status:   statusBadge(rec),
		Items:    rec.Items,
	}
}

func writeJSONList(w io.Writer, rv manager.ReportView, filter view.Filter, dv view.DerivedView) {
	payload := jsonList{
		View:    rv.Name,
		Filter:  string(filter),
		Totals:  dv.Totals,
		Records: make([]jsonRecord, 0, len(dv.Visible)),
	}
	for _, rec := range dv.Visible {
		payload.Records = append(payload.Records, toJSONRecord(rec))
	}
	writeJSON(w, payload)
}

func writeJSONStats(w io.Writer, rv manager.ReportView, totals view.Totals, recordCount, dueCount int) {
	writeJSON(w, map[string]any{
		"view":    rv.Name,
		"totals":  totals,
		"memos":   recordCount,
		"pending": dueCount,
		"paid":    recordCount - dueCount,
	})
}

func writeJSON(w io.Writer, payload any) {
	enc := json.NewEncoder(w)
	_ = enc.Encode(payload)
}
