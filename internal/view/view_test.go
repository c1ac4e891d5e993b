package view_test

import (
	"testing"

	"duedesk/internal/api"
	"duedesk/internal/view"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func sale(id string, total, paid, due float64) api.SaleRecord {
	return api.SaleRecord{
		ID:          id,
		MemoNo:      "M-" + id,
		TotalAmount: amt(total),
		PaidAmount:  amt(paid),
		DueAmount:   amt(due),
	}
}

func visibleIDs(dv view.DerivedView) []string {
	ids := make([]string, 0, len(dv.Visible))
	for _, rec := range dv.Visible {
		ids = append(ids, rec.ID)
	}
	return ids
}

func TestDeriveFilters(t *testing.T) {
	records := []api.SaleRecord{
		sale("1", 100, 40, 60),
		sale("2", 50, 50, 0),
	}

	tests := []struct {
		name    string
		filter  view.Filter
		wantIDs []string
	}{
		{name: "all keeps everything", filter: view.FilterAll, wantIDs: []string{"1", "2"}},
		{name: "due keeps positive due only", filter: view.FilterDue, wantIDs: []string{"1"}},
		{name: "paid keeps zero due", filter: view.FilterPaid, wantIDs: []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dv := view.Derive(records, tt.filter)
			assert.Equal(t, tt.wantIDs, visibleIDs(dv))

			// Totals sweep the whole collection regardless of the filter.
			assert.True(t, dv.Totals.Total.Equal(decimal.NewFromInt(150)), "total = %s", dv.Totals.Total)
			assert.True(t, dv.Totals.Paid.Equal(decimal.NewFromInt(90)), "paid = %s", dv.Totals.Paid)
			assert.True(t, dv.Totals.Due.Equal(decimal.NewFromInt(60)), "due = %s", dv.Totals.Due)
		})
	}
}

func TestDerivePartition(t *testing.T) {
	records := []api.SaleRecord{
		sale("1", 100, 40, 60),
		sale("2", 50, 50, 0),
		sale("3", 80, 90, -10),
		sale("4", 30, 0, 30),
	}

	due := view.Derive(records, view.FilterDue)
	paid := view.Derive(records, view.FilterPaid)

	// due > 0 is pending, due <= 0 is paid: together they partition
	// the collection, the boundary belongs to paid.
	require.Equal(t, len(records), len(due.Visible)+len(paid.Visible))
	assert.Equal(t, []string{"1", "4"}, visibleIDs(due))
	assert.Equal(t, []string{"2", "3"}, visibleIDs(paid))
}

func TestDeriveFieldFallback(t *testing.T) {
	short := api.SaleRecord{ID: "alt", TotalAlt: amt(50), PaidAlt: amt(20), DueAlt: amt(30)}
	bare := api.SaleRecord{ID: "bare"}
	both := api.SaleRecord{ID: "both", DueAmount: amt(10), DueAlt: amt(99)}

	dv := view.Derive([]api.SaleRecord{short, bare, both}, view.FilterDue)

	// short field spellings are read, absent fields count as zero,
	// and the long spelling wins when both are present.
	assert.Equal(t, []string{"alt", "both"}, visibleIDs(dv))
	assert.True(t, dv.Totals.Due.Equal(decimal.NewFromInt(40)), "due = %s", dv.Totals.Due)
	assert.True(t, dv.Totals.Total.Equal(decimal.NewFromInt(50)))
	assert.True(t, dv.Totals.Paid.Equal(decimal.NewFromInt(20)))
}

func TestDeriveEmptyCollection(t *testing.T) {
	dv := view.Derive(nil, view.FilterAll)

	assert.Empty(t, dv.Visible)
	assert.True(t, dv.Totals.Total.IsZero())
	assert.True(t, dv.Totals.Paid.IsZero())
	assert.True(t, dv.Totals.Due.IsZero())
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input   string
		want    view.Filter
		wantErr bool
	}{
		{input: "all", want: view.FilterAll},
		{input: "Due", want: view.FilterDue},
		{input: " PAID ", want: view.FilterPaid},
		{input: "overdue", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := view.ParseFilter(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
