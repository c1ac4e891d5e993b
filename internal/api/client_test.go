package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duedesk/internal/api"
	"duedesk/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *api.Client {
	return api.NewClient(config.Config{
		APIBaseURL: baseURL,
		APIToken:   "secret",
		Timeout:    5 * time.Second,
	}, zap.NewNop())
}

func TestFetchSalesDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sales", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[
			{"id":"s1","memo_no":"M-101","customer":"c9","total_amount":100,"paid_amount":40,"due_amount":60},
			{"id":"s2","memo_no":"M-102","customer":{"id":"c1","name":"Rahim Traders"},"total":50,"paid":50,"due":0,
			 "items":[{"name":"Broiler feed 25kg","quantity":2,"unit_price":25,"subtotal":50}]}
		]}`)
	}))
	defer srv.Close()

	records, err := newTestClient(srv.URL).FetchSales(context.Background(), "/sales")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Bare-identifier customer reference.
	assert.Equal(t, "c9", records[0].Customer.ID)
	assert.Empty(t, records[0].Customer.Name)
	assert.True(t, records[0].Due().Equal(decimal.NewFromInt(60)))

	// Embedded customer object and the short amount spellings.
	assert.Equal(t, "Rahim Traders", records[1].Customer.Name)
	assert.True(t, records[1].Due().IsZero())
	require.Len(t, records[1].Items, 1)
	assert.Equal(t, "Broiler feed 25kg", records[1].Items[0].DisplayName())
	assert.EqualValues(t, 2, records[1].Items[0].Quantity)
}

func TestFetchAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-accounts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"a1","name":"Till","type":"cash","balance":1200.50}]}`)
	}))
	defer srv.Close()

	accounts, err := newTestClient(srv.URL).FetchAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "cash", accounts[0].Type)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromFloat(1200.50)))
}

func TestSubmitPaymentRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/sales/receive-customer-due/s1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 60.0, body["payAmount"])
		assert.Equal(t, "a2", body["paymentAccountId"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":"s1","memo_no":"M-101","total_amount":100,"paid_amount":100,"due_amount":0}}`)
	}))
	defer srv.Close()

	updated, err := newTestClient(srv.URL).SubmitPayment(
		context.Background(), "s1", decimal.NewFromInt(60), "a2")
	require.NoError(t, err)

	assert.True(t, updated.Paid().Equal(decimal.NewFromInt(100)))
	assert.True(t, updated.Due().IsZero())
}

func TestDeleteSale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/sales/s1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(srv.URL).DeleteSale(context.Background(), "s1"))
}

func TestServerErrorMessageSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"memo has linked payments"}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).DeleteSale(context.Background(), "s1")

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "memo has linked payments", apiErr.Message)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: api.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, wantErr: api.ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, wantErr: api.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchSales(context.Background(), "/sales")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMissingCredentialsSkipNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	noToken := api.NewClient(config.Config{APIBaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	_, err := noToken.FetchSales(context.Background(), "/sales")
	assert.ErrorIs(t, err, api.ErrMissingToken)

	noBase := api.NewClient(config.Config{APIToken: "secret", Timeout: time.Second}, zap.NewNop())
	_, err = noBase.FetchAccounts(context.Background())
	assert.ErrorIs(t, err, api.ErrMissingBaseURL)

	client := newTestClient(srv.URL)
	_, err = client.SubmitPayment(context.Background(), "  ", decimal.NewFromInt(10), "a1")
	assert.ErrorIs(t, err, api.ErrMissingSaleID)

	assert.Zero(t, calls)
}
