package checkout

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "enroll/pkg/domain-errors"
)

func newTestMollie(t *testing.T, handler http.HandlerFunc) *Mollie {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m, err := NewMollie("test_key", srv.URL, "EUR", time.Second)
	require.NoError(t, err)
	return m
}

func TestMollie_OpenTransaction(t *testing.T) {
	var got molliePaymentRequest
	m := newTestMollie(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"tr_abc","status":"open","_links":{"checkout":{"href":"https://pay.example/tr_abc"}}}`))
	})

	tx, err := m.OpenTransaction(context.Background(),
		Payer{UserID: "u-1"},
		Order{Reference: "p-1", Kind: "membership", Description: "Lidgeld 2024", Amount: decimal.RequireFromString("30"), ReturnURL: "https://app/return"},
		"https://app/webhooks/checkout?token=x",
	)
	require.NoError(t, err)
	assert.Equal(t, "tr_abc", tx.ID)
	assert.Equal(t, "https://pay.example/tr_abc", tx.RedirectURL)

	assert.Equal(t, mollieAmount{Currency: "EUR", Value: "30.00"}, got.Amount)
	assert.Equal(t, "https://app/webhooks/checkout?token=x", got.WebhookURL)
	assert.Equal(t, "p-1", got.Metadata["reference"])
	assert.Equal(t, "u-1", got.Metadata["user_id"])
}

func TestMollie_Errors(t *testing.T) {
	t.Run("provider error status is a gateway error", func(t *testing.T) {
		m := newTestMollie(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"status":422,"title":"Unprocessable Entity","detail":"amount too low"}`))
		})
		_, err := m.OpenTransaction(context.Background(), Payer{}, Order{Amount: decimal.NewFromInt(1)}, "https://hook")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGateway))
	})

	t.Run("missing checkout link is a gateway error", func(t *testing.T) {
		m := newTestMollie(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id":"tr_abc","status":"open","_links":{}}`))
		})
		_, err := m.OpenTransaction(context.Background(), Payer{}, Order{Amount: decimal.NewFromInt(1)}, "https://hook")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGateway))
	})

	t.Run("api key is required", func(t *testing.T) {
		_, err := NewMollie("", "https://api", "EUR", time.Second)
		assert.Error(t, err)
	})
}

func TestMollie_QueryStatus(t *testing.T) {
	tests := []struct {
		body string
		want Status
	}{
		{`{"id":"tr_1","status":"open"}`, StatusOpen},
		{`{"id":"tr_1","status":"pending"}`, StatusOpen},
		{`{"id":"tr_1","status":"authorized"}`, StatusOpen},
		{`{"id":"tr_1","status":"paid"}`, StatusPaid},
		{`{"id":"tr_1","status":"paid","amountRefunded":{"currency":"EUR","value":"0.00"}}`, StatusPaid},
		{`{"id":"tr_1","status":"paid","amountRefunded":{"currency":"EUR","value":"30.00"}}`, StatusRefunded},
		{`{"id":"tr_1","status":"canceled"}`, StatusCancelled},
		{`{"id":"tr_1","status":"expired"}`, StatusCancelled},
		{`{"id":"tr_1","status":"failed"}`, StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			m := newTestMollie(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/payments/tr_1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := m.QueryStatus(context.Background(), "tr_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMollie_Refund(t *testing.T) {
	var got mollieRefundRequest
	m := newTestMollie(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/tr_1/refunds", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"re_1"}`))
	})
	require.NoError(t, m.Refund(context.Background(), "tr_1", decimal.RequireFromString("12.5"), "Kamp"))
	assert.Equal(t, "12.50", got.Amount.Value)
	assert.Equal(t, "Kamp", got.Description)
}
