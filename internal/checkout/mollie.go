package checkout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "enroll/pkg/domain-errors"
)

// Mollie is the card/iDEAL adapter for the Mollie payments API.
type Mollie struct {
	apiKey   string
	baseURL  string
	currency string
	client   *http.Client
	logger   *slog.Logger
	tracer   trace.Tracer
}

type MollieOption func(*Mollie)

func WithHTTPClient(c *http.Client) MollieOption {
	return func(m *Mollie) {
		if c != nil {
			m.client = c
		}
	}
}

func WithMollieLogger(logger *slog.Logger) MollieOption {
	return func(m *Mollie) {
		m.logger = logger
	}
}

func NewMollie(apiKey, baseURL, currency string, timeout time.Duration, opts ...MollieOption) (*Mollie, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mollie api key is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m := &Mollie{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: currency,
		client:   &http.Client{Timeout: timeout},
		logger:   slog.Default(),
		tracer:   otel.Tracer("enroll/checkout"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type mollieAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type molliePaymentRequest struct {
	Amount      mollieAmount      `json:"amount"`
	Description string            `json:"description"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
	WebhookURL  string            `json:"webhookUrl"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type molliePayment struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	AmountRefunded *mollieAmount `json:"amountRefunded,omitempty"`
	Links          struct {
		Checkout *struct {
			Href string `json:"href"`
		} `json:"checkout,omitempty"`
	} `json:"_links"`
}

type mollieRefundRequest struct {
	Amount      mollieAmount `json:"amount"`
	Description string       `json:"description,omitempty"`
}

type mollieError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (m *Mollie) OpenTransaction(ctx context.Context, payer Payer, order Order, notificationURL string) (Transaction, error) {
	ctx, span := m.tracer.Start(ctx, "checkout.mollie.open",
		trace.WithAttributes(attribute.String("payment.reference", order.Reference)))
	defer span.End()

	meta := map[string]string{"reference": order.Reference, "kind": order.Kind}
	if payer.UserID != "" {
		meta["user_id"] = payer.UserID
	}
	body := molliePaymentRequest{
		Amount:      m.amount(order.Amount),
		Description: order.Description,
		RedirectURL: order.ReturnURL,
		WebhookURL:  notificationURL,
		Metadata:    meta,
	}

	var out molliePayment
	if err := m.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		recordSpanError(span, err)
		return Transaction{}, err
	}
	if out.ID == "" || out.Links.Checkout == nil || out.Links.Checkout.Href == "" {
		err := dErrors.New(dErrors.CodeGateway, "checkout provider returned no checkout link")
		recordSpanError(span, err)
		return Transaction{}, err
	}
	span.SetAttributes(attribute.String("checkout.transaction_id", out.ID))
	m.logger.InfoContext(ctx, "checkout transaction opened",
		"transaction_id", out.ID,
		"reference", order.Reference,
	)
	return Transaction{ID: out.ID, RedirectURL: out.Links.Checkout.Href}, nil
}

func (m *Mollie) QueryStatus(ctx context.Context, transactionID string) (Status, error) {
	ctx, span := m.tracer.Start(ctx, "checkout.mollie.status",
		trace.WithAttributes(attribute.String("checkout.transaction_id", transactionID)))
	defer span.End()

	var out molliePayment
	if err := m.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(transactionID), nil, &out); err != nil {
		recordSpanError(span, err)
		return "", err
	}
	status := mapMollieStatus(out)
	span.SetAttributes(attribute.String("checkout.status", string(status)))
	return status, nil
}

// Cancel deletes an open payment. Mollie rejects the call once the payment is
// no longer cancelable.
func (m *Mollie) Cancel(ctx context.Context, transactionID string) error {
	ctx, span := m.tracer.Start(ctx, "checkout.mollie.cancel",
		trace.WithAttributes(attribute.String("checkout.transaction_id", transactionID)))
	defer span.End()

	var out molliePayment
	if err := m.do(ctx, http.MethodDelete, "/payments/"+url.PathEscape(transactionID), nil, &out); err != nil {
		recordSpanError(span, err)
		return err
	}
	if status := mapMollieStatus(out); status != StatusCancelled {
		err := dErrors.Newf(dErrors.CodeGateway, "checkout provider left transaction %s %s", transactionID, status)
		recordSpanError(span, err)
		return err
	}
	m.logger.InfoContext(ctx, "checkout transaction cancelled", "transaction_id", transactionID)
	return nil
}

func (m *Mollie) Refund(ctx context.Context, transactionID string, amount decimal.Decimal, description string) error {
	ctx, span := m.tracer.Start(ctx, "checkout.mollie.refund",
		trace.WithAttributes(attribute.String("checkout.transaction_id", transactionID)))
	defer span.End()

	body := mollieRefundRequest{Amount: m.amount(amount), Description: description}
	if err := m.do(ctx, http.MethodPost, "/payments/"+url.PathEscape(transactionID)+"/refunds", body, nil); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (m *Mollie) amount(d decimal.Decimal) mollieAmount {
	return mollieAmount{Currency: m.currency, Value: d.StringFixed(2)}
}

func (m *Mollie) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode checkout request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build checkout request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "checkout provider did not respond")
		}
		return dErrors.Wrap(err, dErrors.CodeGateway, "checkout provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeGateway, "failed to read checkout response")
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var perr mollieError
		_ = json.Unmarshal(raw, &perr)
		m.logger.WarnContext(ctx, "checkout provider error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"title", perr.Title,
			"detail", perr.Detail,
		)
		return dErrors.Newf(dErrors.CodeGateway, "checkout provider returned %d: %s", resp.StatusCode, perr.Title)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeGateway, "failed to decode checkout response")
	}
	return nil
}

// mapMollieStatus folds Mollie's payment states into Status. A paid payment
// with a refunded amount is reported as refunded.
func mapMollieStatus(p molliePayment) Status {
	switch p.Status {
	case "paid":
		if p.AmountRefunded != nil {
			if v, err := decimal.NewFromString(p.AmountRefunded.Value); err == nil && v.IsPositive() {
				return StatusRefunded
			}
		}
		return StatusPaid
	case "canceled", "expired", "failed":
		return StatusCancelled
	default:
		return StatusOpen
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
