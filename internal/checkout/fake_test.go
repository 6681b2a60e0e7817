package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake(t *testing.T) {
	ctx := context.Background()
	fake := NewFake("http://localhost:8080/")

	tx, err := fake.OpenTransaction(ctx, Payer{Email: "a@b.c"}, Order{Reference: "p-1", Amount: decimal.NewFromInt(5)}, "http://hook")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/checkout/fake/"+tx.ID, tx.RedirectURL)

	status, err := fake.QueryStatus(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, status)

	require.Error(t, fake.Refund(ctx, tx.ID, decimal.NewFromInt(5), ""), "open transactions cannot be refunded")

	require.True(t, fake.SetStatus(tx.ID, StatusPaid))
	require.NoError(t, fake.Refund(ctx, tx.ID, decimal.NewFromInt(5), ""))
	status, err = fake.QueryStatus(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, status)

	fake.FailNext(errors.New("down"))
	_, err = fake.QueryStatus(ctx, tx.ID)
	assert.Error(t, err)
	_, err = fake.QueryStatus(ctx, tx.ID)
	assert.NoError(t, err, "failure is consumed")
}

func TestFake_Cancel(t *testing.T) {
	ctx := context.Background()
	fake := NewFake("http://localhost:8080/")
	order := Order{Reference: "p-2", Amount: decimal.NewFromInt(5)}

	open, err := fake.OpenTransaction(ctx, Payer{}, order, "http://hook")
	require.NoError(t, err)
	require.NoError(t, fake.Cancel(ctx, open.ID))
	require.NoError(t, fake.Cancel(ctx, open.ID), "cancelling twice is a no-op")
	assert.False(t, fake.SetStatus(open.ID, StatusPaid))
	status, err := fake.QueryStatus(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)

	paid, err := fake.OpenTransaction(ctx, Payer{}, order, "http://hook")
	require.NoError(t, err)
	require.True(t, fake.SetStatus(paid.ID, StatusPaid))
	err = fake.Cancel(ctx, paid.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be cancelled")

	assert.Error(t, fake.Cancel(ctx, "tr_missing"))
}
