package checkout_test

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks Gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"enroll/internal/checkout"
	"enroll/internal/checkout/mocks"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/circuit"
)

// =============================================================================
// Guarded Gateway Test Suite
// =============================================================================
// The guard decides which failures open the circuit and that an open circuit
// fails closed without reaching the provider.

type GuardedSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	inner   *mocks.MockGateway
	now     time.Time
	breaker *circuit.Breaker
	guarded *checkout.Guarded
}

func TestGuardedSuite(t *testing.T) {
	suite.Run(t, new(GuardedSuite))
}

func (s *GuardedSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inner = mocks.NewMockGateway(s.ctrl)
	s.now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	s.breaker = circuit.New("checkout",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.guarded = checkout.NewGuarded(s.inner, s.breaker, checkout.WithGuardLogger(logger))
}

func (s *GuardedSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GuardedSuite) TestPassesThroughOnSuccess() {
	ctx := context.Background()
	s.inner.EXPECT().QueryStatus(ctx, "tr_1").Return(checkout.StatusPaid, nil)

	status, err := s.guarded.QueryStatus(ctx, "tr_1")
	s.Require().NoError(err)
	s.Equal(checkout.StatusPaid, status)
}

func (s *GuardedSuite) TestOpensAfterProviderFailures() {
	ctx := context.Background()
	providerErr := dErrors.New(dErrors.CodeGateway, "boom")
	s.inner.EXPECT().QueryStatus(ctx, gomock.Any()).Return(checkout.Status(""), providerErr).Times(2)

	for i := 0; i < 2; i++ {
		_, err := s.guarded.QueryStatus(ctx, "tr_1")
		s.Require().Error(err)
	}
	s.True(s.breaker.IsOpen())

	s.Run("open circuit fails fast", func() {
		_, err := s.guarded.OpenTransaction(ctx, checkout.Payer{}, checkout.Order{}, "https://hook")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeGateway))
	})

	s.Run("trial call after cooldown closes on success", func() {
		s.now = s.now.Add(2 * time.Minute)
		s.inner.EXPECT().Refund(ctx, "tr_1", gomock.Any(), "").Return(nil)
		s.Require().NoError(s.guarded.Refund(ctx, "tr_1", decimal.NewFromInt(1), ""))
		s.False(s.breaker.IsOpen())
	})
}

func (s *GuardedSuite) TestNonProviderErrorsDoNotCount() {
	ctx := context.Background()
	s.inner.EXPECT().QueryStatus(ctx, gomock.Any()).Return(checkout.Status(""), errors.New("encode failed")).Times(3)

	for i := 0; i < 3; i++ {
		_, err := s.guarded.QueryStatus(ctx, "tr_1")
		s.Require().Error(err)
	}
	s.False(s.breaker.IsOpen())
}
