// Package app assembles the service from configuration. The HTTP server and
// the operator CLI share it so both run the same lifecycle code.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"enroll/internal/activity"
	"enroll/internal/branch"
	"enroll/internal/capacity"
	"enroll/internal/checkout"
	checkoutmetrics "enroll/internal/checkout/metrics"
	"enroll/internal/event"
	"enroll/internal/membership"
	"enroll/internal/notify"
	notifymetrics "enroll/internal/notify/metrics"
	"enroll/internal/payable"
	payablestore "enroll/internal/payable/store"
	"enroll/internal/payment"
	paymentmetrics "enroll/internal/payment/metrics"
	"enroll/internal/platform/config"
	"enroll/internal/platform/lock"
	"enroll/internal/platform/metrics"
	"enroll/internal/platform/postgres"
	"enroll/internal/platform/redis"
	"enroll/internal/pricing"
	httptransport "enroll/internal/transport/http"
	"enroll/internal/user"
	"enroll/pkg/platform/circuit"
)

// App holds the wired services. Close releases what New opened.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Users       *user.Service
	Branches    *branch.Service
	Memberships *membership.Service
	Events      *event.Service
	Activities  *activity.Service

	MembershipReconciler *payment.Reconciler[*membership.Membership]
	EventReconciler      *payment.Reconciler[*event.Registration]
	ActivityReconciler   *payment.Reconciler[*activity.Registration]
	Poller               *payment.Poller

	Signer *checkout.NotificationSigner
	// Fake is set when the fake provider is configured.
	Fake   *checkout.Fake
	Mailer *notify.Dispatcher

	closers []func() error
}

// New wires every component. Without DATABASE_URL all stores are in memory;
// without REDIS_URL reconciliation locks are in-process.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		logger.InfoContext(ctx, "using postgres stores")
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	var locker lock.Locker = lock.NewMemory()
	rdb, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		locker = lock.NewRedis(rdb, cfg.Redis.LockTTL)
		logger.InfoContext(ctx, "using redis reconciliation locks")
	}

	seed, err := branch.LoadSeed(cfg.BranchesFile)
	if err != nil {
		return fmt.Errorf("load branches: %w", err)
	}
	a.Branches = branch.New(branch.NewInMemory(seed...), branch.WithLogger(logger))

	var userStore user.Store = user.NewInMemory()
	if db != nil {
		userStore = user.NewPostgres(db)
	}
	a.Users, err = user.New(userStore, user.WithLogger(logger))
	if err != nil {
		return err
	}

	gateway, err := a.gateway()
	if err != nil {
		return err
	}
	a.Signer = checkout.NewNotificationSigner(cfg.Checkout.WebhookSigningKey, cfg.Server.PublicBaseURL)

	sender, err := notify.NewSender(ctx, cfg.Notify, logger)
	if err != nil {
		return err
	}
	a.Mailer, err = notify.NewDispatcher(sender, cfg.Notify.BufferSize,
		notify.WithLogger(logger),
		notify.WithMetrics(notifymetrics.New()),
	)
	if err != nil {
		_ = sender.Close()
		return err
	}
	a.closers = append(a.closers, a.Mailer.Close)

	prices := pricing.New(a.Users, pricing.WithLogger(logger))
	limiter := capacity.New(capacity.WithLogger(logger))
	defaults := pricing.Reduction{
		Factor:  cfg.Pricing.DefaultReductionFactor,
		Sibling: cfg.Pricing.DefaultSiblingReduction,
	}
	paymentOpts := []payment.Option{
		payment.WithLogger(logger),
		payment.WithMetrics(paymentmetrics.New()),
		payment.WithLocker(locker),
	}

	// Memberships.
	membershipStore := paymentStore[membership.Membership](db, "memberships")
	membershipHooks := membership.NewHooks(a.Users, a.Mailer)
	membershipRegistrar, err := payment.NewRegistrar[*membership.Membership](payment.KindMembership, membershipStore,
		limiter, gateway, a.Signer, membershipHooks, paymentOpts...)
	if err != nil {
		return err
	}
	a.MembershipReconciler, err = payment.NewReconciler[*membership.Membership](payment.KindMembership, membershipStore,
		gateway, membershipHooks, paymentOpts...)
	if err != nil {
		return err
	}
	a.Memberships, err = membership.New(catalog[membership.Period](db, payable.KindPeriod), a.Users, a.Branches, prices,
		membershipStore, membershipRegistrar, membership.WithLogger(logger), membership.WithDefaultReduction(defaults))
	if err != nil {
		return err
	}

	// Events.
	eventStore := paymentStore[event.Registration](db, "event_registrations")
	eventHooks := event.NewHooks(a.Users, a.Mailer)
	eventRegistrar, err := payment.NewRegistrar[*event.Registration](payment.KindEvent, eventStore,
		limiter, gateway, a.Signer, eventHooks, paymentOpts...)
	if err != nil {
		return err
	}
	a.EventReconciler, err = payment.NewReconciler[*event.Registration](payment.KindEvent, eventStore,
		gateway, eventHooks, paymentOpts...)
	if err != nil {
		return err
	}
	a.Events, err = event.New(catalog[event.Event](db, payable.KindEvent), a.Users, prices,
		eventStore, eventRegistrar, event.WithLogger(logger), event.WithDefaultReduction(defaults))
	if err != nil {
		return err
	}

	// Activities.
	activityStore := paymentStore[activity.Registration](db, "activity_registrations")
	activityHooks := activity.NewHooks(a.Users, a.Mailer)
	activityRegistrar, err := payment.NewRegistrar[*activity.Registration](payment.KindActivity, activityStore,
		limiter, gateway, a.Signer, activityHooks, paymentOpts...)
	if err != nil {
		return err
	}
	a.ActivityReconciler, err = payment.NewReconciler[*activity.Registration](payment.KindActivity, activityStore,
		gateway, activityHooks, paymentOpts...)
	if err != nil {
		return err
	}
	a.Activities, err = activity.New(catalog[activity.Activity](db, payable.KindActivity), a.Users, prices,
		activityStore, activityRegistrar, activity.WithLogger(logger))
	if err != nil {
		return err
	}

	a.Poller = payment.NewPoller(cfg.Poller.Interval, cfg.Poller.Concurrency, logger,
		a.MembershipReconciler, a.EventReconciler, a.ActivityReconciler)
	return nil
}

// gateway builds the configured provider behind the circuit breaker.
func (a *App) gateway() (checkout.Gateway, error) {
	cfg := a.Config.Checkout
	var inner checkout.Gateway
	switch cfg.Provider {
	case "mollie":
		m, err := checkout.NewMollie(cfg.MollieAPIKey, cfg.MollieAPIBase, cfg.Currency, cfg.Timeout,
			checkout.WithMollieLogger(a.Logger))
		if err != nil {
			return nil, err
		}
		inner = m
	case "fake", "":
		if a.Config.Server.IsProduction() {
			return nil, errors.New("the fake checkout provider is not allowed in production")
		}
		a.Fake = checkout.NewFake(a.Config.Server.PublicBaseURL)
		inner = a.Fake
	default:
		return nil, fmt.Errorf("unknown checkout provider %q", cfg.Provider)
	}
	breaker := circuit.New("checkout",
		circuit.WithFailureThreshold(cfg.FailureThreshold),
		circuit.WithCooldown(cfg.Cooldown),
	)
	return checkout.NewGuarded(inner, breaker,
		checkout.WithGuardLogger(a.Logger),
		checkout.WithGuardMetrics(checkoutmetrics.New()),
	), nil
}

// Reconciler returns the reconciler for kind.
func (a *App) Reconciler(kind payment.Kind) (httptransport.Reconciler, error) {
	switch kind {
	case payment.KindMembership:
		return a.MembershipReconciler, nil
	case payment.KindEvent:
		return a.EventReconciler, nil
	case payment.KindActivity:
		return a.ActivityReconciler, nil
	default:
		return nil, fmt.Errorf("unknown payment kind %q", kind)
	}
}

// Handler builds the HTTP surface.
func (a *App) Handler() (http.Handler, error) {
	opts := []httptransport.Option{
		httptransport.WithLogger(a.Logger),
		httptransport.WithMemberships(a.Memberships),
		httptransport.WithEvents(a.Events),
		httptransport.WithActivities(a.Activities),
		httptransport.WithAdmin(a.Config.Server.AdminToken, a.Poller),
		httptransport.WithHTTPMetrics(metrics.NewHTTP()),
	}
	if a.Fake != nil {
		opts = append(opts, httptransport.WithFakeCheckout(a.Fake))
	}
	h, err := httptransport.New(a.Signer, []httptransport.Reconciler{
		a.MembershipReconciler, a.EventReconciler, a.ActivityReconciler,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return h.Router(), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func paymentStore[T any, P interface {
	*T
	payment.Cloner[P]
}](db *sql.DB, table string) payment.Store[P] {
	if db == nil {
		return payment.NewInMemory[P]()
	}
	return payment.NewPostgres[T, P](db, table)
}

func catalog[T any, P interface {
	*T
	payable.Payable
}](db *sql.DB, kind payable.Kind) payable.Catalog[P] {
	if db == nil {
		return payablestore.NewInMemory[P]()
	}
	return payablestore.NewPostgres[T, P](db, kind)
}
