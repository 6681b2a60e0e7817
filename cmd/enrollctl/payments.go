package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"enroll/internal/app"
	"enroll/internal/payment"
	"enroll/internal/platform/config"
	"enroll/internal/platform/logger"
	id "enroll/pkg/domain"
	"enroll/pkg/requestcontext"
)

// withApp wires the service, keeps the mail dispatcher running while fn
// executes and drains it before returning.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Server.Environment, cfg.Server.LogLevel)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	mailCtx, stopMail := context.WithCancel(context.Background())
	go a.Mailer.Run(mailCtx)
	defer func() {
		stopMail()
		a.Mailer.Wait()
	}()

	return fn(requestcontext.WithRequestID(ctx, "enrollctl"), a)
}

func kindFlag(cmd *cobra.Command) payment.Kind {
	kind, _ := cmd.Flags().GetString("kind")
	return payment.Kind(kind)
}

func addKindFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("kind", "k", string(payment.KindMembership), "Payment kind (membership, event, activity)")
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <transaction-id>",
		Short: "Query the provider for a transaction and apply its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				rec, err := a.Reconciler(kindFlag(cmd))
				if err != nil {
					return err
				}
				outcome, err := rec.Reconcile(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", rec.Kind(), args[0], outcome)
				return nil
			})
		},
	}
	addKindFlag(cmd)
	return cmd
}

func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Reconcile every pending payment once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				reports := a.Poller.RunOnce(ctx)
				kinds := make([]string, 0, len(reports))
				for k := range reports {
					kinds = append(kinds, string(k))
				}
				sort.Strings(kinds)
				out := cmd.OutOrStdout()
				for _, k := range kinds {
					r := reports[payment.Kind(k)]
					fmt.Fprintf(out, "%-12s checked=%d failed=%d\n", k, r.Checked, r.Failed)
				}
				return nil
			})
		},
	}
}

func cancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <payment-id>",
		Short: "Cancel an unpaid payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, args[0], "cancel")
		},
	}
	addKindFlag(cmd)
	return cmd
}

func refundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refund <payment-id>",
		Short: "Refund a paid payment through the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, args[0], "refund")
		},
	}
	addKindFlag(cmd)
	return cmd
}

func settle(cmd *cobra.Command, rawID, action string) error {
	paymentID, err := id.ParsePaymentID(rawID)
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		rec, err := a.Reconciler(kindFlag(cmd))
		if err != nil {
			return err
		}
		var outcome payment.Outcome
		if action == "cancel" {
			outcome, err = rec.Cancel(ctx, paymentID)
		} else {
			outcome, err = rec.Refund(ctx, paymentID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", rec.Kind(), paymentID, outcome)
		return nil
	})
}
