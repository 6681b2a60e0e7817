package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"enroll/internal/pricing"
)

// priceCmd runs the extras and personal stages on a given base price. It
// needs no stores, so staff can check a quote a member disputes.
func priceCmd() *cobra.Command {
	var (
		base, additionalData, factor, sibling string
		hasReduction, siblingEnrolled         bool
	)
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Compute a price from a base, extras and the personal reduction rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseDec, err := decimal.NewFromString(base)
			if err != nil {
				return fmt.Errorf("--base: %w", err)
			}
			red := pricing.Reduction{}
			if red.Factor, err = decimal.NewFromString(factor); err != nil {
				return fmt.Errorf("--reduction-factor: %w", err)
			}
			if red.Sibling, err = decimal.NewFromString(sibling); err != nil {
				return fmt.Errorf("--sibling-reduction: %w", err)
			}
			extras, err := pricing.ParseExtras([]byte(additionalData))
			if err != nil {
				return err
			}

			final, rule := pricing.Adjust(baseDec.Add(extras), red, hasReduction, siblingEnrolled)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base:   %s\n", baseDec.StringFixed(pricing.Places))
			fmt.Fprintf(out, "extras: %s\n", extras.StringFixed(pricing.Places))
			fmt.Fprintf(out, "rule:   %s\n", rule)
			fmt.Fprintf(out, "final:  %s\n", pricing.Round(final).StringFixed(pricing.Places))
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "0", "Resolved base price")
	cmd.Flags().StringVar(&additionalData, "additional-data", "", "Registration additional data (JSON)")
	cmd.Flags().StringVar(&factor, "reduction-factor", "3", "Divisor for payers with a reduction")
	cmd.Flags().StringVar(&sibling, "sibling-reduction", "0", "Amount off when a sibling is enrolled")
	cmd.Flags().BoolVar(&hasReduction, "has-reduction", false, "Payer has a personal reduction")
	cmd.Flags().BoolVar(&siblingEnrolled, "sibling-enrolled", false, "A sibling without reduction is already enrolled")
	return cmd
}
