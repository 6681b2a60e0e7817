package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjust(t *testing.T) {
	red := Reduction{Factor: dec("1.5"), Sibling: dec("20")}

	t.Run("personal reduction divides", func(t *testing.T) {
		got, rule := Adjust(dec("45"), red, true, false)
		assert.Equal(t, RuleReduction, rule)
		assert.Equal(t, "30.00", Round(got).StringFixed(Places))
	})

	t.Run("reduction takes priority over sibling discount", func(t *testing.T) {
		got, rule := Adjust(dec("45"), red, true, true)
		assert.Equal(t, RuleReduction, rule)
		assert.True(t, dec("30").Equal(got))
	})

	t.Run("sibling discount subtracts", func(t *testing.T) {
		got, rule := Adjust(dec("45"), red, false, true)
		assert.Equal(t, RuleSibling, rule)
		assert.True(t, dec("25").Equal(got))
	})

	t.Run("sibling discount clamps at zero", func(t *testing.T) {
		got, _ := Adjust(dec("15"), red, false, true)
		assert.True(t, got.IsZero())
	})

	t.Run("unset factor leaves the price", func(t *testing.T) {
		got, rule := Adjust(dec("45"), Reduction{}, true, false)
		assert.Equal(t, RuleNone, rule)
		assert.True(t, dec("45").Equal(got))
	})

	t.Run("rounding happens only at the boundary", func(t *testing.T) {
		got, _ := Adjust(dec("10"), Reduction{Factor: dec("3")}, true, false)
		assert.Equal(t, "3.33", Round(got).StringFixed(Places))
		assert.False(t, got.Equal(Round(got)), "internal value stays unrounded")
	})
}
