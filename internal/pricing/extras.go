package pricing

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	dErrors "enroll/pkg/domain-errors"
)

// ParseExtras sums the priced answers in a registration's additional data.
//
// The data is a JSON object of form answers. An answer contributes when it is
// an object with a "price" (number or numeric string) and an optional integer
// "quantity", or a list of such objects. Other answers are ignored.
func ParseExtras(raw []byte) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}

	var answers map[string]json.RawMessage
	if err := json.Unmarshal(raw, &answers); err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeValidation, "additional data must be a JSON object")
	}

	total := decimal.Zero
	for field, answer := range answers {
		amount, err := answerAmount(answer)
		if err != nil {
			return decimal.Zero, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("invalid priced answer %q", field))
		}
		total = total.Add(amount)
	}
	return total, nil
}

type pricedOption struct {
	Price    json.RawMessage `json:"price"`
	Quantity *int            `json:"quantity"`
}

func answerAmount(answer json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(answer)
	if len(trimmed) == 0 {
		return decimal.Zero, nil
	}
	switch trimmed[0] {
	case '{':
		return optionAmount(trimmed)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return decimal.Zero, err
		}
		total := decimal.Zero
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				continue
			}
			amount, err := optionAmount(item)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(amount)
		}
		return total, nil
	default:
		return decimal.Zero, nil
	}
}

func optionAmount(raw []byte) (decimal.Decimal, error) {
	var opt pricedOption
	if err := json.Unmarshal(raw, &opt); err != nil {
		return decimal.Zero, err
	}
	literal := string(bytes.Trim(bytes.TrimSpace(opt.Price), `"`))
	if literal == "" || literal == "null" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must not be negative")
	}
	qty := 1
	if opt.Quantity != nil {
		qty = *opt.Quantity
	}
	if qty < 0 {
		return decimal.Zero, fmt.Errorf("quantity must not be negative")
	}
	return price.Mul(decimal.NewFromInt(int64(qty))), nil
}
