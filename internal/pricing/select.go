package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"skinvault/internal/model"
)

// SelectPrice picks the representative price of a record:
// suggested, then median, mean, min and max. The first non-null wins.
func SelectPrice(r model.PriceRecord) (decimal.Decimal, bool) {
	for _, v := range []decimal.NullDecimal{r.Suggested, r.Median, r.Mean, r.Min, r.Max} {
		if v.Valid {
			return v.Decimal, true
		}
	}
	return decimal.Decimal{}, false
}

// extraOf keeps the raw listing figures next to the selected price, nulls omitted.
func extraOf(r model.PriceRecord) json.RawMessage {
	fields := map[string]decimal.NullDecimal{
		"suggested": r.Suggested,
		"min":       r.Min,
		"max":       r.Max,
		"mean":      r.Mean,
		"median":    r.Median,
		"quantity":  r.Quantity,
		"volume":    r.Volume,
	}
	out := make(map[string]json.Number, len(fields))
	for k, v := range fields {
		if v.Valid {
			out[k] = json.Number(v.Decimal.String())
		}
	}
	if len(out) == 0 {
		return nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return b
}

type writeKey struct {
	name     string
	currency string
}

// BuildWrites turns listing records into price writes. Records with no price or no
// currency are dropped; repeated (name, currency) pairs keep the last record at the
// position of the first.
func BuildWrites(records []model.PriceRecord) (writes []model.PriceWrite, dropped int) {
	pos := make(map[writeKey]int, len(records))
	writes = make([]model.PriceWrite, 0, len(records))
	for _, r := range records {
		price, ok := SelectPrice(r)
		if !ok || r.Currency == "" || r.Name == "" {
			dropped++
			continue
		}
		w := model.PriceWrite{
			Name:     r.Name,
			Currency: r.Currency,
			Price:    price,
			Extra:    extraOf(r),
		}
		key := writeKey{r.Name, r.Currency}
		if i, seen := pos[key]; seen {
			writes[i] = w
			continue
		}
		pos[key] = len(writes)
		writes = append(writes, w)
	}
	return writes, dropped
}
