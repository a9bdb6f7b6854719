package listing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Bucket aggregates the items sharing a status
type Bucket struct {
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// Summary holds the totals of a filtered listing
type Summary struct {
	Count    int               `json:"count"`
	Total    decimal.Decimal   `json:"total"`
	ByStatus map[string]Bucket `json:"by_status"`
}

// Summarize counts and sums items per status bucket
func Summarize[T any](items []T, status func(T) string, amount func(T) float64) Summary {
	s := Summary{
		Total:    decimal.Zero,
		ByStatus: make(map[string]Bucket),
	}
	for _, item := range items {
		v := decimal.Zero
		if amount != nil {
			v = decimal.NewFromFloat(amount(item))
		}
		s.Count++
		s.Total = s.Total.Add(v)

		key := status(item)
		b := s.ByStatus[key]
		b.Count++
		b.Sum = b.Sum.Add(v)
		s.ByStatus[key] = b
	}
	return s
}

// Statuses returns the bucket keys in lexical order
func (s Summary) Statuses() []string {
	keys := make([]string, 0, len(s.ByStatus))
	for k := range s.ByStatus {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
