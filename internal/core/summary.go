package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// Summary is a compact overview of one period's ledger. Spent is always a
// reduction over the expense entries, never a stored running total.
type Summary struct {
	Income     Money            `json:"income"`
	Spent      Money            `json:"spent"`
	ByCategory []CategoryAmount `json:"byCategory,omitempty"`
}

// Summarize computes the summary for a month ledger.
func Summarize(m MonthLedger) Summary {
	s := Summary{Income: m.MonthlyIncome}
	byCat := map[string]int64{}
	var order []string
	for _, e := range m.Expenses {
		s.Spent = s.Spent.Add(e.Amount)
		if _, seen := byCat[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byCat[e.Category] += e.Amount.Paise
	}
	for _, name := range order {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: Money{Paise: byCat[name]}})
	}
	return s
}
