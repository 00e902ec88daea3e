package assist

// FinancialContext is a coarse snapshot of the user's books, used to decide
// whether a query is personalized (cache key derivation) and to build the
// prompt's context block. Nil pointer fields mean "not available" and are
// omitted from both.
type FinancialContext struct {
	Revenue          *float64
	Expenses         *float64
	Profit           *float64
	TopCategories    []string // ranked by spend, most significant first
	TransactionCount *int
}

// IsZero reports whether the context carries no usable fields.
func (fc *FinancialContext) IsZero() bool {
	if fc == nil {
		return true
	}
	return fc.Revenue == nil && fc.Expenses == nil && fc.Profit == nil &&
		len(fc.TopCategories) == 0 && fc.TransactionCount == nil
}

// Turn is a single prior exchange in a conversation.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
