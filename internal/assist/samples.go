package assist

// SamplePrompt is a suggested question surfaced to the frontend.
type SamplePrompt struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// SamplePrompts returns the suggested questions shown to new users.
func SamplePrompts() []SamplePrompt {
	return []SamplePrompt{
		{ID: 1, Text: "What is double-entry bookkeeping?", Category: "Basics"},
		{ID: 2, Text: "How do I categorize expenses?", Category: "Transactions"},
		{ID: 3, Text: "What is accrual accounting?", Category: "Basics"},
		{ID: 4, Text: "What is cash flow?", Category: "Basics"},
		{ID: 5, Text: "How can I reduce my business expenses?", Category: "Insights"},
		{ID: 6, Text: "How do I prepare for tax season?", Category: "Taxes"},
	}
}

// sampleAnswers are pre-written answers to the most common general questions.
// Seeding them keeps the first minutes of a fresh install off the provider
// quota entirely. Keys are matched through the normal key derivation, so the
// question text here only needs to match up to case and surrounding
// whitespace.
var sampleAnswers = map[string]string{
	"What is double-entry bookkeeping?": `Double-entry bookkeeping is a fundamental accounting principle where every financial transaction is recorded in at least two different accounts.

• The core idea: for every debit there must be an equal and opposite credit, so the accounting equation (Assets = Liabilities + Equity) always stays balanced.
• Accuracy: the built-in balance check makes errors much easier to detect.
• Completeness: all sides of a transaction are captured, giving a full picture of your financial health.
• Reporting: it is the foundation for accurate statements like your Balance Sheet and Income Statement.

Finsight handles the debits and credits behind the scenes. Focus on categorizing your transactions accurately and the books stay balanced for you.`,

	"How do I categorize expenses?": `Categorizing expenses correctly is crucial for accurate bookkeeping and tax preparation.

Common categories:
• Cost of Goods Sold: direct costs of producing goods or services
• Payroll: salaries, wages, benefits
• Rent and Utilities: office space, electricity, internet
• Office Supplies: stationery, equipment, software
• Marketing: promotional costs, ads, website
• Professional Fees: legal, accounting, consulting

Best practices:
• Be consistent: use the same category for similar expenses
• Be specific: avoid overusing a miscellaneous bucket
• Review weekly to catch mistakes early

In Finsight, open the Transactions page and review anything uncategorized. Suggested categories can be accepted or changed with one click.`,

	"What is accrual accounting?": `Accrual accounting records revenue when it is earned and expenses when they are incurred, regardless of when cash actually moves.

• Example: you invoice a client in March and get paid in May. Under accrual accounting the revenue belongs to March.
• Contrast: cash-basis accounting records the revenue in May, when the money arrives.
• Why it matters: accrual books show a truer picture of profitability in each period, and larger businesses are required to use it for tax purposes.

Most very small businesses start on a cash basis for simplicity and switch to accrual as they grow or take on inventory.`,

	"What is cash flow?": `Cash flow is the movement of money in and out of your business over a period of time.

• Positive cash flow: more money coming in than going out. You can pay bills, invest, and build a buffer.
• Negative cash flow: more going out than coming in. Even profitable businesses fail when they run out of cash.
• Cash flow is not profit: profit is an accounting result; cash flow is about timing. A big invoice you have not collected yet helps profit but not cash.

Watch your receivables closely, invoice promptly, and keep a reserve covering at least a month of expenses.`,

	"How do I prepare for tax season?": `Good preparation makes tax season routine instead of stressful.

• Keep books current: categorize transactions monthly, not in April.
• Separate accounts: never mix business and personal spending.
• Track deductions as they happen: mileage, home office, equipment, meals (usually 50% deductible).
• Save for the bill: set aside 25-30% of profit for taxes as you go.
• Reconcile before filing: make sure your recorded totals match bank statements.

Finsight's categorized transaction history and dashboard totals give your accountant most of what they need in one export.`,
}

// SeedSampleAnswers preloads the cache with the canned answers. Called by the
// server bootstrap, not the constructor, so tests observe a cold cache.
func (s *Service) SeedSampleAnswers() int {
	for question, answer := range sampleAnswers {
		s.cache.Set(question, answer, nil)
	}
	s.logger.Info("pre-cached sample answers", "count", len(sampleAnswers))
	return len(sampleAnswers)
}
