package assist

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxHistoryTurns caps how much conversation history is replayed into the
// prompt. Older turns are ignored; callers may keep full history elsewhere.
const maxHistoryTurns = 5

// systemPersona is the fixed instruction block every prompt starts with.
// The formatting constraints here are a contract with StripMarkdown: the
// model is told plain text only, and whatever markup leaks through is
// stripped after generation.
const systemPersona = `You are Fin, an expert financial assistant for Finsight, a bookkeeping platform for small businesses.

CORE EXPERTISE:
- General bookkeeping principles and best practices
- Small business financial management
- Tax preparation and compliance guidance
- Cash flow optimization strategies
- Financial analysis and reporting

FINSIGHT FEATURES YOU CAN HELP WITH:
1. Transaction Management: categorization, review, search, statement imports
2. Dashboard Analytics: revenue and expense totals, top categories
3. Financial Insights: profit analysis, spending patterns, recommendations

RESPONSE GUIDELINES:
- Be conversational but professional
- Provide specific, actionable advice
- Use examples when helpful
- Reference Finsight features when relevant
- For general bookkeeping questions, educate the user
- Always consider the user's financial context when available

RESPONSE FORMAT:
- Start with a direct answer
- Provide supporting details in bullet points when appropriate
- Keep responses concise (under 300 words unless the topic requires more)
- DO NOT use markdown formatting (no **, __, ##, backticks)
- Use plain text with bullet points (•) for lists
- Use simple line breaks for structure

Remember: you are helping small business owners manage their finances better. Be helpful, accurate, and encouraging.`

// BuildPrompt assembles the full provider payload: persona, optional
// financial context block, up to the last maxHistoryTurns turns, and the
// current question with an explicit answer cue. Pure function of its inputs.
func BuildPrompt(userMessage string, data *FinancialContext, history []Turn) string {
	var sb strings.Builder
	sb.WriteString(systemPersona)

	if block := contextBlock(data); block != "" {
		sb.WriteString(block)
	}

	if len(history) > 0 {
		sb.WriteString("\n\nConversation History:")
		start := 0
		if len(history) > maxHistoryTurns {
			start = len(history) - maxHistoryTurns
		}
		for _, turn := range history[start:] {
			sb.WriteString("\n")
			sb.WriteString(capitalize(turn.Role))
			sb.WriteString(": ")
			sb.WriteString(turn.Content)
		}
	}

	sb.WriteString("\n\nUser Question: ")
	sb.WriteString(userMessage)
	sb.WriteString("\n\nAssistant Response:")

	return sb.String()
}

// contextBlock renders the financial context as a human-readable summary.
// Absent fields are omitted; an empty context produces no block at all.
func contextBlock(data *FinancialContext) string {
	if data.IsZero() {
		return ""
	}

	var parts []string

	if data.Revenue != nil {
		parts = append(parts, "Total Revenue: $"+money(*data.Revenue))
	}
	if data.Expenses != nil {
		parts = append(parts, "Total Expenses: $"+money(*data.Expenses))
	}
	if data.Profit != nil {
		parts = append(parts, "Net Profit: $"+money(*data.Profit))
		if data.Revenue != nil && *data.Revenue > 0 {
			margin := *data.Profit / *data.Revenue * 100
			parts = append(parts, fmt.Sprintf("Profit Margin: %.1f%%", margin))
		}
	}
	if len(data.TopCategories) > 0 {
		cats := data.TopCategories
		if len(cats) > 3 {
			cats = cats[:3]
		}
		parts = append(parts, "Top Expense Categories: "+strings.Join(cats, ", "))
	}
	if data.TransactionCount != nil {
		parts = append(parts, fmt.Sprintf("Total Transactions: %d", *data.TransactionCount))
	}

	if len(parts) == 0 {
		return ""
	}
	return "\n\nUser's Financial Context:\n" + strings.Join(parts, "\n")
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
