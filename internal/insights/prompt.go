package insights

import (
	"fmt"
	"strings"

	"xpenso/internal/core"
)

// RecentTransactionsInPrompt is how many of the newest transactions are shown to the model.
const RecentTransactionsInPrompt = 5

const systemInstruction = "You are a helpful financial advisor. Provide brief, actionable insights."

// BuildPrompt renders the month snapshot and recent activity as a model
// prompt. recent is expected newest first; category lines are ranked by spend.
func BuildPrompt(s core.StatsSnapshot, recent []core.Transaction) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor AI. Based on the following user data, ")
	b.WriteString("provide a brief, friendly financial insight (max 50 words):\n\n")

	b.WriteString("Current Month Stats:\n")
	fmt.Fprintf(&b, "- Total Income: %s%s\n", core.CurrencySymbol, s.TotalIncome)
	fmt.Fprintf(&b, "- Total Expenses: %s%s\n", core.CurrencySymbol, s.TotalExpenses)
	fmt.Fprintf(&b, "- Remaining Budget: %s%s\n\n", core.CurrencySymbol, s.Remaining)

	b.WriteString("Recent Transactions:\n")
	if len(recent) > RecentTransactionsInPrompt {
		recent = recent[:RecentTransactionsInPrompt]
	}
	for _, tx := range recent {
		fmt.Fprintf(&b, "- %s: %s%s (%s)\n", tx.Description, core.CurrencySymbol, tx.Amount, tx.Category)
	}

	b.WriteString("\nCategory Spending:\n")
	for _, c := range s.RankedCategories() {
		fmt.Fprintf(&b, "- %s: %s%s\n", c.Name, core.CurrencySymbol, c.Amount)
	}

	b.WriteString("\nProvide a personalized, actionable insight that helps them improve their financial health.")
	return b.String()
}
