package output

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenBudgetInfo describes how much of a token budget a rendered map uses.
type TokenBudgetInfo struct {
	Tokens       int     // estimated token count
	Budget       int     // token budget
	BudgetLabel  string  // human-readable budget label, e.g. "64k"
	UsagePercent float64 // percentage of budget used
	Remaining    int     // estimated tokens remaining
}

// Common context window sizes.
const (
	Budget8K   = 8000
	Budget16K  = 16000
	Budget32K  = 32000
	Budget64K  = 64000
	Budget128K = 128000
	Budget200K = 200000
)

// DefaultBudget is the budget assumed when none is configured.
const DefaultBudget = Budget128K

// CharsPerToken is the approximate character-to-token ratio. Code averages
// around four characters per token.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text. The estimate
// counts runes, so multi-byte characters are not overweighted.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(utf8.RuneCountInString(text)) / CharsPerToken
	return int(tokens + 0.5)
}

// FormatTokenCount formats a token count for display. Counts >= 1000 are
// formatted as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}

// ParseBudget parses a budget flag value: either a plain token count or a
// preset label like "8k", "64k", "128k". Zero means no budget.
func ParseBudget(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative token budget %d", n)
		}
		return n, nil
	}
	if cut, ok := strings.CutSuffix(s, "k"); ok {
		if n, err := strconv.Atoi(cut); err == nil && n >= 0 {
			return n * 1000, nil
		}
	}
	return 0, fmt.Errorf("invalid token budget %q", s)
}

// GetTokenBudgetInfo calculates budget usage for the given text.
func GetTokenBudgetInfo(text string, budget int) TokenBudgetInfo {
	if budget <= 0 {
		budget = DefaultBudget
	}

	tokens := EstimateTokens(text)
	remaining := budget - tokens
	if remaining < 0 {
		remaining = 0
	}

	return TokenBudgetInfo{
		Tokens:       tokens,
		Budget:       budget,
		BudgetLabel:  formatBudgetLabel(budget),
		UsagePercent: float64(tokens) / float64(budget) * 100,
		Remaining:    remaining,
	}
}

func formatBudgetLabel(budget int) string {
	if budget >= 1000 {
		return fmt.Sprintf("%dk", budget/1000)
	}
	return fmt.Sprintf("%d", budget)
}

// BudgetTiers returns the common budget tiers for display.
func BudgetTiers() []int {
	return []int{Budget8K, Budget16K, Budget32K, Budget64K, Budget128K, Budget200K}
}
