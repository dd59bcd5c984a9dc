package core

// RecentEntryLimit caps the activity lists in a snapshot.
const RecentEntryLimit = 10

// Snapshot is the set of financial metrics for one user at a point in time.
// It is recomputed from the ledger on every read; nothing here is cached.
type Snapshot struct {
	PeriodStart            Date      `json:"period_start"`
	TotalSpent             Money     `json:"total_spent"`
	TotalSavings           Money     `json:"total_savings"`
	SavingsThisMonth       Money     `json:"savings_this_month"`
	MonthlyBudget          Money     `json:"monthly_budget"`
	BudgetUsedPercent      float64   `json:"budget_used_percent"`
	SavingsProgressPercent float64   `json:"savings_progress_percent"`
	RecentExpenses         []Expense `json:"recent_expenses"`
	RecentSavings          []Saving  `json:"recent_savings"`
}

// UsagePercent returns part/whole as a percentage clamped to [0, 100].
// A non-positive whole yields 0 rather than a division error.
func UsagePercent(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	p := float64(part.Cents) / float64(whole.Cents) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// BuildSnapshot assembles a snapshot from the profile and pre-aggregated
// ledger figures. The period runs from the first day of today's month
// through today inclusive; callers scope spent and savingsThisMonth to it.
func BuildSnapshot(profile Profile, today Date, spent, allSavings, savingsThisMonth Money, recentExpenses []Expense, recentSavings []Saving) Snapshot {
	if recentExpenses == nil {
		recentExpenses = []Expense{}
	}
	if recentSavings == nil {
		recentSavings = []Saving{}
	}
	return Snapshot{
		PeriodStart:            today.MonthStart(),
		TotalSpent:             spent,
		TotalSavings:           allSavings,
		SavingsThisMonth:       savingsThisMonth,
		MonthlyBudget:          profile.MonthlyIncome,
		BudgetUsedPercent:      UsagePercent(spent, profile.MonthlyIncome),
		SavingsProgressPercent: UsagePercent(allSavings, profile.SavingsGoal),
		RecentExpenses:         recentExpenses,
		RecentSavings:          recentSavings,
	}
}
