package output

// DefaultAssumptions lists key modeling assumptions rendered in detailed console output.
var DefaultAssumptions = []string{
	"Federal tax: 2025 brackets and standard deduction, indexed by simulated inflation",
	"Social Security taxation: 50%/85% provisional-income tiers, thresholds not indexed",
	"State tax: flat rate on ordinary income and realised gains; Social Security exempt",
	"RMDs: Uniform Lifetime Table from the SECURE 2.0 start age (72/73/75 by birth year)",
	"Spending: today's dollars inflated by each scenario's realised inflation",
	"Success: every year's spending, healthcare, LTC and taxes were fully funded",
}
