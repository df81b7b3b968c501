package report

// Insight classifies the qualitative reading of a balance. The user-facing
// text lives in the messages catalog, keyed by Insight.String(); selection
// here is deterministic for a given input.
type Insight int

const (
	// InsightKeepRecording is the neutral reading: not enough data yet,
	// or an exactly-zero balance.
	InsightKeepRecording Insight = iota
	InsightStrongPositive
	InsightMildPositive
	InsightSpendingWarning
	InsightMildNegative
)

// minObservations is the number of transactions required before a
// non-neutral reading is produced.
const minObservations = 5

func (i Insight) String() string {
	switch i {
	case InsightStrongPositive:
		return "strong_positive"
	case InsightMildPositive:
		return "mild_positive"
	case InsightSpendingWarning:
		return "spending_warning"
	case InsightMildNegative:
		return "mild_negative"
	default:
		return "keep_recording"
	}
}

// Observe classifies the balance of a filtered view. count is the number
// of transactions in that view. Rules are evaluated first-match-wins:
//
//	net >= 1000                          strong positive
//	0 < net < 1000                       mild positive
//	net < 0 && expense > 0.5 * income    spending warning
//	net < 0                              mild negative
//
// Below minObservations, and for an exactly zero balance, the neutral
// reading is returned.
func Observe(count int, s Summary) Insight {
	if count < minObservations {
		return InsightKeepRecording
	}
	switch {
	case s.NetBalance >= 1000:
		return InsightStrongPositive
	case s.NetBalance > 0:
		return InsightMildPositive
	case s.NetBalance < 0 && s.TotalExpense > 0.5*s.TotalIncome:
		return InsightSpendingWarning
	case s.NetBalance < 0:
		return InsightMildNegative
	default:
		return InsightKeepRecording
	}
}
