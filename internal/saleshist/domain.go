package saleshist

// MonthlyDemand is the summed sales quantity for one calendar month.
type MonthlyDemand struct {
	Period string // formatted as YYYY-MM
	Qty    float64
}
