package model

// BusinessMetrics are illustrative fleet numbers derived from a single
// classification. They are display material, not operational data.
type BusinessMetrics struct {
	RiskScore           float64 `json:"risk_score"`            // 0..100
	UptimePercent       float64 `json:"uptime_percent"`        // projected
	CostAvoidedUSD      float64 `json:"cost_avoided_usd"`      // per asset
	FuelEfficiencyDelta float64 `json:"fuel_efficiency_delta"` // percent vs optimal
}
