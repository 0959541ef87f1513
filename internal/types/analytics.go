package types

// AnalyticsData aggregates the dashboard panels for one user.
type AnalyticsData struct {
	Engagement  EngagementStats `json:"engagement"`
	AIUsage     AIUsageStats    `json:"ai_usage"`
	Predictions PredictiveStats `json:"predictions"`
}

type EngagementStats struct {
	TotalTrips        int64   `json:"total_trips"`
	TotalDetails      int64   `json:"total_details"`
	AvgDetailsPerTrip float64 `json:"avg_details_per_trip"`
}

type AIUsageStats struct {
	TotalAIDetails int64 `json:"total_ai_details"`
	// AvgEstimatedDuration is the mean detail duration in minutes.
	AvgEstimatedDuration float64 `json:"avg_estimated_duration"`
	SuccessRate          float64 `json:"success_rate"`
}

type PredictiveStats struct {
	TrendingTopic string `json:"trending_topic"`
	// MonthlyGrowth counts trips created in the last 30 days.
	MonthlyGrowth int64 `json:"monthly_growth"`
}

// DashboardOverview holds the admin landing-page counters.
type DashboardOverview struct {
	Users     int64 `json:"users"`
	Trips     int64 `json:"trips"`
	PaidUsers int64 `json:"paid_users"`
}
