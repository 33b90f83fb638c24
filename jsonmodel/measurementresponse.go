package jsonmodel

type MeasurementResponse struct {
	Item       string  `json:"item"`
	Strategy   string  `json:"strategy,omitempty"`
	Size       uint64  `json:"size"`
	Iteration  uint32  `json:"iteration"`
	OK         bool    `json:"ok"`
	DurationMs float64 `json:"duration"`
	Error      string  `json:"error,omitempty"`
}

type StatsResponse struct {
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	StdDev      float64 `json:"stddev"`
	SuccessRate float64 `json:"successRate"`
}
