package jsonmodel

import "time"

type RunResponse struct {
	RunID        string                `json:"runId"`
	Mode         string                `json:"mode"`
	Source       string                `json:"source"`
	Started      time.Time             `json:"started"`
	Stats        StatsResponse         `json:"stats"`
	Pagination   Pagination            `json:"pagination"`
	Measurements []MeasurementResponse `json:"measurements"`
}

type Pagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Items      int `json:"items"`
	TotalItems int `json:"totalItems"`
}
