package models

import "time"

// AlertReport represents a strong wind alert for email delivery
type AlertReport struct {
	Date         time.Time `json:"date"`
	City         string    `json:"city"`
	MaxWindKmh   float64   `json:"max_wind_kmh"`
	ThresholdKmh float64   `json:"threshold_kmh"`
	PeakHour     int       `json:"peak_hour"`
	SpikeCount   int       `json:"spike_count"`
	Hours        int       `json:"hours"`
	Message      string    `json:"message"`
	Briefing     string    `json:"briefing,omitempty"` // optional AI summary
}
