package models

import "time"

// City is a named forecast location.
type City struct {
	Name      string  `yaml:"name" json:"name" validate:"required"`
	Latitude  float64 `yaml:"latitude" json:"latitude" validate:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude" validate:"longitude"`
}

// HourlyWind represents the hourly wind forecast returned by Open-Meteo
type HourlyWind struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Timezone  string      `json:"timezone"`
	Times     []time.Time `json:"times"`
	SpeedsKmh []float64   `json:"speeds_kmh"` // wind_speed_10m
	FetchedAt time.Time   `json:"fetched_at"`
}
