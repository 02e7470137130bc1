package config

import "time"

type AppConfig struct {
	TimezoneName string `yaml:"timezone"`
	MetricsFile  string `yaml:"metrics-file"`
}

// MetricsPath is where store metrics are dumped on exit, empty to skip.
func (s *AppConfig) MetricsPath() string {
	return s.MetricsFile
}

// Location falls back to UTC when the zone database has no such name.
func (s *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimezoneName)
	if err != nil {
		return time.UTC
	}
	return loc
}
