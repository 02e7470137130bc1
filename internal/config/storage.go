package config

import "fmt"

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StorageConfig struct {
	DriverName string `yaml:"driver"`
	DBPath     string `yaml:"path"`
}

func (s *StorageConfig) Driver() string {
	return s.DriverName
}

func (s *StorageConfig) Path() string {
	return s.DBPath
}

func (s *StorageConfig) validate() error {
	switch s.DriverName {
	case DriverMemory:
		return nil
	case DriverSQLite:
		if s.DBPath == "" {
			return fmt.Errorf("sqlite driver requires a path")
		}
		return nil
	}
	return fmt.Errorf("unknown storage driver %q", s.DriverName)
}
