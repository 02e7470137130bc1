package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFile   = "data/config.yaml"
	configEnvKey = "BOOKKEEPER_CONFIG"
)

type config struct {
	Storage StorageConfig `yaml:"storage"`
	App     AppConfig     `yaml:"app"`
}

type Service struct {
	config config
}

// New reads the file named by BOOKKEEPER_CONFIG, or data/config.yaml.
func New() (*Service, error) {
	path := os.Getenv(configEnvKey)
	if path == "" {
		path = configFile
	}
	return NewFromFile(path)
}

func NewFromFile(path string) (*Service, error) {
	rawYAML, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(rawYAML)
}

func Parse(rawYAML []byte) (*Service, error) {
	s := &Service{config: defaults()}

	err := yaml.Unmarshal(rawYAML, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}

	if err = s.config.Storage.validate(); err != nil {
		return nil, errors.Wrap(err, "storage config")
	}
	return s, nil
}

func defaults() config {
	return config{
		Storage: StorageConfig{
			DriverName: DriverSQLite,
			DBPath:     "data/bookkeeper.db",
		},
		App: AppConfig{
			TimezoneName: "Local",
		},
	}
}

func (s *Service) Storage() *StorageConfig {
	return &s.config.Storage
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}
