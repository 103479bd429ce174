package cli

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/treo/strawberry/graphql/server"
)

const defaultListenAddr = ":8080"

// serveConfig mirrors the strawberry.yaml file consumed by the serve command.
type serveConfig struct {
	Listen           string `yaml:"listen"`
	IDE              string `yaml:"ide"`
	AllowGET         *bool  `yaml:"allow_get"`
	MultipartUploads bool   `yaml:"multipart_uploads"`
}

// loadServeConfig reads the config file at path. A missing file yields
// defaults so the command runs without any configuration.
func loadServeConfig(path string) (serveConfig, error) {
	cfg := serveConfig{Listen: defaultListenAddr}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return serveConfig{}, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return serveConfig{}, err
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListenAddr
	}
	return cfg, nil
}

// serverOptions maps the file config onto view options.
func serverOptions(cfg serveConfig) server.Options {
	return server.Options{
		IDE:                     server.IDE(cfg.IDE),
		AllowQueriesViaGET:      cfg.AllowGET,
		MultipartUploadsEnabled: cfg.MultipartUploads,
	}
}
