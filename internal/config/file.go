package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type fileConfig struct {
	API struct {
		Host  string `yaml:"host"`
		Port  int    `yaml:"port"`
		Debug *bool  `yaml:"debug"`
	} `yaml:"api"`
	App struct {
		ProjectName       string   `yaml:"project_name"`
		OutputDirectory   string   `yaml:"output_directory"`
		DefaultTechnology string   `yaml:"default_technology"`
		PluginDir         string   `yaml:"plugin_dir"`
		MaxUploadMB       int      `yaml:"max_upload_mb"`
		CORSOrigins       []string `yaml:"cors_origins"`
	} `yaml:"app"`
	// Top-level default_technology is accepted for older files.
	DefaultTechnology string `yaml:"default_technology"`
	Storage           struct {
		Backend     string `yaml:"backend"`
		Bucket      string `yaml:"bucket"`
		Prefix      string `yaml:"prefix"`
		Region      string `yaml:"region"`
		Endpoint    string `yaml:"endpoint"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"storage"`
	Technologies map[string]map[string]interface{} `yaml:"technologies"`
}

// applyFile overlays non-zero values from a YAML file onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&cfg.Host, fc.API.Host)
	if fc.API.Port != 0 {
		cfg.Port = fc.API.Port
	}
	if fc.API.Debug != nil {
		cfg.Debug = *fc.API.Debug
	}

	setString(&cfg.ProjectName, fc.App.ProjectName)
	setString(&cfg.OutputDir, fc.App.OutputDirectory)
	setString(&cfg.DefaultTechnology, fc.DefaultTechnology)
	setString(&cfg.DefaultTechnology, fc.App.DefaultTechnology)
	setString(&cfg.PluginDir, fc.App.PluginDir)
	if fc.App.MaxUploadMB != 0 {
		cfg.MaxUploadMB = fc.App.MaxUploadMB
	}
	if len(fc.App.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.App.CORSOrigins
	}

	if fc.Storage.Backend != "" {
		cfg.ResultBackend = strings.ToLower(fc.Storage.Backend)
	}
	setString(&cfg.BucketName, fc.Storage.Bucket)
	setString(&cfg.StoragePrefix, fc.Storage.Prefix)
	setString(&cfg.AwsRegion, fc.Storage.Region)
	setString(&cfg.S3Endpoint, fc.Storage.Endpoint)
	setString(&cfg.DatabaseURL, fc.Storage.DatabaseURL)

	for name, settings := range fc.Technologies {
		m := make(map[string]any, len(settings))
		for k, v := range settings {
			m[k] = normalize(v)
		}
		cfg.Technologies[name] = m
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// normalize turns yaml.v2 maps into JSON-compatible ones.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []interface{}:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case int:
		// request params arrive as JSON numbers
		return float64(t)
	}
	return v
}
