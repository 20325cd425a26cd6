package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"API_HOST", "API_PORT", "PORT", "DEBUG", "OUTPUT_DIRECTORY", "DEFAULT_TECHNOLOGY",
		"CONFIG_FILE", "RESULT_BACKEND", "BUCKET_NAME", "DATABASE_URL", "OPENAI_API_KEY",
		"GEMINI_API_KEY", "MAX_UPLOAD_MB", "REQUEST_TIMEOUT", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 8000 || cfg.Debug {
		t.Errorf("api defaults = %s:%d debug=%v", cfg.Host, cfg.Port, cfg.Debug)
	}
	if cfg.ProjectName != "Document Reader" || cfg.DefaultTechnology != "tesseract" || cfg.ResultBackend != BackendFS {
		t.Errorf("app defaults = %+v", cfg)
	}
	if !filepath.IsAbs(cfg.OutputDir) || filepath.Base(cfg.OutputDir) != "outputs" {
		t.Errorf("output dir = %q", cfg.OutputDir)
	}
	if cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("request timeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadConfigLayering(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yml := `
api:
  host: 127.0.0.1
  port: 9000
  debug: true
app:
  project_name: Reader Test
  output_directory: ` + filepath.Join(dir, "from-file") + `
default_technology: openai
technologies:
  openai:
    model: gpt-4o
    max_tokens: 500
  tesseract:
    language: deu
`
	if err := os.WriteFile(file, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("API_PORT", "7000")
	t.Setenv("API_HOST", "10.0.0.1")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadConfig([]string{"-config", file, "-port", "9100", "-output-dir", filepath.Join(dir, "from-flag")})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("file should override env: host = %q", cfg.Host)
	}
	if cfg.Port != 9100 {
		t.Errorf("flag should override file: port = %d", cfg.Port)
	}
	if !cfg.Debug || cfg.ProjectName != "Reader Test" || cfg.DefaultTechnology != "openai" {
		t.Errorf("file values = %+v", cfg)
	}
	if cfg.OutputDir != filepath.Join(dir, "from-flag") {
		t.Errorf("output dir = %q", cfg.OutputDir)
	}

	openai := cfg.Technologies["openai"]
	if openai["model"] != "gpt-4o" || openai["max_tokens"] != float64(500) || openai["api_key"] != "sk-env" {
		t.Errorf("openai settings = %v", openai)
	}
	if cfg.Technologies["tesseract"]["language"] != "deu" {
		t.Errorf("tesseract settings = %v", cfg.Technologies["tesseract"])
	}
	if len(cfg.Technologies["missing"]) != 0 {
		t.Error("missing technology should have empty settings")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESULT_BACKEND", "s3")
	if _, err := LoadConfig(nil); err == nil {
		t.Error("s3 backend without bucket should fail")
	}

	t.Setenv("RESULT_BACKEND", "tape")
	if _, err := LoadConfig(nil); err == nil {
		t.Error("unknown backend should fail")
	}

	t.Setenv("RESULT_BACKEND", "fs")
	if _, err := LoadConfig([]string{"-port", "70000"}); err == nil {
		t.Error("out of range port should fail")
	}
	if _, err := LoadConfig([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Error("missing config file should fail")
	}
}

func TestLoadConfigRejectsUnknownFileKeys(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(file, []byte("api:\n  hots: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig([]string{"-config", file}); err == nil {
		t.Error("typo in config file should fail")
	}
}
