package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Result store backends.
const (
	BackendFS       = "fs"
	BackendS3       = "s3"
	BackendGCS      = "gcs"
	BackendPostgres = "postgres"
)

type Config struct {
	Host              string
	Port              int
	Debug             bool
	ProjectName       string
	OutputDir         string
	DefaultTechnology string
	PluginDir         string
	MaxUploadMB       int
	RequestTimeout    time.Duration
	CORSOrigins       []string
	JWTSecret         string

	ResultBackend string
	BucketName    string
	StoragePrefix string
	AwsAccessKey  string
	AwsSecretKey  string
	AwsRegion     string
	S3Endpoint    string
	DatabaseURL   string

	Pdftoppm       string
	OCRDPI         int
	OCRMaxPages    int
	OCRWorkers     int
	TessdataPrefix string
	OpenAIBaseURL  string
	LLMTimeout     time.Duration

	ConfigFile string
	// Technologies holds per-technology parameter defaults, merged under request params.
	Technologies map[string]map[string]any
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig layers built-in defaults and environment, then the YAML file, then command line flags.
func LoadConfig(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:              getEnv("API_HOST", "0.0.0.0"),
		Port:              getEnvInt("API_PORT", getEnvInt("PORT", 8000)),
		Debug:             getEnvBool("DEBUG", false),
		ProjectName:       getEnv("PROJECT_NAME", "Document Reader"),
		OutputDir:         getEnv("OUTPUT_DIRECTORY", "outputs"),
		DefaultTechnology: getEnv("DEFAULT_TECHNOLOGY", "tesseract"),
		PluginDir:         getEnv("PLUGIN_DIR", ""),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 50),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 5*time.Minute),
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		JWTSecret:         getEnv("JWT_SECRET", ""),

		ResultBackend: strings.ToLower(getEnv("RESULT_BACKEND", BackendFS)),
		BucketName:    getEnv("BUCKET_NAME", ""),
		StoragePrefix: getEnv("STORAGE_PREFIX", "outputs"),
		AwsAccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:  getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:     getEnv("AWS_REGION", "us-east-2"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		Pdftoppm:       getEnv("PDFTOPPM_PATH", "pdftoppm"),
		OCRDPI:         getEnvInt("OCR_DPI", 300),
		OCRMaxPages:    getEnvInt("OCR_MAX_PAGES", 0),
		OCRWorkers:     getEnvInt("OCR_WORKERS", 2),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		ConfigFile:   getEnv("CONFIG_FILE", ""),
		Technologies: map[string]map[string]any{},
	}

	fs := flag.NewFlagSet("docreader", flag.ContinueOnError)
	host := fs.String("host", "", "listen host")
	port := fs.Int("port", 0, "listen port")
	debug := fs.Bool("debug", false, "enable debug logging")
	outDir := fs.String("output-dir", "", "directory for job results")
	cfgFile := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["config"] {
		cfg.ConfigFile = *cfgFile
	}
	if cfg.ConfigFile != "" {
		if err := applyFile(cfg, cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if set["host"] {
		cfg.Host = *host
	}
	if set["port"] {
		cfg.Port = *port
	}
	if set["debug"] {
		cfg.Debug = *debug
	}
	if set["output-dir"] {
		cfg.OutputDir = *outDir
	}

	applySecrets(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(cfg.OutputDir); err == nil {
		cfg.OutputDir = abs
	}
	return cfg, nil
}

// applySecrets seeds api_key defaults from the environment unless the file configured one.
func applySecrets(cfg *Config) {
	for tech, env := range map[string]string{"openai": "OPENAI_API_KEY", "gemini": "GEMINI_API_KEY"} {
		key := getEnv(env, "")
		if key == "" {
			continue
		}
		s := cfg.Technologies[tech]
		if s == nil {
			s = map[string]any{}
			cfg.Technologies[tech] = s
		}
		if _, ok := s["api_key"]; !ok {
			s["api_key"] = key
		}
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_MB must be positive")
	}
	switch c.ResultBackend {
	case BackendFS:
		if c.OutputDir == "" {
			return fmt.Errorf("config: output directory is empty")
		}
	case BackendS3, BackendGCS:
		if c.BucketName == "" {
			return fmt.Errorf("config: BUCKET_NAME is required for the %s backend", c.ResultBackend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown RESULT_BACKEND %q", c.ResultBackend)
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config.env.invalid", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config.env.invalid", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config.env.invalid", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
