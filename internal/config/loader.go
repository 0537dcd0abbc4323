package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults when the corresponding field is unset.
const (
	DefaultAddr                      = ":5000"
	DefaultModelFile                 = "best_cancer_model_small.onnx"
	DefaultImageSize                 = 100
	DefaultMaxImagePixels            = 64 << 20
	DefaultMemoryThresholdPercent    = 85.0
	DefaultAdmissionThresholdPercent = 95.0
	DefaultProcPath                  = "/proc"
	DefaultThreads                   = 1
	DefaultMaxUploadMB               = 16
	DefaultLogLevel                  = "info"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// ModelPath is the explicit artifact location; it is tried before the
	// conventional fallbacks.
	ModelPath       string   `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelCandidates []string `json:"model_candidates" yaml:"model_candidates" toml:"model_candidates"`
	ImageSize       int      `json:"image_size" yaml:"image_size" toml:"image_size"`
	MaxImagePixels  int      `json:"max_image_pixels" yaml:"max_image_pixels" toml:"max_image_pixels"`

	MemoryThresholdPercent    float64 `json:"memory_threshold_percent" yaml:"memory_threshold_percent" toml:"memory_threshold_percent"`
	AdmissionThresholdPercent float64 `json:"admission_threshold_percent" yaml:"admission_threshold_percent" toml:"admission_threshold_percent"`
	ProcPath                  string  `json:"proc_path" yaml:"proc_path" toml:"proc_path"`

	ORTLibPath string `json:"ort_lib_path" yaml:"ort_lib_path" toml:"ort_lib_path"`
	Threads    int    `json:"threads" yaml:"threads" toml:"threads"`

	DegradedMode     bool `json:"degraded_mode" yaml:"degraded_mode" toml:"degraded_mode"`
	HealthLoadsModel bool `json:"health_loads_model" yaml:"health_loads_model" toml:"health_loads_model"`
	Preload          bool `json:"preload" yaml:"preload" toml:"preload"`
	WatchArtifacts   bool `json:"watch_artifacts" yaml:"watch_artifacts" toml:"watch_artifacts"`

	MaxUploadMB int      `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays process environment onto cfg. getenv is usually
// os.Getenv; tests pass a map lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("MODEL_PATH"); v != "" {
		c.ModelPath = v
	}
	if v := getenv("HISTOSCAN_ADDR"); v != "" {
		c.Addr = v
	} else if v := getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := getenv("ORT_LIB_PATH"); v != "" {
		c.ORTLibPath = v
	}
	if v := getenv("HISTOSCAN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("HISTOSCAN_DEGRADED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DegradedMode = b
		}
	}
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if len(c.ModelCandidates) == 0 {
		c.ModelCandidates = DefaultCandidates()
	}
	if c.ImageSize <= 0 {
		c.ImageSize = DefaultImageSize
	}
	if c.MaxImagePixels <= 0 {
		c.MaxImagePixels = DefaultMaxImagePixels
	}
	if c.MemoryThresholdPercent <= 0 {
		c.MemoryThresholdPercent = DefaultMemoryThresholdPercent
	}
	if c.AdmissionThresholdPercent <= 0 {
		c.AdmissionThresholdPercent = DefaultAdmissionThresholdPercent
	}
	if c.ProcPath == "" {
		c.ProcPath = DefaultProcPath
	}
	if c.Threads <= 0 {
		c.Threads = DefaultThreads
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	return c
}

// DefaultCandidates lists the conventional artifact locations, relative to
// the working directory, in priority order.
func DefaultCandidates() []string {
	out := []string{
		filepath.Join("model", DefaultModelFile),
		filepath.Join("backend", "model", DefaultModelFile),
	}
	if wd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(wd, "model", DefaultModelFile))
	}
	return out
}
