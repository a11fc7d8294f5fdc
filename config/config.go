// Package config loads the service configuration from the environment and
// an optional YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/caio-sobreiro/dicomjson/types"
)

// EnvPrefix prefixes every environment variable, e.g. DICOMJSON_LISTEN_ADDR.
const EnvPrefix = "DICOMJSON"

type Config struct {
	ListenAddr         string        `mapstructure:"LISTEN_ADDR"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	SourceURL          string        `mapstructure:"SOURCE_URL"`
	WadoRoot           string        `mapstructure:"WADO_ROOT"`
	WadoURIRoot        string        `mapstructure:"WADO_URI_ROOT"`
	ImageRendering     string        `mapstructure:"IMAGE_RENDERING"`
	ThumbnailRendering string        `mapstructure:"THUMBNAIL_RENDERING"`
	FetchTimeout       time.Duration `mapstructure:"FETCH_TIMEOUT"`
	UploadTimeout      time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	UploadToken        string        `mapstructure:"UPLOAD_TOKEN"`
	Concurrency        int           `mapstructure:"CONCURRENCY"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTIssuer          string        `mapstructure:"JWT_ISSUER"`
	JWTAudience        string        `mapstructure:"JWT_AUDIENCE"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	RequireAuth        bool          `mapstructure:"REQUIRE_AUTH"`
}

var keys = []string{
	"LISTEN_ADDR",
	"ENV",
	"LOG_LEVEL",
	"SOURCE_URL",
	"WADO_ROOT",
	"WADO_URI_ROOT",
	"IMAGE_RENDERING",
	"THUMBNAIL_RENDERING",
	"FETCH_TIMEOUT",
	"UPLOAD_TIMEOUT",
	"UPLOAD_TOKEN",
	"CONCURRENCY",
	"JWT_SECRET",
	"JWT_ISSUER",
	"JWT_AUDIENCE",
	"JWT_TTL",
	"REQUIRE_AUTH",
}

// Load reads the configuration. path names an optional YAML file; values
// from the environment override it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("IMAGE_RENDERING", types.RenderingWADOURI)
	v.SetDefault("THUMBNAIL_RENDERING", types.RenderingWADOURI)
	v.SetDefault("FETCH_TIMEOUT", 30*time.Second)
	v.SetDefault("UPLOAD_TIMEOUT", 60*time.Second)
	v.SetDefault("CONCURRENCY", 4)
	v.SetDefault("JWT_ISSUER", "dicomjson")
	v.SetDefault("JWT_TTL", 5*time.Minute)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range keys {
		v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Source returns the image id settings.
func (c *Config) Source() types.SourceConfig {
	return types.SourceConfig{
		WadoRoot:           c.WadoRoot,
		WadoURIRoot:        c.WadoURIRoot,
		ImageRendering:     c.ImageRendering,
		ThumbnailRendering: c.ThumbnailRendering,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	for name, mode := range map[string]string{
		"IMAGE_RENDERING":     c.ImageRendering,
		"THUMBNAIL_RENDERING": c.ThumbnailRendering,
	} {
		if mode != types.RenderingWADOURI && mode != types.RenderingWADORS {
			return fmt.Errorf("%s must be %q or %q, got %q", name, types.RenderingWADOURI, types.RenderingWADORS, mode)
		}
	}
	if c.ImageRendering == types.RenderingWADORS && c.WadoRoot == "" {
		return fmt.Errorf("WADO_ROOT is required when IMAGE_RENDERING is %q", types.RenderingWADORS)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT must be positive, got %s", c.UploadTimeout)
	}
	if c.RequireAuth && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when REQUIRE_AUTH is true")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	return nil
}
