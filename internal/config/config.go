package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr           string
		AllowedOrigins []string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Attachments struct {
		Dir       string
		MaxUpload int64
	}
	Download struct {
		Lifetime  time.Duration
		Extension time.Duration
		RateLimit float64
	}
	Log struct {
		Level  string
		Format string
	}
	SessionLifetime time.Duration
	InsecureCookies bool
}

// Load reads config from environment (ELOG_ prefix) and optional elogbook.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("elogbook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", "*")
	v.SetDefault("attachments.dir", "./attachments")
	v.SetDefault("attachments.max_upload", 64<<20)
	v.SetDefault("download.lifetime", "5m")
	v.SetDefault("download.extension", "5m")
	v.SetDefault("download.rate_limit", 20)
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.AllowedOrigins = splitList(v.GetString("http.allowed_origins"))
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Attachments.Dir = v.GetString("attachments.dir")
	cfg.Attachments.MaxUpload = v.GetInt64("attachments.max_upload")
	cfg.Download.RateLimit = v.GetFloat64("download.rate_limit")
	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Log.Format = strings.ToLower(v.GetString("log.format"))
	cfg.InsecureCookies = v.GetBool("insecure_cookies")

	var err error
	if cfg.Download.Lifetime, err = positiveDuration(v, "download.lifetime"); err != nil {
		return nil, err
	}
	if cfg.Download.Extension, err = positiveDuration(v, "download.extension"); err != nil {
		return nil, err
	}
	if cfg.SessionLifetime, err = positiveDuration(v, "session.lifetime"); err != nil {
		return nil, err
	}

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("ELOG_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("ELOG_DB_DSN is required")
	}
	if cfg.Attachments.Dir == "" {
		return nil, fmt.Errorf("ELOG_ATTACHMENTS_DIR must not be empty")
	}
	if cfg.Attachments.MaxUpload <= 0 {
		return nil, fmt.Errorf("ELOG_ATTACHMENTS_MAX_UPLOAD must be positive")
	}
	if cfg.Download.RateLimit < 0 {
		return nil, fmt.Errorf("ELOG_DOWNLOAD_RATE_LIMIT must not be negative")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid ELOG_LOG_FORMAT %q: must be text or json", cfg.Log.Format)
	}

	return cfg, nil
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	env := "ELOG_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", env)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
