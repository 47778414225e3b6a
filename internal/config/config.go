package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv          string `mapstructure:"APP_ENV"`
	AppPort         string `mapstructure:"APP_PORT"`
	AppBaseURL      string `mapstructure:"APP_BASE_URL"`
	DBDSN           string `mapstructure:"DB_DSN"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	JWTExpiresMin   int    `mapstructure:"JWT_EXPIRES_MIN"`
	GoogleClientID  string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleSecret    string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirect  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FrontendBaseURL string `mapstructure:"FRONTEND_BASE_URL"`
	AllowedOrigins  string `mapstructure:"ALLOWED_ORIGINS"`

	UploadDir     string `mapstructure:"UPLOAD_DIR"`
	MaxImageWidth int    `mapstructure:"MAX_IMAGE_WIDTH"`
	HandlePrefix  string `mapstructure:"HANDLE_PREFIX"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	TripayEnv          string `mapstructure:"TRIPAY_ENV"`
	TripayAPIKey       string `mapstructure:"TRIPAY_API_KEY"`
	TripayPrivateKey   string `mapstructure:"TRIPAY_PRIVATE_KEY"`
	TripayMerchantCode string `mapstructure:"TRIPAY_MERCHANT_CODE"`
}

var defaults = map[string]any{
	"APP_ENV":              "development",
	"APP_PORT":             "8080",
	"APP_BASE_URL":         "",
	"DB_DSN":               "",
	"JWT_SECRET":           "",
	"JWT_EXPIRES_MIN":      10080,
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_REDIRECT_URL":  "",
	"FRONTEND_BASE_URL":    "http://localhost:3000",
	"ALLOWED_ORIGINS":      "http://127.0.0.1:3000, http://localhost:3000",
	"UPLOAD_DIR":           "./uploads",
	"MAX_IMAGE_WIDTH":      1600,
	"HANDLE_PREFIX":        "FL",
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"TRIPAY_ENV":           "sandbox",
	"TRIPAY_API_KEY":       "",
	"TRIPAY_PRIVATE_KEY":   "",
	"TRIPAY_MERCHANT_CODE": "",
}

// Load reads the process environment. DB_DSN and JWT_SECRET must be set.
func Load() Config {
	cfg, err := load(viper.New())
	if err != nil {
		panic("invalid config: " + err.Error())
	}
	must("DB_DSN", cfg.DBDSN)
	must("JWT_SECRET", cfg.JWTSecret)
	return cfg
}

func load(v *viper.Viper) (Config, error) {
	for k, def := range defaults {
		v.SetDefault(k, def)
		// explicit bind so Unmarshal sees env-only keys
		_ = v.BindEnv(k)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.HandlePrefix = strings.ToUpper(strings.TrimSpace(cfg.HandlePrefix))
	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS into a list.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func must(k, v string) {
	if v == "" {
		panic("missing env: " + k)
	}
}
