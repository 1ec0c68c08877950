package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env             string `yaml:"env"`
		LogLevel        string `yaml:"log_level"`
		Brand           string `yaml:"brand"`
		DefaultLanguage string `yaml:"default_language"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"` // acota cada orquestación
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver       string `yaml:"driver"` // memory | postgres | sqlite
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	// Proyección de perfil que el ledger actualiza al consumir códigos.
	Profile struct {
		Driver string        `yaml:"driver"` // none | memory | redis
		Prefix string        `yaml:"prefix"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"profile"`

	SMTP struct {
		Host               string        `yaml:"host"`
		Port               int           `yaml:"port"`
		Username           string        `yaml:"username"`
		Password           string        `yaml:"password"`
		TLS                string        `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"` // sólo dev
		Timeout            time.Duration `yaml:"timeout"`
	} `yaml:"smtp"`

	Mail struct {
		Transport       string       `yaml:"transport"` // smtp | log
		FromName        string       `yaml:"from_name"`
		FromAddress     string       `yaml:"from_address"`
		AdminRecipients []string     `yaml:"admin_recipients"`
		Senders         []SenderRule `yaml:"senders"`
	} `yaml:"mail"`

	Ledger struct {
		VerifyTTL time.Duration `yaml:"verify_ttl"`
		ResetTTL  time.Duration `yaml:"reset_ttl"`
		VerifyURL string        `yaml:"verify_url"` // se agrega ?code=...
		ResetURL  string        `yaml:"reset_url"`
	} `yaml:"ledger"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Driver      string        `yaml:"driver"` // memory | redis
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`

		// Emisión de códigos (verification / password-reset): más estricto.
		Issue struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"issue"`
	} `yaml:"rate"`

	Auth struct {
		// HS256 compartido con los servicios que disparan notificaciones.
		// Vacío = endpoints abiertos (solo dev).
		ServiceSecret string `yaml:"service_secret"`
		Issuer        string `yaml:"issuer"`
	} `yaml:"auth"`

	Security struct {
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
	} `yaml:"security"`
}

// SenderRule asigna un remitente por kind y/o tipo de cuenta.
type SenderRule struct {
	Kind        string `yaml:"kind"`
	AccountKind string `yaml:"account_kind"`
	Name        string `yaml:"name"`
	Address     string `yaml:"address"`
}

// Load lee el YAML (path vacío = solo defaults + env), aplica defaults,
// overrides por env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// Overrides por env
	c.applyEnvOverrides()
	c.applyDefaults()

	// Normalizar ruta de blacklist (si relativa) respecto al directorio del YAML
	if p := strings.TrimSpace(c.Security.PasswordBlacklistPath); p != "" && path != "" {
		if !filepath.IsAbs(p) {
			c.Security.PasswordBlacklistPath = filepath.Clean(filepath.Join(filepath.Dir(path), p))
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Brand == "" {
		c.App.Brand = "mailgate"
	}
	if c.App.DefaultLanguage == "" {
		c.App.DefaultLanguage = "en"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Profile.Prefix == "" {
		c.Profile.Prefix = "profile"
	}
	// SMTP defaults
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.SMTP.Timeout == 0 {
		c.SMTP.Timeout = 10 * time.Second
	}
	if c.Mail.Transport == "" {
		if c.SMTP.Host != "" {
			c.Mail.Transport = "smtp"
		} else {
			c.Mail.Transport = "log"
		}
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = c.App.Brand
	}
	// Ledger defaults
	if c.Ledger.VerifyTTL == 0 {
		c.Ledger.VerifyTTL = 24 * time.Hour
	}
	if c.Ledger.ResetTTL == 0 {
		c.Ledger.ResetTTL = time.Hour
	}
	// En dev los links apuntan al front local; en prod son obligatorios.
	if !c.IsProd() {
		if c.Ledger.VerifyURL == "" {
			c.Ledger.VerifyURL = "http://localhost:3000/verify-email"
		}
		if c.Ledger.ResetURL == "" {
			c.Ledger.ResetURL = "http://localhost:3000/reset-password"
		}
	}
	// Rate defaults
	if c.Rate.Driver == "" {
		c.Rate.Driver = "memory"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Issue.Limit == 0 {
		c.Rate.Issue.Limit = 5
	}
	if c.Rate.Issue.Window == 0 {
		c.Rate.Issue.Window = 10 * time.Minute
	}
	// Password policy default
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 10
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("BRAND_NAME"); ok {
		c.App.Brand = v
	}
	if v, ok := getEnvStr("DEFAULT_LANGUAGE"); ok {
		c.App.DefaultLanguage = v
	}
	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("STORAGE_AUTO_MIGRATE"); ok {
		c.Storage.AutoMigrate = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_OPEN_CONNS"); ok {
		c.Storage.MaxOpenConns = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_IDLE_CONNS"); ok {
		c.Storage.MaxIdleConns = v
	}
	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("PROFILE_DRIVER"); ok {
		c.Profile.Driver = strings.ToLower(v)
	}
	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}
	if v, ok := getEnvDur("SMTP_TIMEOUT"); ok {
		c.SMTP.Timeout = v
	}
	// MAIL
	if v, ok := getEnvStr("MAIL_TRANSPORT"); ok {
		c.Mail.Transport = strings.ToLower(v)
	}
	if v, ok := getEnvStr("MAIL_FROM_NAME"); ok {
		c.Mail.FromName = v
	}
	if v, ok := getEnvStr("MAIL_FROM_ADDRESS"); ok {
		c.Mail.FromAddress = v
	}
	if v, ok := getEnvCSV("MAIL_ADMIN_RECIPIENTS"); ok {
		c.Mail.AdminRecipients = v
	}
	// LEDGER
	if v, ok := getEnvDur("LEDGER_VERIFY_TTL"); ok {
		c.Ledger.VerifyTTL = v
	}
	if v, ok := getEnvDur("LEDGER_RESET_TTL"); ok {
		c.Ledger.ResetTTL = v
	}
	if v, ok := getEnvStr("LEDGER_VERIFY_URL"); ok {
		c.Ledger.VerifyURL = v
	}
	if v, ok := getEnvStr("LEDGER_RESET_URL"); ok {
		c.Ledger.ResetURL = v
	}
	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_DRIVER"); ok {
		c.Rate.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvInt("RATE_ISSUE_LIMIT"); ok {
		c.Rate.Issue.Limit = v
	}
	if v, ok := getEnvDur("RATE_ISSUE_WINDOW"); ok {
		c.Rate.Issue.Window = v
	}
	// AUTH
	if v, ok := getEnvStr("AUTH_SERVICE_SECRET"); ok {
		c.Auth.ServiceSecret = v
	}
	if v, ok := getEnvStr("AUTH_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	// SECURITY
	if v, ok := getEnvInt("SECURITY_PASSWORD_MIN_LENGTH"); ok {
		c.Security.PasswordPolicy.MinLength = v
	}
	if v, ok := getEnvStr("SECURITY_PASSWORD_BLACKLIST_PATH"); ok {
		c.Security.PasswordBlacklistPath = v
	}
}

// IsProd indica APP_ENV=prod.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// Validate verifica los valores críticos. Acumula todos los problemas.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add("storage.dsn is required for driver postgres")
		}
	default:
		add("storage.driver %q not supported (memory, postgres, sqlite)", c.Storage.Driver)
	}

	switch c.Mail.Transport {
	case "log":
		if c.IsProd() {
			add("mail.transport=log is not allowed in prod")
		}
	case "smtp":
		if strings.TrimSpace(c.SMTP.Host) == "" {
			add("smtp.host is required for mail.transport=smtp")
		}
	default:
		add("mail.transport %q not supported (smtp, log)", c.Mail.Transport)
	}
	if strings.TrimSpace(c.Mail.FromAddress) == "" {
		add("mail.from_address is required")
	}

	for _, link := range [][2]string{
		{"ledger.verify_url", c.Ledger.VerifyURL},
		{"ledger.reset_url", c.Ledger.ResetURL},
	} {
		u, err := url.Parse(strings.TrimSpace(link[1]))
		if err != nil || u.Scheme == "" || u.Host == "" {
			add("%s must be an absolute URL (got %q)", link[0], link[1])
		}
	}
	if c.Ledger.VerifyTTL < 0 || c.Ledger.ResetTTL < 0 {
		add("ledger TTLs must be positive")
	}

	needsRedis := (c.Rate.Enabled && c.Rate.Driver == "redis") || c.Profile.Driver == "redis"
	if needsRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		add("redis.addr is required when rate or profile use redis")
	}
	if c.Rate.Driver != "memory" && c.Rate.Driver != "redis" {
		add("rate.driver %q not supported (memory, redis)", c.Rate.Driver)
	}

	if c.IsProd() && len(c.Auth.ServiceSecret) < 32 {
		add("auth.service_secret must be at least 32 bytes in prod")
	}
	return errors.Join(errs...)
}
