package bootstrap

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dalemusser/applyform/config"
	"github.com/dalemusser/applyform/internal/application"
	"go.uber.org/zap"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// AppConfig holds the form service configuration.
type AppConfig struct {
	ScriptURL     string
	SubmitDryRun  bool
	SubmitTimeout time.Duration
	UserAgent     string

	RedirectURL   string
	RedirectDelay time.Duration
	SuccessToast  time.Duration
	ErrorToast    time.Duration

	DefaultCountryCode string

	SessionStore  string
	SessionMaxAge time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SubmitRate  float64
	SubmitBurst int
}

var appKeys = []config.AppKey{
	{Name: "script_url", Default: "", Desc: "Collection endpoint that receives submitted applications"},
	{Name: "submit_dry_run", Default: false, Desc: "Log applications instead of sending them"},
	{Name: "submit_timeout", Default: 30 * time.Second, Desc: "Timeout for one submission attempt"},
	{Name: "user_agent", Default: "applyform/1.0", Desc: "User-Agent sent to the collection endpoint"},

	{Name: "redirect_url", Default: "https://t.me/HustlifySalesSchool", Desc: "Where visitors go after a successful submission"},
	{Name: "redirect_delay", Default: 2 * time.Second, Desc: "Delay before the post-submit redirect"},
	{Name: "success_toast", Default: 3 * time.Second, Desc: "How long the success toast stays up"},
	{Name: "error_toast", Default: 5 * time.Second, Desc: "How long the error toast stays up"},

	{Name: "default_country_code", Default: "+91", Desc: "Dial code preselected in new drafts"},

	{Name: "session_store", Default: StoreMemory, Desc: `Draft session store "memory"|"redis"`},
	{Name: "session_max_age", Default: 24 * time.Hour, Desc: "Lifetime of an idle draft session"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the redis session store"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	{Name: "submit_rate", Default: 0.2, Desc: "Submissions per second allowed per client IP (0 disables)"},
	{Name: "submit_burst", Default: 5, Desc: "Submission burst allowed per client IP"},
}

// LoadConfig loads core config and the form service keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, values, err := config.Load(logger, os.Args[1:], config.EnvPrefix, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := newAppConfig(values)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appCfg, nil
}

func newAppConfig(v config.AppConfigValues) (AppConfig, error) {
	cfg := AppConfig{
		ScriptURL:     v.String("script_url"),
		SubmitDryRun:  v.Bool("submit_dry_run"),
		SubmitTimeout: v.Duration("submit_timeout", 30*time.Second),
		UserAgent:     v.String("user_agent"),

		RedirectURL:   v.String("redirect_url"),
		RedirectDelay: v.Duration("redirect_delay", 2*time.Second),
		SuccessToast:  v.Duration("success_toast", 3*time.Second),
		ErrorToast:    v.Duration("error_toast", 5*time.Second),

		DefaultCountryCode: v.String("default_country_code"),

		SessionStore:  v.String("session_store"),
		SessionMaxAge: v.Duration("session_max_age", 24*time.Hour),
		RedisAddr:     v.String("redis_addr"),
		RedisPassword: v.String("redis_password"),
		RedisDB:       v.Int("redis_db"),

		SubmitRate:  v.Float64("submit_rate"),
		SubmitBurst: v.Int("submit_burst"),
	}
	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	if _, ok := application.LookupCountry(c.DefaultCountryCode); !ok {
		return fmt.Errorf("default_country_code %q is not an offered dial code", c.DefaultCountryCode)
	}
	if c.ScriptURL != "" {
		if err := checkAbsoluteURL(c.ScriptURL); err != nil {
			return fmt.Errorf("script_url: %w", err)
		}
	}
	if err := checkAbsoluteURL(c.RedirectURL); err != nil {
		return fmt.Errorf("redirect_url: %w", err)
	}
	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required when session_store is %q", StoreRedis)
		}
	default:
		return fmt.Errorf("session_store must be %q or %q, got %q", StoreMemory, StoreRedis, c.SessionStore)
	}
	if c.SubmitRate < 0 {
		return fmt.Errorf("submit_rate must be >= 0")
	}
	return nil
}

func checkAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
