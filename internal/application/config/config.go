package config

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"link_auditor/internal/domain/adaptors"
	"link_auditor/internal/pkg/errors"

	"github.com/joho/godotenv"
)

const DefaultPath = `config.env`

type AppConfig struct {
	LogLevel    string
	DebugMode   bool
	MetricsHost string
	Audit       AuditConfig
}

// AuditConfig holds the tunables of an audit run. Zero durations mean "off"
// for InterRequestDelay and BatchTimeout.
type AuditConfig struct {
	ConcurrencyLimit  int
	Timeout           time.Duration
	MaxRetries        int
	BackoffBase       time.Duration
	CacheTTL          time.Duration
	InterRequestDelay time.Duration
	MaxJitter         time.Duration
	BatchTimeout      time.Duration
	MaxBodyBytes      int64
	MaxRedirects      int
	UserAgent         string
	HomepageBounce    bool
	BodyPhrases       bool
}

func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		ConcurrencyLimit: 10,
		Timeout:          15 * time.Second,
		MaxRetries:       2,
		BackoffBase:      500 * time.Millisecond,
		CacheTTL:         24 * time.Hour,
		MaxJitter:        50 * time.Millisecond,
		MaxBodyBytes:     1 << 20,
		MaxRedirects:     10,
		HomepageBounce:   true,
		BodyPhrases:      true,
	}
}

// NewAppConfig loads path into the environment (a missing file is fine) and
// reads the app and audit settings from it.
func NewAppConfig(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultPath
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, `failed to load config file`)
	}

	cfg := AppConfig{Audit: DefaultAuditConfig()}
	cfg.LogLevel = os.Getenv("APP_LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = string(adaptors.Info)
	}
	cfg.DebugMode = os.Getenv("APP_ENABLE_DEBUG") == "true"
	cfg.MetricsHost = os.Getenv("HTTP_APP_METRICS_HOST")

	errMsg := readAudit(&cfg.Audit)

	err = validate(&cfg, errMsg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readAudit(a *AuditConfig) []string {
	p := &envParser{}

	p.int("AUDIT_CONCURRENCY_LIMIT", &a.ConcurrencyLimit)
	p.seconds("AUDIT_TIMEOUT_SECONDS", &a.Timeout)
	p.int("AUDIT_MAX_RETRIES", &a.MaxRetries)
	p.seconds("AUDIT_BACKOFF_BASE_SECONDS", &a.BackoffBase)
	p.duration("AUDIT_CACHE_TTL", &a.CacheTTL)
	p.duration("AUDIT_INTER_REQUEST_DELAY", &a.InterRequestDelay)
	p.duration("AUDIT_MAX_JITTER", &a.MaxJitter)
	p.duration("AUDIT_BATCH_TIMEOUT", &a.BatchTimeout)
	p.int64("AUDIT_MAX_BODY_BYTES", &a.MaxBodyBytes)
	p.int("AUDIT_MAX_REDIRECTS", &a.MaxRedirects)
	p.bool("AUDIT_RULE_HOMEPAGE_BOUNCE", &a.HomepageBounce)
	p.bool("AUDIT_RULE_BODY_PHRASES", &a.BodyPhrases)
	if ua := os.Getenv("AUDIT_USER_AGENT"); ua != "" {
		a.UserAgent = ua
	}

	return p.errs
}

func validate(cfg *AppConfig, errMsg []string) error {
	if !adaptors.LogLevel(cfg.LogLevel).Valid() {
		errMsg = append(errMsg, fmt.Sprintf(`log level %q is not supported`, cfg.LogLevel))
	}

	a := cfg.Audit
	if a.ConcurrencyLimit < 1 {
		errMsg = append(errMsg, `AUDIT_CONCURRENCY_LIMIT must be at least 1`)
	}
	if a.Timeout <= 0 {
		errMsg = append(errMsg, `AUDIT_TIMEOUT_SECONDS must be positive`)
	}
	if a.MaxRetries < 0 {
		errMsg = append(errMsg, `AUDIT_MAX_RETRIES must not be negative`)
	}
	if a.BackoffBase <= 0 {
		errMsg = append(errMsg, `AUDIT_BACKOFF_BASE_SECONDS must be positive`)
	}
	if a.CacheTTL <= 0 {
		errMsg = append(errMsg, `AUDIT_CACHE_TTL must be positive`)
	}
	if a.InterRequestDelay < 0 || a.MaxJitter < 0 || a.BatchTimeout < 0 {
		errMsg = append(errMsg, `AUDIT delays and timeouts must not be negative`)
	}
	if a.MaxBodyBytes <= 0 {
		errMsg = append(errMsg, `AUDIT_MAX_BODY_BYTES must be positive`)
	}
	if a.MaxRedirects < 1 {
		errMsg = append(errMsg, `AUDIT_MAX_REDIRECTS must be at least 1`)
	}

	if len(errMsg) != 0 {
		return fmt.Errorf(`validation failed: %s`, strings.Join(errMsg, "\n"))
	}
	return nil
}

// envParser reads optional variables, leaving the default in place when a
// variable is unset and collecting a message for every malformed one.
type envParser struct {
	errs []string
}

func (p *envParser) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *envParser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Sprintf(`%s: invalid value %q: %v`, key, value, err))
}

func (p *envParser) int(key string, dst *int) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) int64(key string, dst *int64) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) bool(key string, dst *bool) {
	if v, ok := p.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (p *envParser) duration(key string, dst *time.Duration) {
	if v, ok := p.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = d
	}
}

// seconds accepts fractional seconds, e.g. "0.5".
func (p *envParser) seconds(key string, dst *time.Duration) {
	if v, ok := p.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = time.Duration(f * float64(time.Second))
	}
}
