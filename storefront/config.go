package storefront

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jonwraymond/sfquery/secret"
)

// Defaults applied by LoadConfig and New.
const (
	DefaultAPIVersion      = "2023-07"
	DefaultTimeout         = 10 * time.Second
	DefaultRate            = 4.0
	DefaultBurst           = 8
	DefaultMaxWait         = 2 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerReset    = 30 * time.Second
)

// Environment variables read by LoadConfig.
const (
	EnvShopDomain      = "SHOPIFY_SHOP_DOMAIN"
	EnvAPIVersion      = "SHOPIFY_API_VERSION"
	EnvToken           = "SHOPIFY_STOREFRONT_TOKEN"
	EnvTimeout         = "SHOPIFY_TIMEOUT"
	EnvRate            = "SHOPIFY_RATE"
	EnvBurst           = "SHOPIFY_BURST"
	EnvMaxWait         = "SHOPIFY_MAX_WAIT"
	EnvBreakerFailures = "SHOPIFY_BREAKER_FAILURES"
	EnvBreakerReset    = "SHOPIFY_BREAKER_RESET"
)

// Config describes one storefront.
type Config struct {
	// ShopDomain is the storefront host, e.g. demo.myshopify.com. A value with
	// an http:// or https:// scheme is used as the base URL verbatim.
	ShopDomain string

	// APIVersion selects the Storefront API version.
	APIVersion string

	// Token is the Storefront API access token.
	Token string

	// Timeout bounds one request.
	Timeout time.Duration

	// Rate and Burst pace requests; MaxWait bounds the wait for a token.
	Rate    float64
	Burst   int
	MaxWait time.Duration

	// BreakerFailures consecutive upstream failures open the circuit for
	// BreakerReset.
	BreakerFailures int
	BreakerReset    time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Rate <= 0 {
		c.Rate = DefaultRate
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.MaxWait <= 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = DefaultBreakerFailures
	}
	if c.BreakerReset <= 0 {
		c.BreakerReset = DefaultBreakerReset
	}
	return c
}

// Validate checks required fields.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ShopDomain) == "" {
		return ErrMissingShopDomain
	}
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Endpoint returns the GraphQL endpoint URL.
func (c Config) Endpoint() string {
	base := strings.TrimRight(c.ShopDomain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return base + "/api/" + version + "/graphql.json"
}

// LoadConfig reads the storefront configuration from the environment,
// overlaid by the given .env files (".env" when none are given; missing
// files are skipped). The token may be a secret reference such as
// secretref:file:/run/secrets/storefront_token.
func LoadConfig(ctx context.Context, dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	values := make(map[string]string)
	for _, path := range dotenvFiles {
		fileValues, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("storefront: read %s: %w", path, err)
		}
		for k, v := range fileValues {
			if _, seen := values[k]; !seen {
				values[k] = v
			}
		}
	}

	lookup := overlayEnv(values)
	resolver, err := secret.Builtins(lookup).Resolver(true, lookup, nil)
	if err != nil {
		return Config{}, err
	}
	defer resolver.Close()

	cfg := Config{
		ShopDomain: get(lookup, EnvShopDomain),
		APIVersion: get(lookup, EnvAPIVersion),
	}

	if raw := get(lookup, EnvToken); raw != "" {
		token, err := resolver.ResolveValue(ctx, raw)
		if err != nil {
			return Config{}, fmt.Errorf("storefront: resolve %s: %w", EnvToken, err)
		}
		cfg.Token = token
	}

	if cfg.Timeout, err = parseDuration(lookup, EnvTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxWait, err = parseDuration(lookup, EnvMaxWait); err != nil {
		return Config{}, err
	}
	if cfg.BreakerReset, err = parseDuration(lookup, EnvBreakerReset); err != nil {
		return Config{}, err
	}
	if cfg.Burst, err = parseInt(lookup, EnvBurst); err != nil {
		return Config{}, err
	}
	if cfg.BreakerFailures, err = parseInt(lookup, EnvBreakerFailures); err != nil {
		return Config{}, err
	}
	if v := get(lookup, EnvRate); v != "" {
		if cfg.Rate, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRate, v)
		}
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlayEnv prefers non-empty process environment values over .env values.
func overlayEnv(fileValues map[string]string) secret.LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}
}

func get(lookup secret.LookupFunc, key string) string {
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

func parseDuration(lookup secret.LookupFunc, key string) (time.Duration, error) {
	v := get(lookup, key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
	}
	return d, nil
}

func parseInt(lookup secret.LookupFunc, key string) (int, error) {
	v := get(lookup, key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
	}
	return n, nil
}
