package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	//===============
	// Install scope
	//===============
	// Root URL the relative asset entries are resolved against.
	baseURL url.URL
	// Ordered list of relative asset identifiers to pre-cache.
	assets []string
	// Whether to additionally discover same-host subresources from the
	// fetched shell document and append them to the asset list.
	discover bool

	//===============
	// Store
	//===============
	// Name of the cache store. Stable across runs; reopening the same
	// name reopens the same store.
	storeName string
	// Root directory under which named stores live.
	storeDir string
	// Hash algorithm for object filenames ("blake3" or "sha256").
	hashAlgo string

	//===============
	// Politeness
	//===============
	// Minimum fixed waiting time between two fetches to the same host.
	baseDelay time.Duration
	// Randomized variation added on top of delays.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Maximum attempts per asset fetch
	maxAttempt int
	// Initial delay for backoff
	backoffInitialDuration time.Duration
	// Multiplier during exponential backoff
	backoffMultiplier float64
	// Capped maximum delay for backoff
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request
	timeout time.Duration
	// User agent used in request headers
	userAgent string

	//===============
	// Serve
	//===============
	// Address the interceptor listens on
	listenAddr string

	//===============
	// Output
	//===============
	// Whether the program simulates the install without committing
	// anything to the store
	dryRun bool
}

type configDTO struct {
	BaseURL                string        `json:"baseUrl"`
	Assets                 []string      `json:"assets,omitempty"`
	Discover               bool          `json:"discover,omitempty"`
	StoreName              string        `json:"storeName,omitempty"`
	StoreDir               string        `json:"storeDir,omitempty"`
	HashAlgo               string        `json:"hashAlgo,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	ListenAddr             string        `json:"listenAddr,omitempty"`
	DryRun                 bool          `json:"dryRun,omitempty"`
}

// envDTO carries environment overrides. Environment wins over file values
// but loses to explicit CLI flags.
type envDTO struct {
	BaseURL    string        `env:"PRECACHE_BASE_URL"`
	StoreName  string        `env:"PRECACHE_STORE_NAME"`
	StoreDir   string        `env:"PRECACHE_STORE_DIR"`
	HashAlgo   string        `env:"PRECACHE_HASH_ALGO"`
	Timeout    time.Duration `env:"PRECACHE_TIMEOUT"`
	UserAgent  string        `env:"PRECACHE_USER_AGENT"`
	ListenAddr string        `env:"PRECACHE_LISTEN_ADDR"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	if dto.BaseURL == "" {
		return Config{}, fmt.Errorf("%w: baseUrl is required", ErrInvalidConfig)
	}
	baseURL, err := url.Parse(dto.BaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("%w: baseUrl: %s", ErrInvalidConfig, err.Error())
	}

	cfg, err := WithDefault(*baseURL).Build()
	if err != nil {
		return Config{}, err
	}

	if len(dto.Assets) > 0 {
		cfg.assets = dto.Assets
	}
	cfg.discover = dto.Discover
	if dto.StoreName != "" {
		cfg.storeName = dto.StoreName
	}
	if dto.StoreDir != "" {
		cfg.storeDir = dto.StoreDir
	}
	if dto.HashAlgo != "" {
		cfg.hashAlgo = dto.HashAlgo
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.ListenAddr != "" {
		cfg.listenAddr = dto.ListenAddr
	}
	cfg.dryRun = dto.DryRun

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config builder with the provided base URL and
// default values for all other fields. The defaults describe the shell of
// a single-page WASM app, the common case this tool was written for.
func WithDefault(baseURL url.URL) *Config {
	defaultConfig := Config{
		baseURL: baseURL,
		assets: []string{
			"./",
			"./index.html",
			"./app.js",
			"./app.wasm",
		},
		discover:               false,
		storeName:              "app-pwa",
		storeDir:               "cache",
		hashAlgo:               "blake3",
		baseDelay:              0,
		jitter:                 50 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		timeout:                time.Second * 10,
		userAgent:              "precache/1.0",
		listenAddr:             ":8344",
		dryRun:                 false,
	}
	return &defaultConfig
}

func (c *Config) WithBaseURL(baseURL url.URL) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithAssets(assets []string) *Config {
	c.assets = assets
	return c
}

func (c *Config) WithDiscover(discover bool) *Config {
	c.discover = discover
	return c
}

func (c *Config) WithStoreName(name string) *Config {
	c.storeName = name
	return c
}

func (c *Config) WithStoreDir(dir string) *Config {
	c.storeDir = dir
	return c
}

func (c *Config) WithHashAlgo(algo string) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

// WithEnvOverrides applies PRECACHE_* environment variables on top of the
// builder's current values. Unset variables leave the builder untouched.
func (c *Config) WithEnvOverrides() (*Config, error) {
	var overrides envDTO
	if err := env.Parse(&overrides); err != nil {
		return c, fmt.Errorf("%w: %s", ErrEnvParsingFail, err.Error())
	}

	if overrides.BaseURL != "" {
		baseURL, err := url.Parse(overrides.BaseURL)
		if err != nil {
			return c, fmt.Errorf("%w: PRECACHE_BASE_URL: %s", ErrInvalidConfig, err.Error())
		}
		c.baseURL = *baseURL
	}
	if overrides.StoreName != "" {
		c.storeName = overrides.StoreName
	}
	if overrides.StoreDir != "" {
		c.storeDir = overrides.StoreDir
	}
	if overrides.HashAlgo != "" {
		c.hashAlgo = overrides.HashAlgo
	}
	if overrides.Timeout != 0 {
		c.timeout = overrides.Timeout
	}
	if overrides.UserAgent != "" {
		c.userAgent = overrides.UserAgent
	}
	if overrides.ListenAddr != "" {
		c.listenAddr = overrides.ListenAddr
	}
	return c, nil
}

func (c *Config) Build() (Config, error) {
	if c.baseURL.Scheme == "" || c.baseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: base URL must be absolute", ErrInvalidConfig)
	}
	if len(c.assets) == 0 {
		return Config{}, fmt.Errorf("%w: asset list cannot be empty", ErrInvalidConfig)
	}
	if c.hashAlgo != "blake3" && c.hashAlgo != "sha256" {
		return Config{}, fmt.Errorf("%w: unknown hash algorithm %q", ErrInvalidConfig, c.hashAlgo)
	}

	return *c, nil
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) Assets() []string {
	assets := make([]string, len(c.assets))
	copy(assets, c.assets)
	return assets
}

func (c Config) Discover() bool {
	return c.discover
}

func (c Config) StoreName() string {
	return c.storeName
}

func (c Config) StoreDir() string {
	return c.storeDir
}

func (c Config) HashAlgo() string {
	return c.hashAlgo
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) DryRun() bool {
	return c.dryRun
}
