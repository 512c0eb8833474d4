package cmd

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelvie/precache/internal/build"
	"github.com/kelvie/precache/internal/config"
	"github.com/kelvie/precache/internal/installer"
	"github.com/kelvie/precache/internal/lifecycle"
)

var (
	cfgFile    string
	baseURL    string
	assets     []string
	discover   bool
	storeName  string
	storeDir   string
	hashAlgo   string
	userAgent  string
	timeout    time.Duration
	baseDelay  time.Duration
	jitter     time.Duration
	randomSeed int64
	maxAttempt int
	dryRun     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "precache",
	Version: build.FullVersion(),
	Short:   "Pre-populate an offline cache store with a web app shell.",
	Long: `precache fetches a fixed list of static assets and stores them in a
named, persistent cache store in one all-or-nothing install operation.

The populated store can then serve the app shell offline, either through
the bundled interceptor ("precache serve") or by any reader of the store
directory. Installs are idempotent: running the same manifest against the
same store name converges on the same contents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		runtime := lifecycle.NewRuntime()
		inst := installer.NewInstaller(cfg)
		inst.Register(runtime)

		if err := runtime.Fire(cmd.Context(), lifecycle.EventInstall); err != nil {
			fmt.Fprintf(os.Stderr, "install failed: %s\n", err)
			return err
		}

		execution := inst.LastExecution()
		if execution == nil {
			// No registered handler populated anything; nothing to report
			return nil
		}
		if execution.DryRun {
			fmt.Printf("Dry run: %d assets (%d bytes) would be stored in %q\n",
				execution.TotalAssets, execution.TotalBytes, execution.StoreName)
			return nil
		}
		fmt.Printf("Installed %d assets (%d bytes) into store %q at %s\n",
			execution.TotalAssets, execution.TotalBytes, execution.StoreName, execution.StoreDir)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "absolute URL the relative asset entries resolve against")
	rootCmd.PersistentFlags().StringArrayVar(&assets, "asset", []string{}, "relative asset path to pre-cache (can be repeated)")
	rootCmd.PersistentFlags().BoolVar(&discover, "discover", false, "also pre-cache same-host subresources found in the shell document")
	rootCmd.PersistentFlags().StringVar(&storeName, "store-name", "", "name of the cache store (stable across runs)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "root directory for named cache stores")
	rootCmd.PersistentFlags().StringVar(&hashAlgo, "hash-algo", "", "object filename hash algorithm (blake3 or sha256)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for a single asset fetch")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between fetches to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to delays")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "maximum attempts per asset fetch")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "fetch without committing anything to the store")
}

// InitConfigWithError reads the config file, environment variables, and
// CLI flags, in increasing order of precedence, returning any errors.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	if baseURL == "" {
		return config.Config{}, fmt.Errorf("%w: --base-url is required", config.ErrInvalidConfig)
	}
	parsedBase, err := url.Parse(baseURL)
	if err != nil {
		return config.Config{}, fmt.Errorf("%w: --base-url: %s", config.ErrInvalidConfig, err.Error())
	}

	configBuilder, err := config.WithDefault(*parsedBase).WithEnvOverrides()
	if err != nil {
		return config.Config{}, err
	}

	if len(assets) > 0 {
		configBuilder = configBuilder.WithAssets(assets)
	}
	if discover {
		configBuilder = configBuilder.WithDiscover(discover)
	}
	if storeName != "" {
		configBuilder = configBuilder.WithStoreName(storeName)
	}
	if storeDir != "" {
		configBuilder = configBuilder.WithStoreDir(storeDir)
	}
	if hashAlgo != "" {
		configBuilder = configBuilder.WithHashAlgo(hashAlgo)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}
	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}
	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}
	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}
	if dryRun {
		configBuilder = configBuilder.WithDryRun(dryRun)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	baseURL = ""
	assets = []string{}
	discover = false
	storeName = ""
	storeDir = ""
	hashAlgo = ""
	userAgent = ""
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	maxAttempt = 0
	dryRun = false
	listenAddr = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBaseURLForTest(u string) {
	baseURL = u
}

func SetAssetsForTest(list []string) {
	assets = list
}

func SetStoreNameForTest(name string) {
	storeName = name
}

func SetStoreDirForTest(dir string) {
	storeDir = dir
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}
