package config_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kelvie/precache/internal/config"
)

func mustParseURL(t *testing.T, rawUrl string) url.URL {
	t.Helper()
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", rawUrl, err)
	}
	return *parsed
}

func TestWithDefault_ShellDefaults(t *testing.T) {
	cfg, err := config.WithDefault(mustParseURL(t, "https://example.com")).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedAssets := []string{"./", "./index.html", "./app.js", "./app.wasm"}
	assets := cfg.Assets()
	if len(assets) != len(expectedAssets) {
		t.Fatalf("expected %d default assets, got %d", len(expectedAssets), len(assets))
	}
	for i := range expectedAssets {
		if assets[i] != expectedAssets[i] {
			t.Errorf("assets[%d]: expected %q, got %q", i, expectedAssets[i], assets[i])
		}
	}

	if cfg.StoreName() != "app-pwa" {
		t.Errorf("expected default store name 'app-pwa', got %q", cfg.StoreName())
	}
	if cfg.HashAlgo() != "blake3" {
		t.Errorf("expected default hash algo blake3, got %q", cfg.HashAlgo())
	}
	if cfg.MaxAttempt() != 3 {
		t.Errorf("expected default max attempt 3, got %d", cfg.MaxAttempt())
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Timeout())
	}
	if cfg.Discover() {
		t.Error("expected discover disabled by default")
	}
	if cfg.DryRun() {
		t.Error("expected dry run disabled by default")
	}
}

func TestBuilder_Overrides(t *testing.T) {
	cfg, err := config.WithDefault(mustParseURL(t, "https://example.com")).
		WithAssets([]string{"./", "./main.css"}).
		WithStoreName("my-app").
		WithStoreDir("/var/cache/precache").
		WithHashAlgo("sha256").
		WithMaxAttempt(5).
		WithRandomSeed(42).
		WithUserAgent("custom/2.0").
		WithDryRun(true).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreName() != "my-app" {
		t.Errorf("expected store name override, got %q", cfg.StoreName())
	}
	if cfg.StoreDir() != "/var/cache/precache" {
		t.Errorf("expected store dir override, got %q", cfg.StoreDir())
	}
	if cfg.HashAlgo() != "sha256" {
		t.Errorf("expected hash algo override, got %q", cfg.HashAlgo())
	}
	if cfg.MaxAttempt() != 5 {
		t.Errorf("expected max attempt override, got %d", cfg.MaxAttempt())
	}
	if cfg.RandomSeed() != 42 {
		t.Errorf("expected random seed override, got %d", cfg.RandomSeed())
	}
	if cfg.UserAgent() != "custom/2.0" {
		t.Errorf("expected user agent override, got %q", cfg.UserAgent())
	}
	if !cfg.DryRun() {
		t.Error("expected dry run enabled")
	}
	if len(cfg.Assets()) != 2 {
		t.Errorf("expected 2 assets, got %d", len(cfg.Assets()))
	}
}

func TestBuild_RejectsRelativeBaseURL(t *testing.T) {
	_, err := config.WithDefault(url.URL{Path: "/just/a/path"}).Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuild_RejectsEmptyAssetList(t *testing.T) {
	_, err := config.WithDefault(mustParseURL(t, "https://example.com")).
		WithAssets(nil).
		Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuild_RejectsUnknownHashAlgo(t *testing.T) {
	_, err := config.WithDefault(mustParseURL(t, "https://example.com")).
		WithHashAlgo("md5").
		Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAssets_ReturnsACopy(t *testing.T) {
	cfg, err := config.WithDefault(mustParseURL(t, "https://example.com")).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assets := cfg.Assets()
	assets[0] = "./mutated"

	if cfg.Assets()[0] != "./" {
		t.Error("mutating the returned slice must not affect the config")
	}
}

func TestWithConfigFile_FullFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "precache.json")
	content := `{
		"baseUrl": "https://app.example.com",
		"assets": ["./", "./bundle.js"],
		"storeName": "bundle-cache",
		"hashAlgo": "sha256",
		"maxAttempt": 7,
		"userAgent": "filetest/1.0",
		"dryRun": true
	}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL().Host != "app.example.com" {
		t.Errorf("unexpected base url host: %q", cfg.BaseURL().Host)
	}
	if len(cfg.Assets()) != 2 {
		t.Errorf("expected 2 assets from file, got %d", len(cfg.Assets()))
	}
	if cfg.StoreName() != "bundle-cache" {
		t.Errorf("unexpected store name: %q", cfg.StoreName())
	}
	if cfg.HashAlgo() != "sha256" {
		t.Errorf("unexpected hash algo: %q", cfg.HashAlgo())
	}
	if cfg.MaxAttempt() != 7 {
		t.Errorf("unexpected max attempt: %d", cfg.MaxAttempt())
	}
	if cfg.UserAgent() != "filetest/1.0" {
		t.Errorf("unexpected user agent: %q", cfg.UserAgent())
	}
	if !cfg.DryRun() {
		t.Error("expected dry run from file")
	}
}

func TestWithConfigFile_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "precache.json")
	if err := os.WriteFile(configPath, []byte(`{"baseUrl": "https://app.example.com"}`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreName() != "app-pwa" {
		t.Errorf("expected default store name, got %q", cfg.StoreName())
	}
	if len(cfg.Assets()) != 4 {
		t.Errorf("expected the 4 default shell assets, got %d", len(cfg.Assets()))
	}
}

func TestWithConfigFile_MissingFile(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Fatalf("expected ErrFileDoesNotExist, got %v", err)
	}
}

func TestWithConfigFile_MalformedJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "precache.json")
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := config.WithConfigFile(configPath)
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Fatalf("expected ErrConfigParsingFail, got %v", err)
	}
}

func TestWithConfigFile_MissingBaseURL(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "precache.json")
	if err := os.WriteFile(configPath, []byte(`{"storeName": "x"}`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := config.WithConfigFile(configPath)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithEnvOverrides_Applied(t *testing.T) {
	t.Setenv("PRECACHE_BASE_URL", "https://env.example.com")
	t.Setenv("PRECACHE_STORE_NAME", "env-store")
	t.Setenv("PRECACHE_TIMEOUT", "30s")
	t.Setenv("PRECACHE_USER_AGENT", "envtest/1.0")

	builder, err := config.WithDefault(mustParseURL(t, "https://example.com")).WithEnvOverrides()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL().Host != "env.example.com" {
		t.Errorf("expected env base url, got %q", cfg.BaseURL().Host)
	}
	if cfg.StoreName() != "env-store" {
		t.Errorf("expected env store name, got %q", cfg.StoreName())
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("expected env timeout 30s, got %v", cfg.Timeout())
	}
	if cfg.UserAgent() != "envtest/1.0" {
		t.Errorf("expected env user agent, got %q", cfg.UserAgent())
	}
}

func TestWithEnvOverrides_UnsetLeavesBuilderUntouched(t *testing.T) {
	builder, err := config.WithDefault(mustParseURL(t, "https://example.com")).WithEnvOverrides()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL().Host != "example.com" {
		t.Errorf("expected original base url, got %q", cfg.BaseURL().Host)
	}
	if cfg.StoreName() != "app-pwa" {
		t.Errorf("expected default store name, got %q", cfg.StoreName())
	}
}
