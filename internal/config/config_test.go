package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"quoteaggregator/internal/symbols"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 1000, cfg.Server.MaxRequests)
	require.Equal(t, symbols.DefaultSecondaryOnly, cfg.Routing.SecondaryOnly)
	require.Len(t, cfg.Crypto.Coins, len(symbols.DefaultCoins))
	require.Zero(t, cfg.Secondary.MaxConcurrency)
	require.Zero(t, cfg.Primary.CacheTTLSeconds, "primary cache is opt-in so batch order stays the provider's")
}

func TestLoad_FileThenEnv(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"server": {"port": "9000"},
		"primary": {"base_url": "http://file", "api_key": "from-file", "max_requests_per_minute": 55},
		"routing": {"secondary_only": ["^GSPC"]},
		"crypto": {"coins": [{"id": "bitcoin", "name": "Bitcoin", "symbol": "BTC"}]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PRIMARY_API_KEY", "from-env")
	t.Setenv("SECONDARY_MAX_CONCURRENCY", "4")
	t.Setenv("SECONDARY_ONLY", " ^DJI, GC=F ,,")
	t.Setenv("CRYPTO_ENABLED", "no")
	t.Setenv("REQUEST_TIMEOUT_SEC", "0")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Server.Port)
	require.Equal(t, "http://file", cfg.Primary.BaseURL)
	require.Equal(t, "from-env", cfg.Primary.APIKey)
	require.Equal(t, 55, cfg.Primary.MaxRequestsPerMinute)
	require.Equal(t, 4, cfg.Secondary.MaxConcurrency)
	require.Equal(t, []string{"^DJI", "GC=F"}, cfg.Routing.SecondaryOnly)
	require.False(t, cfg.Crypto.Enabled)
	require.Len(t, cfg.Crypto.Coins, 1)
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec, "values below the floor are ignored")
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := Load(path)
	require.ErrorContains(t, err, "parse config")
}

func TestDefault_DoesNotAliasStaticTables(t *testing.T) {
	cfg := Default()
	cfg.Routing.SecondaryOnly[0] = "changed"
	cfg.Crypto.Coins[0].ID = "changed"

	require.NotEqual(t, "changed", symbols.DefaultSecondaryOnly[0])
	require.NotEqual(t, "changed", symbols.DefaultCoins[0].ID)
}
