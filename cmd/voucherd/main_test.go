package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherchain/config"
	"voucherchain/crypto"
)

func writeGenesis(t *testing.T, dir string) string {
	t.Helper()
	admin := crypto.AccountFromSeed("voucherd-admin")
	grocer := crypto.AccountFromSeed("voucherd-grocer")
	manifest := fmt.Sprintf(`superAdmin: %s
stableCoin: {name: USD Coin, symbol: USDC, decimals: 2}
merchants:
  - {address: %s, storeName: Grocer, verified: true}
tokens:
  - {name: Food Coin, symbol: FOOD, decimals: 2, merchants: [%s]}
`, crypto.FormatAccount(admin), crypto.FormatAccount(grocer), crypto.FormatAccount(grocer))
	path := filepath.Join(dir, "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Backend = backend
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.GenesisFile = writeGenesis(t, dir)
	cfg.GatewayAddress = "127.0.0.1:0"
	cfg.MetricsAddress = ""
	require.NoError(t, cfg.Validate())
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBootstrapAppliesGenesisOnce(t *testing.T) {
	for _, backend := range []string{config.BackendLevelDB, config.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			ctx := context.Background()

			first, err := bootstrap(ctx, cfg, quietLogger())
			require.NoError(t, err)
			require.Len(t, first.deployment.Tokens, 1)
			deployment := *first.deployment
			require.NoError(t, first.Close())

			second, err := bootstrap(ctx, cfg, quietLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = second.Close() })
			require.Equal(t, deployment.Registry, second.deployment.Registry)
			require.Equal(t, deployment.Tokens, second.deployment.Tokens)
		})
	}
}

func TestBootstrapRequiresGenesisOnEmptyStore(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.GenesisFile = ""
	_, err := bootstrap(context.Background(), cfg, quietLogger())
	require.ErrorContains(t, err, "GenesisFile")
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, run(ctx, cfg, quietLogger()))
}
