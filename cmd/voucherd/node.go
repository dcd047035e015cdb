package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"voucherchain/config"
	"voucherchain/core/events"
	"voucherchain/core/genesis"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/indexer"
	"voucherchain/native/protocol"
	"voucherchain/observability"
	"voucherchain/storage"
)

// node bundles the state a running daemon serves.
type node struct {
	db         storage.Database
	host       *host.Host
	index      *indexer.Store
	deployment *genesis.Deployment
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	if cfg.Backend == config.BackendMemory {
		return storage.NewMemDB(), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	switch cfg.Backend {
	case config.BackendLevelDB:
		return storage.NewLevelDB(cfg.DatabasePath())
	case config.BackendBolt:
		return storage.NewBoltDB(cfg.DatabasePath(), &bbolt.Options{Timeout: time.Second})
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

// bootstrap opens storage, registers the contract codes and either resumes
// the recorded deployment or applies the genesis manifest to an empty store.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*node, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	n := &node{db: db}

	n.index, err = indexer.Open(cfg.IndexerPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open event index: %w", err)
	}
	n.index.SetLogger(logger)

	n.host = host.New(db, cfg.Host())
	n.host.SetLogger(logger)
	n.host.SetEmitter(events.MultiEmitter{n.index, observability.EventMetrics{}})
	protocol.Register(n.host)

	deployment, ok, err := genesis.LoadDeployment(n.host)
	if err != nil {
		_ = n.Close()
		return nil, fmt.Errorf("load deployment: %w", err)
	}
	if !ok {
		deployment, err = applyGenesis(ctx, n.host, cfg.GenesisFile)
		if err != nil {
			_ = n.Close()
			return nil, err
		}
		logger.Info("genesis applied",
			"registry", crypto.FormatAccount(deployment.Registry),
			"ledger", deployment.Ledger,
			"tokens", len(deployment.Tokens))
	} else {
		logger.Info("resuming deployment", "ledger", deployment.Ledger)
	}
	n.deployment = deployment
	return n, nil
}

func applyGenesis(ctx context.Context, h *host.Host, path string) (*genesis.Deployment, error) {
	if path == "" {
		return nil, errors.New("empty store and no GenesisFile configured")
	}
	spec, err := genesis.LoadGenesisSpec(path)
	if err != nil {
		return nil, fmt.Errorf("load genesis: %w", err)
	}
	deployment, err := genesis.Apply(ctx, h, spec)
	if err != nil {
		return nil, fmt.Errorf("apply genesis: %w", err)
	}
	return deployment, nil
}

func (n *node) Close() error {
	var errs []error
	if n.index != nil {
		errs = append(errs, n.index.Close())
	}
	if n.db != nil {
		errs = append(errs, n.db.Close())
	}
	return errors.Join(errs...)
}
