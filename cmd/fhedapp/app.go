package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/chain"
	"github.com/AlexZinkM/fhe-dapps/internal/config"
	"github.com/AlexZinkM/fhe-dapps/internal/dapp"
	"github.com/AlexZinkM/fhe-dapps/internal/logger"
	"github.com/AlexZinkM/fhe-dapps/internal/relayer"
	"github.com/AlexZinkM/fhe-dapps/internal/store"
	"github.com/AlexZinkM/fhe-dapps/wallet"

	"github.com/ethereum/go-ethereum/ethclient"
)

// app is the wiring shared by every command.
type app struct {
	cfg *config.Config
	log logger.Logger

	node    *ethclient.Client
	journal *store.Store
}

func newApp() (*app, error) {
	if err := config.Init(); err != nil {
		return nil, err
	}
	cfg := config.Get()
	return &app{cfg: cfg, log: logger.New(cfg.LogLevel, cfg.LogFormat)}, nil
}

// close releases the node connection and the journal.
func (a *app) close() {
	if a.node != nil {
		a.node.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("failed to close journal", "error", err)
		}
	}
	config.ClearPassword()
}

func (a *app) catalog() (*dapp.Catalog, error) {
	if a.cfg.DappsFile == "" {
		return dapp.DefaultCatalog()
	}
	return dapp.LoadCatalogFile(a.cfg.DappsFile)
}

func (a *app) dial(ctx context.Context) (*ethclient.Client, error) {
	if a.node != nil {
		return a.node, nil
	}
	node, err := chain.Dial(ctx, config.GetRPCURL())
	if err != nil {
		return nil, err
	}
	a.node = node
	return node, nil
}

func (a *app) store() (*store.Store, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	s, err := store.Open(a.cfg.StorePath)
	if err != nil {
		return nil, err
	}
	a.journal = s
	return s, nil
}

// session wires catalog, node, relayer, wallet and journal together.
func (a *app) session(ctx context.Context) (*dapp.Session, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	node, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	journal, err := a.store()
	if err != nil {
		return nil, err
	}

	rel := relayer.NewClient(a.cfg.RelayerURL, a.cfg.RelayerTimeout)
	connect := func() (dapp.Signer, error) {
		signer, err := wallet.Connect(config.GetKeystorePath(), config.GetChainID(), passwordFunc)
		if err != nil {
			return nil, err
		}
		return signer, nil
	}
	return dapp.NewSession(catalog, rel, dapp.ChainBinder(node),
		dapp.WithConnector(connect),
		dapp.WithJournal(journal),
		dapp.WithLogger(a.log),
	), nil
}

// passwordFunc returns the keystore password, prompting once if needed.
func passwordFunc() ([]byte, error) {
	if p, err := config.GetPasswordBytes(); err == nil {
		return p, nil
	}
	if err := config.PromptForPassword("Wallet password: "); err != nil {
		return nil, err
	}
	return config.GetPasswordBytes()
}

// parseParams parses name=value arguments.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid param %q: use name=value", arg)
		}
		params[name] = value
	}
	return params, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
