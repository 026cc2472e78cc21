package main

import (
	"github.com/AlexZinkM/fhe-dapps/internal/api"
	"github.com/AlexZinkM/fhe-dapps/internal/config"
	"github.com/AlexZinkM/fhe-dapps/internal/proxy"
	"github.com/AlexZinkM/fhe-dapps/wallet"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var noPrompt bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server with the relayer/gateway proxy",
		Long: `Start the HTTP API over the dApp pipeline and the wallet, with the
relayer/gateway reverse proxy, Swagger UI at /swagger/ and metrics at /metrics.
The wallet password is prompted once at startup.`,
		Example: `  # Listen on 0.0.0.0:3000 against Sepolia
  fhedapp serve

  # Custom port and catalog
  PORT=8080 DAPPS_FILE=./dapps.toml fhedapp serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if !noPrompt {
				if err := config.PromptForPassword("Wallet password: "); err != nil {
					return err
				}
			}

			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := wallet.CheckFunds(cmd.Context(), a.node, a.cfg.KeystorePath, a.cfg.MinBalance); err != nil {
				a.log.Warn("wallet balance check failed", "error", err)
			}
			router, err := api.SetupRouter(api.Deps{
				Session:        session,
				History:        a.journal,
				Node:           a.node,
				KeystorePath:   a.cfg.KeystorePath,
				ChainID:        a.cfg.ChainID,
				Password:       config.GetPasswordBytes,
				Proxy:          proxyConfig(a.cfg),
				RequestTimeout: a.cfg.ReceiptTimeout + 2*a.cfg.RelayerTimeout,
				Log:            a.log,
			})
			if err != nil {
				return err
			}
			return api.Run(cmd.Context(), config.ListenAddr(), router, a.log)
		},
	}

	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not prompt for the wallet password (read-only use)")

	return cmd
}

func newProxyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxy",
		Short: "Run only the relayer/gateway reverse proxy",
		Long: `Forward /relayer/* and /gateway/* to RELAYER_UPSTREAM and GATEWAY_UPSTREAM
with cross-origin isolation headers, and serve STATIC_DIR when set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			router, err := proxy.NewRouter(proxyConfig(a.cfg), a.log)
			if err != nil {
				return err
			}
			return api.Run(cmd.Context(), config.ListenAddr(), router, a.log)
		},
	}
}

func proxyConfig(cfg *config.Config) proxy.Config {
	return proxy.Config{
		RelayerUpstream: cfg.RelayerUpstream,
		GatewayUpstream: cfg.GatewayUpstream,
		StaticDir:       cfg.StaticDir,
		CORSOrigins:     cfg.CORSOrigins,
	}
}
