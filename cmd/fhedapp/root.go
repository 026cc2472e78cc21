package main

import (
	"github.com/spf13/cobra"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fhedapp",
		Short: "Confidential dApp client",
		Long: `Drives FHE dApps end to end: encrypts inputs through the relayer, submits
them to the contract, reads back ciphertext handles and publicly decrypts
them. Configuration comes from the environment (PORT, HOST, RPC_URL,
RELAYER_URL, KEYSTORE_PATH, ...).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newProxyCmd(),
		newWalletCmd(),
		newDappsCmd(),
		newSubmitCmd(),
		newHandleCmd(),
		newMakePublicCmd(),
		newDecryptCmd(),
		newDecryptHandleCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
