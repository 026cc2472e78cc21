package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/AlexZinkM/fhe-dapps/internal/config"
	"github.com/AlexZinkM/fhe-dapps/internal/crypto"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/units"
	"github.com/AlexZinkM/fhe-dapps/wallet"

	"github.com/spf13/cobra"
)

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the encrypted keystore",
	}
	cmd.AddCommand(
		newWalletGenerateCmd(),
		newWalletAddressCmd(),
		newWalletBalanceCmd(),
		newWalletRekeyCmd(),
	)
	return cmd
}

func newWalletGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key into KEYSTORE_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			password, err := confirmPassword("New wallet password: ")
			if err != nil {
				return err
			}
			defer clear(password)

			address, err := wallet.GenerateWallet(a.cfg.KeystorePath, a.cfg.ChainID, password)
			if err != nil {
				if wallet.IsFileExistsError(err) {
					return fmt.Errorf("%s already exists, remove it or set KEYSTORE_PATH", a.cfg.KeystorePath)
				}
				return err
			}
			return printJSON(model.GenerateResponse{
				Success:  true,
				Message:  "Wallet generated successfully",
				Address:  address,
				ChainID:  a.cfg.ChainID,
				Keystore: a.cfg.KeystorePath,
			})
		},
	}
}

func newWalletAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the keystore address without decrypting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			address, err := crypto.ReadWalletAddress(a.cfg.KeystorePath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), address)
			return nil
		},
	}
}

func newWalletBalanceCmd() *cobra.Command {
	var (
		unit       string
		minBalance string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the native balance of the wallet",
		Example: `  # Balance in gwei
  fhedapp wallet balance --unit gwei

  # Fail when the wallet cannot pay for a few transactions
  fhedapp wallet balance --min 0.01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := units.ParseUnit(unit)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			node, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			if minBalance != "" {
				if _, err := wallet.CheckFunds(cmd.Context(), node, a.cfg.KeystorePath, minBalance); err != nil {
					return err
				}
			}
			balance, err := wallet.GetBalance(cmd.Context(), node, a.cfg.KeystorePath, u)
			if err != nil {
				return err
			}
			balance.QR = ""
			return printJSON(balance)
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "ether", "ether, gwei or wei")
	cmd.Flags().StringVar(&minBalance, "min", "", "Fail if the balance is below this many ETH")

	return cmd
}

func newWalletRekeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rekey",
		Short: "Re-encrypt the keystore with a new password",
		Example: `  # Keystore from KEYSTORE_PATH
  fhedapp wallet rekey`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			oldPassword, err := readPassword("Current password: ")
			if err != nil {
				return err
			}
			defer clear(oldPassword)
			newPassword, err := confirmPassword("New password: ")
			if err != nil {
				return err
			}
			defer clear(newPassword)

			if err := wallet.Rekey(a.cfg.KeystorePath, oldPassword, newPassword); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Re-encrypted %s\n", a.cfg.KeystorePath)
			return nil
		},
	}
}

// readPassword prompts once and returns a copy the caller must clear.
func readPassword(prompt string) ([]byte, error) {
	defer config.ClearPassword()
	if err := config.PromptForPassword(prompt); err != nil {
		return nil, err
	}
	return config.GetPasswordBytes()
}

func confirmPassword(prompt string) ([]byte, error) {
	first, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}
	second, err := readPassword("Repeat password: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)
	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
