package wallet

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/crypto"
	"github.com/AlexZinkM/fhe-dapps/internal/model"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/skip2/go-qrcode"
)

const (
	networkEVM = "evm"
)

// IsFileExistsError checks if error means the keystore already exists
func IsFileExistsError(err error) bool {
	return errors.Is(err, crypto.ErrFileExists)
}

// GenerateWallet generates a new secp256k1 key and saves it to a .cwt file.
// Returns the generated address on success.
// password must be []byte for security (caller should zero it after use)
func GenerateWallet(filePath string, chainID int64, password []byte) (address string, err error) {
	if filepath.Ext(filePath) != crypto.Extension {
		return "", fmt.Errorf("file must have .cwt extension")
	}

	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	privateKey := ethcrypto.FromECDSA(key)
	defer clear(privateKey)
	defer key.D.SetInt64(0)

	address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	qrCode, err := generateQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: privateKey,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	header := model.KeystoreFile{
		Network: networkEVM,
		ChainID: chainID,
		Address: address,
		QR:      qrCode,
	}

	if err := crypto.EncryptWallet(filePath, header, walletData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return address, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
