package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/fhe-dapps/internal/model"
)

var (
	// ErrNotFound is returned when the keystore file does not exist.
	ErrNotFound = errors.New("keystore file does not exist")
	// ErrInvalidPassword is returned when the keystore cannot be opened.
	ErrInvalidPassword = errors.New("invalid password")
)

// DecryptWallet reads and decrypts .cwt file
// password must be []byte for security (caller should zero it after use)
func DecryptWallet(filePath string, password []byte) (*model.KeystoreFile, *model.WalletData, error) {
	file, err := readKeystore(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var walletData model.WalletData
	if err := json.Unmarshal(plaintext, &walletData); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}

	return file, &walletData, nil
}

// ReadKeystore reads the public part of a .cwt file (without decryption)
func ReadKeystore(filePath string) (*model.KeystoreFile, error) {
	return readKeystore(filePath)
}

// ReadWalletAddress reads only the address from .cwt file (without decryption)
func ReadWalletAddress(filePath string) (string, error) {
	file, err := readKeystore(filePath)
	if err != nil {
		return "", err
	}
	return file.Address, nil
}

func readKeystore(filePath string) (*model.KeystoreFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var file model.KeystoreFile
	if err := json.Unmarshal(fileData, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cwt file: %w", err)
	}
	if file.Address == "" {
		return nil, errors.New("keystore has no address")
	}
	return &file, nil
}
