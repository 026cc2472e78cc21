package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/model"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for the local keystore
// Security is prioritized over performance
//
// N=2^18 (~256MB RAM, 0.5-2s) - same cost as the mobile-friendly .cwt format
var (
	scryptN = 1 << 18
	scryptR = 8
	scryptP = 1
)

const (
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	// Extension every keystore file must carry
	Extension = ".cwt"
)

// UseTestKDF lowers the scrypt cost so tests stay fast. Never call it
// outside tests.
func UseTestKDF() {
	scryptN = 1 << 10
}

// ErrFileExists is returned when the keystore path already holds data.
var ErrFileExists = errors.New("file is not empty")

// EncryptWallet encrypts wallet data and writes it to .cwt
// password must be []byte for security (caller should zero it after use)
func EncryptWallet(filePath string, header model.KeystoreFile, walletData *model.WalletData, password []byte) error {
	if !strings.HasSuffix(filePath, Extension) {
		return errors.New("file must have .cwt extension")
	}

	// Refuse to overwrite a non-empty file
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return ErrFileExists
	}

	sealed, err := seal(header, walletData, password)
	if err != nil {
		return err
	}
	return writeKeystore(filePath, sealed)
}

// ReencryptWallet re-seals an existing keystore under newPassword with a
// fresh salt and nonce. The file is replaced atomically.
func ReencryptWallet(filePath string, oldPassword, newPassword []byte) error {
	header, walletData, err := DecryptWallet(filePath, oldPassword)
	if err != nil {
		return err
	}
	defer clear(walletData.PrivateKey)

	sealed, err := seal(*header, walletData, newPassword)
	if err != nil {
		return err
	}

	tmp := filePath + ".tmp"
	if err := writeKeystore(tmp, sealed); err != nil {
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace keystore: %w", err)
	}
	return nil
}

func seal(header model.KeystoreFile, walletData *model.WalletData, password []byte) (*model.KeystoreFile, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	header.Salt = base64.StdEncoding.EncodeToString(salt)
	header.Nonce = base64.StdEncoding.EncodeToString(nonce)
	header.CipherText = base64.StdEncoding.EncodeToString(ciphertext)
	return &header, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func writeKeystore(filePath string, file *model.KeystoreFile) error {
	fileData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	fileDataWithBOM := append(utf8BOM, fileData...)

	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
