package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/fhe-dapps/internal/model"

	"github.com/stretchr/testify/require"
)

func init() {
	UseTestKDF()
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "wallet.cwt")
	header := model.KeystoreFile{Network: "evm", ChainID: 11155111, Address: "0xabc"}
	data := &model.WalletData{PrivateKey: []byte{1, 2, 3}, CreatedAt: "2026-10-19T00:00:00Z"}

	require.NoError(EncryptWallet(path, header, data, []byte("secret")))

	raw, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal([]byte{0xEF, 0xBB, 0xBF}, raw[:3])

	addr, err := ReadWalletAddress(path)
	require.NoError(err)
	require.Equal("0xabc", addr)

	file, got, err := DecryptWallet(path, []byte("secret"))
	require.NoError(err)
	require.Equal(int64(11155111), file.ChainID)
	require.Equal(data.PrivateKey, got.PrivateKey)

	_, _, err = DecryptWallet(path, []byte("wrong"))
	require.ErrorIs(err, ErrInvalidPassword)

	require.ErrorIs(EncryptWallet(path, header, data, []byte("secret")), ErrFileExists)
}

func TestEncryptRejectsExtension(t *testing.T) {
	err := EncryptWallet(filepath.Join(t.TempDir(), "wallet.json"), model.KeystoreFile{Address: "0x1"}, &model.WalletData{}, []byte("p"))
	require.Error(t, err)
}

func TestReadMissing(t *testing.T) {
	_, err := ReadWalletAddress(filepath.Join(t.TempDir(), "none.cwt"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReencryptWallet(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "wallet.cwt")
	data := &model.WalletData{PrivateKey: []byte{9, 9}, CreatedAt: "now"}
	require.NoError(EncryptWallet(path, model.KeystoreFile{Network: "evm", Address: "0xdef"}, data, []byte("old")))

	before, err := ReadKeystore(path)
	require.NoError(err)

	require.NoError(ReencryptWallet(path, []byte("old"), []byte("new")))

	after, err := ReadKeystore(path)
	require.NoError(err)
	require.Equal(before.Address, after.Address)
	require.NotEqual(before.Salt, after.Salt)

	_, _, err = DecryptWallet(path, []byte("old"))
	require.ErrorIs(err, ErrInvalidPassword)
	_, got, err := DecryptWallet(path, []byte("new"))
	require.NoError(err)
	require.Equal([]byte{9, 9}, got.PrivateKey)

	require.ErrorIs(ReencryptWallet(path, []byte("bad"), []byte("x")), ErrInvalidPassword)
}
