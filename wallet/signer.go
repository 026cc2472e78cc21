package wallet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/AlexZinkM/fhe-dapps/internal/crypto"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrNotFound means there is no keystore to connect to.
	ErrNotFound = crypto.ErrNotFound
	// ErrRejected means the keystore could not be unlocked or does not
	// belong to the address it claims.
	ErrRejected = errors.New("wallet connection rejected")
)

// PasswordFunc returns a fresh copy of the keystore password. The caller
// zeroes it after use.
type PasswordFunc func() ([]byte, error)

// Signer is a connected wallet: the address is known up front, the private
// key is decrypted only for the duration of one transaction.
type Signer struct {
	keystorePath string
	address      common.Address
	chainID      *big.Int
	password     PasswordFunc
}

// Connect reads the keystore address without decrypting it.
func Connect(keystorePath string, chainID int64, password PasswordFunc) (*Signer, error) {
	addr, err := crypto.ReadWalletAddress(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet address: %w", err)
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("keystore address %q is not an EVM address", addr)
	}
	return &Signer{
		keystorePath: keystorePath,
		address:      common.HexToAddress(addr),
		chainID:      big.NewInt(chainID),
		password:     password,
	}, nil
}

// Address returns the wallet address.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the chain transactions are signed for.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// TransactOpts decrypts the key and returns signing options plus a release
// function that wipes the key. Always call release.
func (s *Signer) TransactOpts() (*bind.TransactOpts, func(), error) {
	password, err := s.password()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer clear(password)

	_, walletData, err := crypto.DecryptWallet(s.keystorePath, password)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidPassword) {
			return nil, nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return nil, nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}
	defer clear(walletData.PrivateKey)

	key, err := ethcrypto.ToECDSA(walletData.PrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid private key: %w", err)
	}
	release := func() { key.D.SetInt64(0) }

	if ethcrypto.PubkeyToAddress(key.PublicKey) != s.address {
		release()
		return nil, nil, fmt.Errorf("%w: private key does not match address", ErrRejected)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, s.chainID)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return opts, release, nil
}

// Rekey re-encrypts the keystore under a new password.
func Rekey(keystorePath string, oldPassword, newPassword []byte) error {
	if err := crypto.ReencryptWallet(keystorePath, oldPassword, newPassword); err != nil {
		if errors.Is(err, crypto.ErrInvalidPassword) {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return err
	}
	return nil
}
