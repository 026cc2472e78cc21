package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/AlexZinkM/fhe-dapps/internal/crypto"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BalanceReader is the part of a node client GetBalance needs.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ErrInsufficientFunds is returned by CheckFunds when the balance is below
// the minimum.
var ErrInsufficientFunds = errors.New("insufficient funds")

// GetBalance gets the wallet's native balance in unit
func GetBalance(ctx context.Context, node BalanceReader, filePath string, unit units.Unit) (*model.WalletResponse, error) {
	file, err := crypto.ReadKeystore(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet address: %w", err)
	}

	wei, err := node.BalanceAt(ctx, common.HexToAddress(file.Address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	balance, overflow := uint256.FromBig(wei)
	if overflow {
		return nil, fmt.Errorf("balance %s overflows uint256", wei)
	}

	return &model.WalletResponse{
		Address: file.Address,
		ChainID: file.ChainID,
		Balance: units.Format(balance, unit),
		Unit:    string(unit),
		QR:      file.QR,
	}, nil
}

// CheckFunds fails with ErrInsufficientFunds when the wallet holds less than
// minEther ETH. The balance is returned either way.
func CheckFunds(ctx context.Context, node BalanceReader, filePath, minEther string) (*model.WalletResponse, error) {
	resp, err := GetBalance(ctx, node, filePath, units.UnitEther)
	if err != nil {
		return nil, err
	}
	cmp, err := units.CompareEther(resp.Balance, minEther)
	if err != nil {
		return resp, err
	}
	if cmp < 0 {
		return resp, fmt.Errorf("%w: %s has %s ETH, need at least %s ETH", ErrInsufficientFunds, resp.Address, resp.Balance, minEther)
	}
	return resp, nil
}
