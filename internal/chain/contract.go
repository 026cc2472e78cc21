package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrReverted is returned when a mined transaction has a failed status.
var ErrReverted = errors.New("transaction reverted")

// Backend is what a Contract needs from a node: calls, transactions and
// receipt polling. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// Contract is a contract bound to an address and a parsed ABI.
type Contract struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	bound   *bind.BoundContract
}

// NewContract binds address with parsed over backend.
func NewContract(address common.Address, parsed abi.ABI, backend Backend) *Contract {
	return &Contract{
		address: address,
		abi:     parsed,
		backend: backend,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
	}
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI returns the parsed ABI.
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// Method returns the ABI entry for name.
func (c *Contract) Method(name string) (abi.Method, error) {
	m, ok := c.abi.Methods[name]
	if !ok {
		return abi.Method{}, fmt.Errorf("contract %s has no method %q", c.address.Hex(), name)
	}
	return m, nil
}

// Call runs a view method as from and returns its outputs. args are
// converted with ConvertArgs.
func (c *Contract) Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	packed, err := ConvertArgs(m, args)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx, From: from}, &out, method, packed...); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	return out, nil
}

// Transact sends method with args, waits until it is mined and returns the
// receipt. A receipt with a failed status yields ErrReverted alongside the
// receipt.
func (c *Contract) Transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...any) (*types.Receipt, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	packed, err := ConvertArgs(m, args)
	if err != nil {
		return nil, err
	}
	sendOpts := *opts
	sendOpts.Context = ctx
	tx, err := c.bound.Transact(&sendOpts, method, packed...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s (%s): %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s (%s): %w", method, tx.Hash().Hex(), ErrReverted)
	}
	return receipt, nil
}
