package dapp

import (
	"errors"

	"github.com/AlexZinkM/fhe-dapps/internal/chain"
	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/wallet"
)

var (
	// ErrNotFound is returned for an unknown dApp, action or result.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a value or parameter is rejected
	// before anything is sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingRecord is returned when the contract holds nothing for the
	// requested result.
	ErrMissingRecord = errors.New("no on-chain record")
	// ErrPrecondition is returned when an action's require check is false.
	ErrPrecondition = errors.New("precondition failed")
	// ErrDecryptMalformed is returned when the relayer answer has no usable
	// clear value.
	ErrDecryptMalformed = errors.New("invalid decrypt response")
	// ErrUnsupported is returned when a result has no make-public method.
	ErrUnsupported = errors.New("not supported")

	ErrInvalidHandle      = handle.ErrInvalid
	ErrReverted           = chain.ErrReverted
	ErrWalletNotFound     = wallet.ErrNotFound
	ErrConnectionRejected = wallet.ErrRejected
)
