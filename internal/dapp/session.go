// Package dapp drives confidential dApps: it encrypts inputs through the
// relayer, submits them to the contract, reads back result handles and has
// them publicly decrypted and labelled.
package dapp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/fhe-dapps/internal/chain"
	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/logger"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/relayer"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Contract is a bound dApp contract. *chain.Contract satisfies it.
type Contract interface {
	Address() common.Address
	Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error)
	Transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...any) (*types.Receipt, error)
}

// Binder binds a catalog entry to a contract.
type Binder func(d *Dapp) Contract

// ChainBinder binds contracts over a node backend.
func ChainBinder(backend chain.Backend) Binder {
	return func(d *Dapp) Contract {
		return chain.NewContract(d.ContractAddress(), d.ParsedABI(), backend)
	}
}

// Relayer encrypts inputs and publicly decrypts handles. *relayer.Client
// satisfies it.
type Relayer interface {
	relayer.Encryptor
	Init(ctx context.Context) error
	PublicDecrypt(ctx context.Context, handles []handle.Handle) (*relayer.DecryptResult, error)
}

// Signer is a connected wallet. *wallet.Signer satisfies it.
type Signer interface {
	Address() common.Address
	TransactOpts() (*bind.TransactOpts, func(), error)
}

// Connector connects the wallet. It is retried until it succeeds.
type Connector func() (Signer, error)

// Journal records pipeline steps. *store.Store satisfies it.
type Journal interface {
	Append(e *model.Entry) error
}

// Option configures a Session.
type Option func(*Session)

// WithConnector sets how the wallet is connected.
func WithConnector(c Connector) Option {
	return func(s *Session) {
		s.connect = c
	}
}

// WithJournal records every step in j.
func WithJournal(j Journal) Option {
	return func(s *Session) {
		s.journal = j
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// Session is the shared state of one client: the catalog, the wallet, the
// relayer and the contract bindings. Wallet, relayer and contracts are set
// up on first use; concurrent first uses initialize them once. Transactions
// are sent one at a time.
type Session struct {
	catalog *Catalog
	relayer Relayer
	bind    Binder
	connect Connector
	journal Journal
	log     logger.Logger

	mu        sync.Mutex
	signer    Signer
	contracts map[string]Contract

	initMu       sync.Mutex
	relayerReady bool

	txMu sync.Mutex
}

// NewSession returns a session over catalog.
func NewSession(catalog *Catalog, rel Relayer, bind Binder, opts ...Option) *Session {
	s := &Session{
		catalog:   catalog,
		relayer:   rel,
		bind:      bind,
		log:       logger.Nop(),
		contracts: make(map[string]Contract),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the session catalog.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// Signer connects the wallet on first use.
func (s *Session) Signer() (Signer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signer != nil {
		return s.signer, nil
	}
	if s.connect == nil {
		return nil, ErrWalletNotFound
	}
	signer, err := s.connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	s.signer = signer
	s.log.Info("wallet connected", "address", signer.Address().Hex())
	return signer, nil
}

// sender returns the connected address.
func (s *Session) sender() (common.Address, error) {
	signer, err := s.Signer()
	if err != nil {
		return common.Address{}, err
	}
	return signer.Address(), nil
}

// caller is the from address for view calls; zero when no wallet is
// connected.
func (s *Session) caller() common.Address {
	addr, err := s.sender()
	if err != nil {
		return common.Address{}
	}
	return addr
}

// Pipeline returns the pipeline for slug.
func (s *Session) Pipeline(slug string) (*Pipeline, error) {
	d, err := s.catalog.Get(slug)
	if err != nil {
		return nil, err
	}
	return &Pipeline{s: s, dapp: d, contract: s.contract(d)}, nil
}

func (s *Session) contract(d *Dapp) Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[d.Slug]
	if !ok {
		c = s.bind(d)
		s.contracts[d.Slug] = c
	}
	return c
}

// ensureRelayer runs the relayer bootstrap once. A failed bootstrap is
// retried on the next call.
func (s *Session) ensureRelayer(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.relayerReady {
		return nil
	}
	if err := s.relayer.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize relayer: %w", err)
	}
	s.relayerReady = true
	s.log.Info("relayer initialized")
	return nil
}

// transact signs and sends one transaction, holding the session's
// transaction lock until it is mined.
func (s *Session) transact(ctx context.Context, c Contract, method string, args []any) (*types.Receipt, error) {
	signer, err := s.Signer()
	if err != nil {
		return nil, err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	opts, release, err := signer.TransactOpts()
	if err != nil {
		return nil, err
	}
	defer release()

	return c.Transact(ctx, opts, method, args...)
}

// PublicDecrypt asks the relayer to publicly decrypt h and returns the
// clear value.
func (s *Session) PublicDecrypt(ctx context.Context, h handle.Handle) (*uint256.Int, error) {
	vs, err := s.PublicDecryptAll(ctx, []handle.Handle{h})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

// PublicDecryptAll decrypts hs in one relayer request and returns the clear
// values in the same order.
func (s *Session) PublicDecryptAll(ctx context.Context, hs []handle.Handle) ([]*uint256.Int, error) {
	if len(hs) == 0 {
		return nil, fmt.Errorf("%w: no handles", ErrInvalidHandle)
	}
	for _, h := range hs {
		if h.IsZero() {
			return nil, fmt.Errorf("%w: zero handle", ErrInvalidHandle)
		}
	}
	if err := s.ensureRelayer(ctx); err != nil {
		return nil, err
	}
	res, err := s.relayer.PublicDecrypt(ctx, hs)
	if err != nil {
		if errors.Is(err, relayer.ErrMalformedResponse) {
			return nil, fmt.Errorf("%w: %w", ErrDecryptMalformed, err)
		}
		what := hs[0].Hex()
		if len(hs) > 1 {
			what = fmt.Sprintf("%d handles", len(hs))
		}
		return nil, fmt.Errorf("failed to decrypt %s: %w", what, err)
	}
	out := make([]*uint256.Int, len(hs))
	for i, h := range hs {
		v, err := res.Value(h)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecryptMalformed, err)
		}
		out[i] = v
	}
	return out, nil
}
