package dapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/chain"
	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/relayer"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	player   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	resultH  = handle.Handle{0xde, 0xad, 31: 0x01}
	testHash = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
)

type fakeSigner struct{}

func (fakeSigner) Address() common.Address { return player }

func (fakeSigner) TransactOpts() (*bind.TransactOpts, func(), error) {
	return &bind.TransactOpts{From: player}, func() {}, nil
}

type fakeRelayer struct {
	mu       sync.Mutex
	inits    int
	encrypts int
	decrypts int
	last     *relayer.EncryptRequest
	values   map[handle.Handle]string
}

func (f *fakeRelayer) Init(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return nil
}

func (f *fakeRelayer) EncryptInput(_ context.Context, req *relayer.EncryptRequest) (*relayer.Encrypted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encrypts++
	f.last = req
	out := &relayer.Encrypted{InputProof: hexutil.Bytes{0x01, 0x02}}
	for i := range req.Values {
		out.Handles = append(out.Handles, handle.Handle{0xaa, 31: byte(i + 1)})
	}
	return out, nil
}

func (f *fakeRelayer) PublicDecrypt(_ context.Context, hs []handle.Handle) (*relayer.DecryptResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrypts++
	out := map[string]string{}
	for _, h := range hs {
		if v, ok := f.values[h]; ok {
			out[h.Hex()] = v
		}
	}
	raw, err := json.Marshal(map[string]any{"clearValues": out})
	if err != nil {
		return nil, err
	}
	return relayer.ParseDecryptResponse(raw)
}

// fakeContract dispatches calls and transactions to per-method funcs.
type fakeContract struct {
	addr  common.Address
	views map[string]func(args []any) []any
	txs   map[string]func(args []any) (*types.Receipt, error)

	mu          sync.Mutex
	sent        []string
	viewCalls   int
	inFlight    int
	maxInFlight int
}

func (f *fakeContract) Address() common.Address { return f.addr }

func (f *fakeContract) Call(_ context.Context, _ common.Address, method string, args ...any) ([]any, error) {
	f.mu.Lock()
	f.viewCalls++
	fn := f.views[method]
	f.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("unexpected call %s", method)
	}
	return fn(args), nil
}

func (f *fakeContract) Transact(_ context.Context, _ *bind.TransactOpts, method string, args ...any) (*types.Receipt, error) {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.sent = append(f.sent, method)
	fn := f.txs[method]
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("unexpected transaction %s", method)
	}
	return fn(args)
}

func (f *fakeContract) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func okReceipt() *types.Receipt {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: testHash, BlockNumber: big.NewInt(7)}
}

// doorContract mimics the hidden door code contract: a guess stores a
// result handle for the sender.
func doorContract(hasCode bool) *fakeContract {
	var mu sync.Mutex
	results := map[common.Address]handle.Handle{}
	return &fakeContract{
		addr: common.HexToAddress("0x488bA6625C8CE7Eb830105F97e98ECA4f64ee31B"),
		views: map[string]func([]any) []any{
			"hasCode": func([]any) []any { return []any{hasCode} },
			"hasPlayerResult": func(args []any) []any {
				mu.Lock()
				defer mu.Unlock()
				_, ok := results[args[0].(common.Address)]
				return []any{ok}
			},
			"resultHandle": func(args []any) []any {
				mu.Lock()
				defer mu.Unlock()
				return []any{[32]byte(results[args[0].(common.Address)])}
			},
		},
		txs: map[string]func([]any) (*types.Receipt, error){
			"submitGuess": func(args []any) (*types.Receipt, error) {
				if _, ok := args[0].(handle.Handle); !ok {
					return nil, fmt.Errorf("want handle, got %T", args[0])
				}
				if _, ok := args[1].(hexutil.Bytes); !ok {
					return nil, fmt.Errorf("want proof, got %T", args[1])
				}
				mu.Lock()
				results[player] = resultH
				mu.Unlock()
				return okReceipt(), nil
			},
			"makeMyResultPublic": func([]any) (*types.Receipt, error) {
				return okReceipt(), nil
			},
		},
	}
}

type memJournal struct {
	mu      sync.Mutex
	entries []model.Entry
}

func (j *memJournal) Append(e *model.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, *e)
	return nil
}

func (j *memJournal) steps() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	for i, e := range j.entries {
		out[i] = string(e.Step) + ":" + string(e.Status)
	}
	return out
}

func newTestSession(t *testing.T, c *fakeContract, rel *fakeRelayer, opts ...Option) *Session {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	opts = append([]Option{WithConnector(func() (Signer, error) { return fakeSigner{}, nil })}, opts...)
	return NewSession(catalog, rel, func(*Dapp) Contract { return c }, opts...)
}

func TestDefaultCatalog(t *testing.T) {
	require := require.New(t)

	c, err := DefaultCatalog()
	require.NoError(err)
	slugs := c.Slugs()
	require.Len(slugs, 31)
	require.True(sort.StringsAreSorted(slugs))
	for _, slug := range []string{"hidden-door-code", "blind-freelance-match", "hidden-grade-release", "chess-rating-gate", "private-donor-match"} {
		require.Contains(slugs, slug)
	}

	grade, err := c.Get("hidden-grade-release")
	require.NoError(err)
	passed, err := grade.Result("passed")
	require.NoError(err)
	require.Equal(1, passed.Output)
	require.Equal("getHandles", passed.Getter.Method)

	d, err := c.Get("hidden-door-code")
	require.NoError(err)
	a, err := d.Action("submitGuess")
	require.NoError(err)
	require.Len(a.Inputs, 1)
	require.Equal(relayer.TypeUint16, a.Inputs[0].typ)
	require.EqualValues(1, a.Inputs[0].Min.Uint64())
	require.EqualValues(9999, a.Inputs[0].Max.Uint64())

	r, err := d.Result("result")
	require.NoError(err)
	l, ok := r.Label(2)
	require.True(ok)
	require.Equal("TOO HIGH", l.Title)

	_, err = c.Get("nope")
	require.ErrorIs(err, ErrNotFound)
	_, err = d.Action("nope")
	require.ErrorIs(err, ErrNotFound)
}

func TestLoadCatalogRejects(t *testing.T) {
	const head = `
[[dapp]]
slug = "x"
name = "X"
address = "0x488bA6625C8CE7Eb830105F97e98ECA4f64ee31B"
abi = [
  "function submit(bytes32,bytes) external",
  "function get(address) external view returns (bytes32)",
  "function count(address) external view returns (uint256)",
  "function pair(address) external view returns (bytes32, bytes32)",
  "function open(bytes32) external",
  "function byID(bytes32) external view returns (bytes32)",
]
`
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", `colour = "red"`, "unknown catalog keys"},
		{"bad slug", strings.Replace(head, `slug = "x"`, `slug = "X Y"`, 1), "invalid dapp slug"},
		{"unknown method", `
  [[dapp.action]]
  name = "a"
  method = "nope"
`, "unknown method"},
		{"unknown input token", `
  [[dapp.action]]
  name = "a"
  method = "submit"
  args = ["$handle.other", "$proof"]
  input = [{ name = "v", type = "euint8" }]
`, "unknown input"},
		{"proof without inputs", `
  [[dapp.action]]
  name = "a"
  method = "submit"
  args = ["0x0000000000000000000000000000000000000000000000000000000000000001", "$proof"]
`, "without encrypted inputs"},
		{"bound too wide", `
  [[dapp.action]]
  name = "a"
  method = "submit"
  args = ["$handle.v", "$proof"]
  input = [{ name = "v", type = "euint8", max = 256 }]
`, "does not fit"},
		{"getter not bytes32", `
  [[dapp.result]]
  name = "r"
  getter = { method = "count", args = ["$sender"] }
`, "must return bytes32"},
		{"duplicate label", `
  [[dapp.result]]
  name = "r"
  getter = { method = "get", args = ["$sender"] }
  label = [{ code = 1, title = "a" }, { code = 1, title = "b" }]
`, "duplicate label"},
		{"output out of range", `
  [[dapp.result]]
  name = "r"
  getter = { method = "pair", args = ["$sender"] }
  output = 2
`, "has no output #2"},
		{"random without bounds", `
  [[dapp.action]]
  name = "a"
  method = "submit"
  args = ["$handle.v", "$proof"]
  input = [{ name = "v", type = "euint8", random = true }]
`, "random needs min and max"},
		{"default out of range", `
  [[dapp.action]]
  name = "a"
  method = "submit"
  args = ["$handle.v", "$proof"]
  input = [{ name = "v", type = "euint8", max = 10, default = "11" }]
`, "default:"},
		{"default and random", `
  [[dapp.action]]
  name = "a"
  method = "submit"
  args = ["$handle.v", "$proof"]
  input = [{ name = "v", type = "euint8", min = 1, max = 6, default = "1", random = true }]
`, "exclusive"},
		{"keccak mismatch", `
  [[dapp.action]]
  name = "a"
  method = "open"
  args = ["$param.id"]
  result = "r"
  param = [{ name = "id", keccak = true }]

  [[dapp.result]]
  name = "r"
  param = [{ name = "id" }]
  getter = { method = "byID", args = ["$param.id"] }
`, "hashed differently"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := head + tt.body
			if strings.HasPrefix(tt.body, "\n[[dapp]]") {
				src = tt.body
			}
			_, err := LoadCatalog(strings.NewReader(src))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEncryptSubmitDecrypt(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	c := doorContract(true)
	rel := &fakeRelayer{values: map[handle.Handle]string{resultH: "2"}}
	journal := &memJournal{}
	s := newTestSession(t, c, rel, WithJournal(journal))

	p, err := s.Pipeline("hidden-door-code")
	require.NoError(err)

	res, err := p.Submit(ctx, "submitGuess", map[string]string{"guess": "7"})
	require.NoError(err)
	require.Equal(testHash.Hex(), res.TxHash)
	require.EqualValues(7, res.Block)
	require.NotNil(res.Handle)
	require.Equal(resultH, *res.Handle)

	require.Equal(c.addr, rel.last.ContractAddress)
	require.Equal(player, rel.last.UserAddress)
	require.Equal([]relayer.Value{{Type: relayer.TypeUint16, Value: "7"}}, rel.last.Values)

	out, err := p.Decrypt(ctx, "result", nil, DecryptOptions{MakePublic: true})
	require.NoError(err)
	require.Equal(resultH, out.Handle)
	require.Equal("2", out.Value)
	require.NotNil(out.Label)
	require.Equal("TOO HIGH", out.Label.Title)

	require.Equal([]string{"submitGuess", "makeMyResultPublic"}, c.sent)
	require.Equal(1, rel.inits)
	require.Equal([]string{
		"submit:ok",
		"handle:ok",
		"handle:ok",
		"make_public:ok",
		"decrypt:ok",
	}, journal.steps())
}

func TestSubmitRejectsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{"below range", map[string]string{"guess": "0"}},
		{"above range", map[string]string{"guess": "10000"}},
		{"too wide", map[string]string{"guess": "70000"}},
		{"not a number", map[string]string{"guess": "seven"}},
		{"missing", map[string]string{}},
		{"unknown param", map[string]string{"guess": "7", "extra": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := doorContract(true)
			rel := &fakeRelayer{}
			p, err := newTestSession(t, c, rel).Pipeline("hidden-door-code")
			require.NoError(t, err)

			_, err = p.Submit(context.Background(), "submitGuess", tt.params)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.Zero(t, rel.inits)
			require.Zero(t, rel.encrypts)
			require.Zero(t, c.viewCalls)
			require.Zero(t, c.sentCount())
		})
	}
}

func TestCoinFlipBiasRange(t *testing.T) {
	c := &fakeContract{addr: common.HexToAddress("0x409f8a50e5d64CadE057Eb48a917E40C8320B404")}
	rel := &fakeRelayer{}
	p, err := newTestSession(t, c, rel).Pipeline("coin-flipper")
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), "setHouseBias", map[string]string{"bias": "2"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, rel.encrypts)
}

func TestHandleIsStable(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	c := doorContract(true)
	p, err := newTestSession(t, c, &fakeRelayer{}).Pipeline("hidden-door-code")
	require.NoError(err)

	_, err = p.Handle(ctx, "result", nil)
	require.ErrorIs(err, ErrMissingRecord)

	_, err = p.Submit(ctx, "submitGuess", map[string]string{"guess": "42"})
	require.NoError(err)

	first, err := p.Handle(ctx, "result", nil)
	require.NoError(err)
	second, err := p.Handle(ctx, "result", nil)
	require.NoError(err)
	require.Equal(first, second)
	require.Equal(1, c.sentCount())
}

func TestSubmitPrecondition(t *testing.T) {
	c := doorContract(false)
	rel := &fakeRelayer{}
	journal := &memJournal{}
	p, err := newTestSession(t, c, rel, WithJournal(journal)).Pipeline("hidden-door-code")
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), "submitGuess", map[string]string{"guess": "7"})
	require.ErrorIs(t, err, ErrPrecondition)
	require.ErrorContains(t, err, "door code not set yet")
	require.Zero(t, rel.encrypts)
	require.Equal(t, []string{"submit:failed"}, journal.steps())
}

func TestSubmitReverted(t *testing.T) {
	require := require.New(t)

	c := doorContract(true)
	c.txs["submitGuess"] = func([]any) (*types.Receipt, error) {
		r := okReceipt()
		r.Status = types.ReceiptStatusFailed
		return r, fmt.Errorf("submitGuess: %w", chain.ErrReverted)
	}
	journal := &memJournal{}
	p, err := newTestSession(t, c, &fakeRelayer{}, WithJournal(journal)).Pipeline("hidden-door-code")
	require.NoError(err)

	res, err := p.Submit(context.Background(), "submitGuess", map[string]string{"guess": "7"})
	require.ErrorIs(err, ErrReverted)
	require.NotNil(res)
	require.Equal(testHash.Hex(), res.TxHash)
	require.Len(journal.entries, 1)
	require.Equal(model.StatusFailed, journal.entries[0].Status)
	require.Equal(testHash.Hex(), journal.entries[0].TxHash)
}

func TestDecryptMalformed(t *testing.T) {
	c := doorContract(true)
	rel := &fakeRelayer{values: map[handle.Handle]string{}}
	p, err := newTestSession(t, c, rel).Pipeline("hidden-door-code")
	require.NoError(t, err)

	h := resultH
	_, err = p.Decrypt(context.Background(), "result", nil, DecryptOptions{Handle: &h})
	require.ErrorIs(t, err, ErrDecryptMalformed)
	require.Zero(t, c.viewCalls)
}

func TestNoWallet(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	c := doorContract(true)
	s := NewSession(catalog, &fakeRelayer{}, func(*Dapp) Contract { return c })

	p, err := s.Pipeline("hidden-door-code")
	require.NoError(t, err)
	_, err = p.Submit(context.Background(), "submitGuess", map[string]string{"guess": "7"})
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestConnectRetriedAfterFailure(t *testing.T) {
	require := require.New(t)

	catalog, err := DefaultCatalog()
	require.NoError(err)
	attempts := 0
	connect := func() (Signer, error) {
		attempts++
		if attempts == 1 {
			return nil, ErrConnectionRejected
		}
		return fakeSigner{}, nil
	}
	s := NewSession(catalog, &fakeRelayer{}, nil, WithConnector(connect))

	_, err = s.Signer()
	require.ErrorIs(err, ErrConnectionRejected)
	signer, err := s.Signer()
	require.NoError(err)
	require.Equal(player, signer.Address())
	_, err = s.Signer()
	require.NoError(err)
	require.Equal(2, attempts)
}

func TestConcurrentSubmits(t *testing.T) {
	require := require.New(t)

	c := doorContract(true)
	rel := &fakeRelayer{}
	s := newTestSession(t, c, rel)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := s.Pipeline("hidden-door-code")
			if err != nil {
				errs <- err
				return
			}
			_, err = p.Submit(context.Background(), "submitGuess", map[string]string{"guess": fmt.Sprint(i + 1)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}
	require.Equal(1, rel.inits)
	require.Equal(8, rel.encrypts)
	require.Equal(1, c.maxInFlight)
}

func TestSubmitExtractsID(t *testing.T) {
	require := require.New(t)

	catalog, err := DefaultCatalog()
	require.NoError(err)
	d, err := catalog.Get("blind-freelance-match")
	require.NoError(err)
	ev := d.ParsedABI().Events["FreelancerSubmitted"]

	addr := d.ContractAddress()
	c := &fakeContract{
		addr: addr,
		txs: map[string]func([]any) (*types.Receipt, error){
			"submitFreelancer": func(args []any) (*types.Receipt, error) {
				if len(args) != 4 {
					return nil, errors.New("want 4 args")
				}
				r := okReceipt()
				r.Logs = []*types.Log{
					{Address: common.HexToAddress("0x01"), Topics: []common.Hash{ev.ID, common.BytesToHash(player.Bytes()), common.BigToHash(big.NewInt(99))}},
					{Address: addr, Topics: []common.Hash{ev.ID, common.BytesToHash(player.Bytes()), common.BigToHash(big.NewInt(12))}},
				}
				return r, nil
			},
		},
	}
	rel := &fakeRelayer{}
	s := NewSession(catalog, rel, func(*Dapp) Contract { return c }, WithConnector(func() (Signer, error) { return fakeSigner{}, nil }))
	p, err := s.Pipeline("blind-freelance-match")
	require.NoError(err)

	res, err := p.Submit(context.Background(), "submitFreelancer", map[string]string{
		"skills": "0x0b",
		"level":  "3",
		"rate":   "120",
	})
	require.NoError(err)
	require.Equal("12", res.ID)
	require.Len(rel.last.Values, 3)
	require.Equal(relayer.TypeUint256, rel.last.Values[0].Type)
}

func TestComputeMatchRejectsBadParam(t *testing.T) {
	c := &fakeContract{addr: common.HexToAddress("0xec062E4Ac7878E6556DB0b51306d7Cbe8eF70D44")}
	p, err := newTestSession(t, c, &fakeRelayer{}).Pipeline("blind-freelance-match")
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), "computeMatch", map[string]string{"freelancerId": "abc", "jobId": "2"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, c.viewCalls)
}

func TestMakePublicUnknownResult(t *testing.T) {
	c := doorContract(true)
	p, err := newTestSession(t, c, &fakeRelayer{}).Pipeline("health-metric-zone")
	require.NoError(t, err)

	_, err = p.MakePublic(context.Background(), "nope", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIsClientError(t *testing.T) {
	require := require.New(t)

	require.True(IsClientError(fmt.Errorf("guess: %w", ErrInvalidInput)))
	require.True(IsClientError(ErrNotFound))
	require.False(IsClientError(ErrReverted))
	require.False(IsClientError(errors.New("dial tcp: refused")))
}

func TestRelayerBootstrapRetried(t *testing.T) {
	require := require.New(t)

	var keyHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/keyurl":
			if keyHits.Add(1) == 1 {
				http.Error(w, "warming up", http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{}`))
		case "/v1/encrypt":
			w.Write([]byte(`{"handles":["` + handle.Handle{0xaa, 31: 1}.Hex() + `"],"inputProof":"0x0102"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	catalog, err := DefaultCatalog()
	require.NoError(err)
	c := doorContract(true)
	s := NewSession(catalog, relayer.NewClient(srv.URL, time.Second), func(*Dapp) Contract { return c },
		WithConnector(func() (Signer, error) { return fakeSigner{}, nil }))
	p, err := s.Pipeline("hidden-door-code")
	require.NoError(err)

	_, err = p.Submit(context.Background(), "submitGuess", map[string]string{"guess": "7"})
	require.ErrorContains(err, "status 503")
	require.Equal(1, strings.Count(err.Error(), "failed to initialize relayer"))
	require.Zero(c.sentCount())

	res, err := p.Submit(context.Background(), "submitGuess", map[string]string{"guess": "7"})
	require.NoError(err)
	require.Equal(testHash.Hex(), res.TxHash)
	require.EqualValues(2, keyHits.Load())
}

// gradeContract mimics the hidden grade release contract: one getter
// returns both the grade and the pass flag handles.
func gradeContract(getterReads *atomic.Int32) *fakeContract {
	gradeH := handle.Handle{0x01, 31: 0x0a}
	passH := handle.Handle{0x02, 31: 0x0b}
	return &fakeContract{
		addr: common.HexToAddress("0xbc2C6549c6Ac35875Dd5d8F2d106BEaE13fE914f"),
		views: map[string]func([]any) []any{
			"hasRecord": func([]any) []any { return []any{true} },
			"getHandles": func(args []any) []any {
				getterReads.Add(1)
				return []any{[32]byte(gradeH), [32]byte(passH)}
			},
		},
		txs: map[string]func([]any) (*types.Receipt, error){
			"makePublic": func([]any) (*types.Receipt, error) { return okReceipt(), nil },
		},
	}
}

func TestDecryptAllSharedGetter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	var reads atomic.Int32
	c := gradeContract(&reads)
	gradeH := handle.Handle{0x01, 31: 0x0a}
	passH := handle.Handle{0x02, 31: 0x0b}
	rel := &fakeRelayer{values: map[handle.Handle]string{gradeH: "1", passH: "1"}}
	journal := &memJournal{}
	p, err := newTestSession(t, c, rel, WithJournal(journal)).Pipeline("hidden-grade-release")
	require.NoError(err)

	out, err := p.DecryptAll(ctx, []string{"grade", "passed"}, nil, true)
	require.NoError(err)
	require.Len(out, 2)
	require.Equal("grade", out[0].Result)
	require.Equal(gradeH, out[0].Handle)
	require.Equal("B", out[0].Label.Title)
	require.Equal("passed", out[1].Result)
	require.Equal(passH, out[1].Handle)
	require.Equal("YES", out[1].Label.Title)

	require.EqualValues(1, reads.Load())
	require.Equal(1, rel.decrypts)
	require.Equal([]string{"makePublic"}, c.sent)
	require.Equal([]string{
		"handle:ok",
		"handle:ok",
		"make_public:ok",
		"decrypt:ok",
		"decrypt:ok",
	}, journal.steps())
}

func TestDecryptAllRejects(t *testing.T) {
	var reads atomic.Int32
	c := gradeContract(&reads)
	rel := &fakeRelayer{}
	p, err := newTestSession(t, c, rel).Pipeline("hidden-grade-release")
	require.NoError(t, err)

	_, err = p.DecryptAll(context.Background(), nil, nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.DecryptAll(context.Background(), []string{"grade", "grade"}, nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.DecryptAll(context.Background(), []string{"grade", "nope"}, nil, false)
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, c.viewCalls)
	require.Zero(t, rel.decrypts)
}

func TestSingleOutputOfSharedGetter(t *testing.T) {
	require := require.New(t)

	var reads atomic.Int32
	c := gradeContract(&reads)
	p, err := newTestSession(t, c, &fakeRelayer{}).Pipeline("hidden-grade-release")
	require.NoError(err)

	h, err := p.Handle(context.Background(), "passed", nil)
	require.NoError(err)
	require.Equal(handle.Handle{0x02, 31: 0x0b}, h)
}

func TestKeccakParam(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	id := crypto.Keccak256Hash([]byte("private-open-1800"))
	flagH := handle.Handle{0x0f, 31: 0x01}
	var gotTx, gotView any
	c := &fakeContract{
		addr: common.HexToAddress("0x48893cEBfCDBCed299b7CFa73588af22158Da545"),
		views: map[string]func([]any) []any{
			"hasRatingFor": func([]any) []any { return []any{true} },
			"gateFlagHandle": func(args []any) []any {
				gotView = args[0]
				return []any{[32]byte(flagH)}
			},
		},
		txs: map[string]func([]any) (*types.Receipt, error){
			"checkGate": func(args []any) (*types.Receipt, error) {
				gotTx = args[0]
				return okReceipt(), nil
			},
		},
	}
	p, err := newTestSession(t, c, &fakeRelayer{}).Pipeline("chess-rating-gate")
	require.NoError(err)

	res, err := p.Submit(ctx, "checkGate", map[string]string{"tournament": "private-open-1800", "threshold": "1800"})
	require.NoError(err)
	require.Equal(id.Hex(), gotTx)
	require.Equal(id.Hex(), gotView)
	require.NotNil(res.Handle)
	require.Equal(flagH, *res.Handle)
}

func TestOmittedInputFallback(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	dice := &fakeContract{
		addr: common.HexToAddress("0x2b4F93309bBE9F8dfa8EA7b89Ed649beB5E4898B"),
		txs: map[string]func([]any) (*types.Receipt, error){
			"playRound": func([]any) (*types.Receipt, error) { return okReceipt(), nil },
		},
		views: map[string]func([]any) []any{
			"hasResult": func([]any) []any { return []any{false} },
		},
	}
	rel := &fakeRelayer{}
	p, err := newTestSession(t, dice, rel).Pipeline("encrypted-dice-arena")
	require.NoError(err)
	for i := 0; i < 20; i++ {
		_, err = p.Submit(ctx, "playRound", map[string]string{"playerRoll": "3"})
		require.NoError(err)
		require.Len(rel.last.Values, 2)
		require.Equal("3", rel.last.Values[0].Value)
		require.Contains([]string{"1", "2", "3", "4", "5", "6"}, rel.last.Values[1].Value)
	}

	_, err = p.Submit(ctx, "playRound", map[string]string{"botRoll": "3"})
	require.ErrorIs(err, ErrInvalidInput)

	karaoke := &fakeContract{
		addr: common.HexToAddress("0x81551aaE3390D72D2B7D8aD016c25EFc9fFBdD0d"),
		views: map[string]func([]any) []any{
			"entryExists": func([]any) []any { return []any{true} },
			"levelExists": func([]any) []any { return []any{false} },
		},
		txs: map[string]func([]any) (*types.Receipt, error){
			"computeLevel": func([]any) (*types.Receipt, error) { return okReceipt(), nil },
		},
	}
	rel = &fakeRelayer{}
	p, err = newTestSession(t, karaoke, rel).Pipeline("karaoke-score")
	require.NoError(err)
	_, err = p.Submit(ctx, "computeLevel", map[string]string{"user": "alice"})
	require.NoError(err)
	require.Equal([]relayer.Value{{Type: relayer.TypeUint16, Value: "0"}}, rel.last.Values)
}

func TestPublicDecryptAll(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	a := handle.Handle{0x01, 31: 0x01}
	b := handle.Handle{0x02, 31: 0x02}
	rel := &fakeRelayer{values: map[handle.Handle]string{a: "7", b: "9"}}
	s := newTestSession(t, doorContract(true), rel)

	_, err := s.PublicDecryptAll(ctx, nil)
	require.ErrorIs(err, ErrInvalidHandle)
	_, err = s.PublicDecryptAll(ctx, []handle.Handle{a, {}})
	require.ErrorIs(err, ErrInvalidHandle)
	require.Zero(rel.decrypts)

	vs, err := s.PublicDecryptAll(ctx, []handle.Handle{b, a})
	require.NoError(err)
	require.Len(vs, 2)
	require.EqualValues(9, vs[0].Uint64())
	require.EqualValues(7, vs[1].Uint64())
	require.Equal(1, rel.decrypts)

	_, err = s.PublicDecryptAll(ctx, []handle.Handle{a, {0x03, 31: 0x03}})
	require.ErrorIs(err, ErrDecryptMalformed)
}
