package dapp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"maps"
	"math/big"
	"sort"

	"github.com/AlexZinkM/fhe-dapps/internal/chain"
	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/metrics"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/relayer"
	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Pipeline runs actions and result reads for one dApp.
type Pipeline struct {
	s        *Session
	dapp     *Dapp
	contract Contract
}

// TxResult identifies a mined transaction.
type TxResult struct {
	TxHash string `json:"txHash"`
	Block  uint64 `json:"block"`
}

// SubmitResult is the outcome of an action.
type SubmitResult struct {
	TxResult
	ID     string         `json:"id,omitempty"`
	Handle *handle.Handle `json:"handle,omitempty"`
}

// Outcome is a decrypted result.
type Outcome struct {
	Result string        `json:"result"`
	Handle handle.Handle `json:"handle"`
	Value  string        `json:"value"`
	Label  *Label        `json:"label,omitempty"`
}

// DecryptOptions tunes Decrypt.
type DecryptOptions struct {
	// Handle skips the on-chain read when set.
	Handle *handle.Handle
	// MakePublic calls the result's make-public method first.
	MakePublic bool
}

// Dapp returns the catalog entry.
func (p *Pipeline) Dapp() *Dapp {
	return p.dapp
}

// Submit validates params, encrypts the action's inputs, sends the
// transaction and, when the action names a result, reads back its handle.
// params holds both encrypted inputs and plain params by name. Nothing is
// sent if any value is rejected.
func (p *Pipeline) Submit(ctx context.Context, action string, params map[string]string) (*SubmitResult, error) {
	a, err := p.dapp.Action(action)
	if err != nil {
		return nil, err
	}

	res, err := p.submit(ctx, a, params)
	entry := model.Entry{Step: model.StepSubmit, Name: a.Name}
	if res != nil {
		entry.TxHash, entry.Block = res.TxHash, res.Block
	}
	p.record(entry, err)
	if err != nil {
		return res, err
	}

	if a.Result != "" {
		h, err := p.Handle(ctx, a.Result, params)
		if err != nil {
			p.s.log.Warn("result read-back failed", "dapp", p.dapp.Slug, "action", a.Name, "error", err)
		} else {
			res.Handle = &h
		}
	}
	return res, nil
}

func (p *Pipeline) submit(ctx context.Context, a *Action, params map[string]string) (*SubmitResult, error) {
	values, err := a.values(params)
	if err != nil {
		return nil, err
	}
	params = hashParams(a.Params, params)
	if err := p.checkParams(Call{Method: a.Method, Args: a.Args}, params); err != nil {
		return nil, err
	}
	if a.Require != nil {
		if err := p.checkParams(*a.Require, params); err != nil {
			return nil, err
		}
	}

	env := &argEnv{sender: p.s.sender, params: params}
	if a.Require != nil {
		ok, err := p.check(ctx, *a.Require, env)
		if err != nil {
			return nil, err
		}
		if !ok {
			msg := a.Require.Message
			if msg == "" {
				msg = a.Require.Method + " is false"
			}
			return nil, fmt.Errorf("%w: %s", ErrPrecondition, msg)
		}
	}

	if len(values) > 0 {
		if err := p.encrypt(ctx, a, values, env); err != nil {
			return nil, err
		}
	}

	args, err := env.resolve(a.Args)
	if err != nil {
		return nil, err
	}
	receipt, err := p.s.transact(ctx, p.contract, a.Method, args)
	res := txResult(receipt)
	if err != nil {
		if res != nil {
			return &SubmitResult{TxResult: *res}, err
		}
		return nil, err
	}
	out := &SubmitResult{TxResult: *res}

	if a.ID != nil {
		id, err := chain.EventArg(receipt, p.contract.Address(), p.dapp.abi.Events[a.ID.Event], a.ID.Arg)
		if err != nil {
			return out, fmt.Errorf("failed to read %s.%s: %w", a.ID.Event, a.ID.Arg, err)
		}
		out.ID = formatValue(id)
	}
	return out, nil
}

// encrypt encrypts values in declaration order and fills env's handles and
// proof.
func (p *Pipeline) encrypt(ctx context.Context, a *Action, values []relayer.Value, env *argEnv) error {
	sender, err := p.s.sender()
	if err != nil {
		return err
	}
	if err := p.s.ensureRelayer(ctx); err != nil {
		return err
	}
	in := relayer.NewInput(p.s.relayer, p.contract.Address(), sender)
	for _, v := range values {
		in.Add(v.Type, v.Value)
	}
	enc, err := in.Encrypt(ctx)
	if err != nil {
		return fmt.Errorf("failed to encrypt inputs: %w", err)
	}
	env.proof = enc.InputProof
	env.handles = make(map[string]handle.Handle, len(a.Inputs))
	for i, input := range a.Inputs {
		env.handles[input.Name] = enc.Handles[i]
	}
	return nil
}

// Handle reads the stored handle of result. It fails with ErrMissingRecord
// when the exists check is false or the contract returns a zero handle.
func (p *Pipeline) Handle(ctx context.Context, result string, params map[string]string) (h handle.Handle, err error) {
	r, err := p.dapp.Result(result)
	if err != nil {
		return handle.Handle{}, err
	}
	defer func() { p.recordHandle(r, h, err) }()
	return p.handle(ctx, r, params, nil)
}

// getterReads holds getter outputs by call, so results that share a
// multi-output getter read it once.
type getterReads map[string][]any

func (p *Pipeline) handle(ctx context.Context, r *Result, params map[string]string, reads getterReads) (handle.Handle, error) {
	params = hashParams(r.Params, params)
	if err := p.checkParams(r.Getter, params); err != nil {
		return handle.Handle{}, err
	}
	env := &argEnv{sender: p.s.sender, params: params}
	if r.Exists != nil {
		ok, err := p.check(ctx, *r.Exists, env)
		if err != nil {
			return handle.Handle{}, err
		}
		if !ok {
			return handle.Handle{}, fmt.Errorf("%s: %w", r.Name, ErrMissingRecord)
		}
	}
	args, err := env.resolve(r.Getter.Args)
	if err != nil {
		return handle.Handle{}, err
	}
	key := fmt.Sprint(r.Getter.Method, args)
	out, ok := reads[key]
	if !ok {
		out, err = p.contract.Call(ctx, p.s.caller(), r.Getter.Method, args...)
		if err != nil {
			return handle.Handle{}, err
		}
		if reads != nil {
			reads[key] = out
		}
	}
	if len(out) <= r.Output {
		return handle.Handle{}, fmt.Errorf("%s returned %d values", r.Getter.Method, len(out))
	}
	h, err := handle.Normalize(out[r.Output])
	if err != nil {
		return handle.Handle{}, err
	}
	if h.IsZero() {
		return handle.Handle{}, fmt.Errorf("%s: %w", r.Name, ErrMissingRecord)
	}
	return h, nil
}

// MakePublic marks result as publicly decryptable.
func (p *Pipeline) MakePublic(ctx context.Context, result string, params map[string]string) (res *TxResult, err error) {
	r, err := p.dapp.Result(result)
	if err != nil {
		return nil, err
	}
	defer func() {
		entry := model.Entry{Step: model.StepMakePublic, Name: r.Name}
		if res != nil {
			entry.TxHash, entry.Block = res.TxHash, res.Block
		}
		p.record(entry, err)
	}()
	return p.makePublic(ctx, r, params)
}

func (p *Pipeline) makePublic(ctx context.Context, r *Result, params map[string]string) (*TxResult, error) {
	if r.MakePublic == nil {
		return nil, fmt.Errorf("%s cannot be made public: %w", r.Name, ErrUnsupported)
	}
	params = hashParams(r.Params, params)
	if err := p.checkParams(*r.MakePublic, params); err != nil {
		return nil, err
	}
	env := &argEnv{sender: p.s.sender, params: params}
	args, err := env.resolve(r.MakePublic.Args)
	if err != nil {
		return nil, err
	}
	receipt, err := p.s.transact(ctx, p.contract, r.MakePublic.Method, args)
	return txResult(receipt), err
}

// Decrypt publicly decrypts result and labels the value.
func (p *Pipeline) Decrypt(ctx context.Context, result string, params map[string]string, opts DecryptOptions) (out *Outcome, err error) {
	r, err := p.dapp.Result(result)
	if err != nil {
		return nil, err
	}

	var h handle.Handle
	if opts.Handle != nil {
		h = *opts.Handle
	} else if h, err = p.Handle(ctx, result, params); err != nil {
		return nil, err
	}
	if opts.MakePublic {
		if _, err := p.MakePublic(ctx, result, params); err != nil {
			return nil, err
		}
	}

	defer func() { p.recordDecrypt(r, h, out, err) }()

	v, err := p.s.PublicDecrypt(ctx, h)
	if err != nil {
		return nil, err
	}
	return p.outcome(r, h, v), nil
}

// DecryptAll publicly decrypts several results in one relayer request.
// Results that share a getter read it once, and a make-public call they
// share is sent once.
func (p *Pipeline) DecryptAll(ctx context.Context, results []string, params map[string]string, makePublic bool) ([]*Outcome, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no results named", ErrInvalidInput)
	}
	rs := make([]*Result, len(results))
	for i, name := range results {
		r, err := p.dapp.Result(name)
		if err != nil {
			return nil, err
		}
		for _, prev := range rs[:i] {
			if prev == r {
				return nil, fmt.Errorf("%w: result %q named twice", ErrInvalidInput, name)
			}
		}
		rs[i] = r
	}

	reads := getterReads{}
	hs := make([]handle.Handle, len(rs))
	for i, r := range rs {
		h, err := p.handle(ctx, r, params, reads)
		p.recordHandle(r, h, err)
		if err != nil {
			return nil, err
		}
		hs[i] = h
	}

	if makePublic {
		sent := make(map[string]bool, len(rs))
		for _, r := range rs {
			key := p.makePublicKey(r, params)
			if sent[key] {
				continue
			}
			sent[key] = true
			if _, err := p.MakePublic(ctx, r.Name, params); err != nil {
				return nil, err
			}
		}
	}

	vs, err := p.s.PublicDecryptAll(ctx, hs)
	out := make([]*Outcome, len(rs))
	for i, r := range rs {
		if err == nil {
			out[i] = p.outcome(r, hs[i], vs[i])
		}
		p.recordDecrypt(r, hs[i], out[i], err)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// makePublicKey identifies the transaction that makes r public.
func (p *Pipeline) makePublicKey(r *Result, params map[string]string) string {
	if r.MakePublic == nil {
		return "result:" + r.Name
	}
	env := &argEnv{sender: p.s.sender, params: hashParams(r.Params, params)}
	args, err := env.resolve(r.MakePublic.Args)
	if err != nil {
		return "result:" + r.Name
	}
	return fmt.Sprint(r.MakePublic.Method, args)
}

func (p *Pipeline) outcome(r *Result, h handle.Handle, v *uint256.Int) *Outcome {
	out := &Outcome{Result: r.Name, Handle: h, Value: v.Dec()}
	if l, ok := p.Label(r, v); ok {
		out.Label = &l
	}
	return out
}

// Label maps a decrypted value to the result's label.
func (p *Pipeline) Label(r *Result, v *uint256.Int) (Label, bool) {
	if !v.IsUint64() {
		return Label{}, false
	}
	return r.Label(v.Uint64())
}

// check runs a bool view call.
func (p *Pipeline) check(ctx context.Context, c Call, env *argEnv) (bool, error) {
	out, err := p.call(ctx, c, env)
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("%s returned %d values", c.Method, len(out))
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, fmt.Errorf("%s returned %T, want bool", c.Method, out[0])
	}
	return ok, nil
}

func (p *Pipeline) call(ctx context.Context, c Call, env *argEnv) ([]any, error) {
	args, err := env.resolve(c.Args)
	if err != nil {
		return nil, err
	}
	return p.contract.Call(ctx, p.s.caller(), c.Method, args...)
}

// checkParams converts every $param token of c against its ABI type so
// malformed params are rejected before any call.
func (p *Pipeline) checkParams(c Call, params map[string]string) error {
	m := p.dapp.abi.Methods[c.Method]
	for i, tok := range c.Args {
		if len(tok) <= len(prefixParam) || tok[:len(prefixParam)] != prefixParam {
			continue
		}
		name := tok[len(prefixParam):]
		v, ok := params[name]
		if !ok {
			return fmt.Errorf("%w: missing param %q", ErrInvalidInput, name)
		}
		if _, err := chain.ConvertArg(m.Inputs[i].Type, v); err != nil {
			return fmt.Errorf("%w: param %s: %v", ErrInvalidInput, name, err)
		}
	}
	return nil
}

// values validates the encrypted inputs in params against their types and
// bounds, and rejects names the action does not declare.
func (a *Action) values(params map[string]string) ([]relayer.Value, error) {
	known := make(map[string]bool, len(a.Inputs)+len(a.Params))
	for _, p := range a.Params {
		known[p.Name] = true
	}
	values := make([]relayer.Value, 0, len(a.Inputs))
	for _, in := range a.Inputs {
		known[in.Name] = true
		raw, ok := params[in.Name]
		if !ok {
			var err error
			if raw, err = in.fallback(); err != nil {
				return nil, err
			}
		}
		v, err := relayer.NewValue(in.typ, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, in.Name, err)
		}
		if err := in.checkBounds(v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	var unknown []string
	for name := range params {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown params %v", ErrInvalidInput, unknown)
	}
	return values, nil
}

// fallback is the value of an omitted input.
func (in *Input) fallback() (string, error) {
	switch {
	case in.Default != "":
		return in.Default, nil
	case in.Random:
		span := new(big.Int).Sub(in.Max.ToBig(), in.Min.ToBig())
		n, err := rand.Int(rand.Reader, span.Add(span, big.NewInt(1)))
		if err != nil {
			return "", fmt.Errorf("failed to draw %s: %w", in.Name, err)
		}
		return n.Add(n, in.Min.ToBig()).String(), nil
	}
	return "", fmt.Errorf("%w: missing input %q", ErrInvalidInput, in.Name)
}

// hashParams replaces keccak params with the hash of their text.
func hashParams(decl []Param, params map[string]string) map[string]string {
	var out map[string]string
	for _, p := range decl {
		v, ok := params[p.Name]
		if !p.Keccak || !ok {
			continue
		}
		if out == nil {
			out = maps.Clone(params)
		}
		out[p.Name] = ethcrypto.Keccak256Hash([]byte(v)).Hex()
	}
	if out == nil {
		return params
	}
	return out
}

func (in *Input) checkBounds(v relayer.Value) error {
	if in.Min == nil && in.Max == nil {
		return nil
	}
	n, err := units.ParseUint(v.Value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, in.Name, err)
	}
	if in.Min != nil && n.Lt(&in.Min.Int) || in.Max != nil && n.Gt(&in.Max.Int) {
		return fmt.Errorf("%w: %s must be in [%s, %s], got %s", ErrInvalidInput, in.Name, in.lower(), in.upper(), n.Dec())
	}
	return nil
}

func (in *Input) lower() string {
	if in.Min == nil {
		return "0"
	}
	return in.Min.Dec()
}

func (in *Input) upper() string {
	if in.Max == nil {
		return new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(in.typ.Bits())), uint256.NewInt(1)).Dec()
	}
	return in.Max.Dec()
}

func (p *Pipeline) recordHandle(r *Result, h handle.Handle, err error) {
	entry := model.Entry{Step: model.StepHandle, Name: r.Name}
	if err == nil {
		entry.Handle = h.Hex()
	}
	p.record(entry, err)
}

func (p *Pipeline) recordDecrypt(r *Result, h handle.Handle, out *Outcome, err error) {
	entry := model.Entry{Step: model.StepDecrypt, Name: r.Name, Handle: h.Hex()}
	if out != nil {
		entry.Value = out.Value
		if out.Label != nil {
			entry.Label = out.Label.Title
		}
	}
	p.record(entry, err)
}

// record journals and counts one step outcome.
func (p *Pipeline) record(e model.Entry, err error) {
	e.Dapp = p.dapp.Slug
	e.Status = model.StatusOK
	if err != nil {
		e.Status = model.StatusFailed
		e.Error = err.Error()
		if IsClientError(err) {
			p.s.log.Warn("step rejected", "dapp", e.Dapp, "step", e.Step, "name", e.Name, "error", err)
		} else {
			p.s.log.Error("step failed", "dapp", e.Dapp, "step", e.Step, "name", e.Name, "tx", e.TxHash, "error", err)
		}
	} else {
		p.s.log.Info("step done", "dapp", e.Dapp, "step", e.Step, "name", e.Name, "tx", e.TxHash, "handle", e.Handle, "value", e.Value)
	}
	metrics.PipelineStep(e.Dapp, string(e.Step), err)
	if p.s.journal == nil {
		return
	}
	if jerr := p.s.journal.Append(&e); jerr != nil {
		p.s.log.Warn("failed to journal step", "dapp", e.Dapp, "step", e.Step, "error", jerr)
	}
}

func txResult(receipt *types.Receipt) *TxResult {
	if receipt == nil {
		return nil
	}
	res := &TxResult{TxHash: receipt.TxHash.Hex()}
	if receipt.BlockNumber != nil {
		res.Block = receipt.BlockNumber.Uint64()
	}
	return res
}

func formatValue(v any) string {
	switch t := v.(type) {
	case *big.Int:
		return t.String()
	case common.Address:
		return t.Hex()
	case [32]byte:
		return handle.Handle(t).Hex()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// IsClientError reports whether err was caused by the request rather than
// by a dependency.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidHandle) || errors.Is(err, ErrNotFound)
}
