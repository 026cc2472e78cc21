package dapp

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/chain"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/relayer"
	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

//go:embed catalog/dapps.toml
var defaultCatalog string

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Catalog is the set of known dApps keyed by slug.
type Catalog struct {
	Dapps []*Dapp `toml:"dapp" json:"dapps"`

	bySlug map[string]*Dapp
}

// Dapp describes one contract and how to drive it.
type Dapp struct {
	Slug        string    `toml:"slug" json:"slug"`
	Name        string    `toml:"name" json:"name"`
	Description string    `toml:"description" json:"description,omitempty"`
	Address     string    `toml:"address" json:"address"`
	ABI         []string  `toml:"abi" json:"abi"`
	Actions     []*Action `toml:"action" json:"actions"`
	Results     []*Result `toml:"result" json:"results"`

	address common.Address
	abi     abi.ABI
}

// Action is a state-changing contract call, optionally with encrypted
// inputs.
type Action struct {
	Name        string   `toml:"name" json:"name"`
	Method      string   `toml:"method" json:"method"`
	Description string   `toml:"description" json:"description,omitempty"`
	Inputs      []*Input `toml:"input" json:"inputs,omitempty"`
	Params      []Param  `toml:"param" json:"params,omitempty"`
	Args        []string `toml:"args" json:"args"`
	Require     *Call    `toml:"require" json:"require,omitempty"`
	ID          *IDEvent `toml:"id" json:"id,omitempty"`
	Result      string   `toml:"result" json:"result,omitempty"`
}

// Input is a plaintext that is encrypted before submission. An omitted
// input takes Default, or a uniform draw from [Min, Max] when Random is set.
type Input struct {
	Name    string `toml:"name" json:"name"`
	Type    string `toml:"type" json:"type"`
	Min     *Bound `toml:"min" json:"min,omitempty"`
	Max     *Bound `toml:"max" json:"max,omitempty"`
	Default string `toml:"default" json:"default,omitempty"`
	Random  bool   `toml:"random" json:"random,omitempty"`

	typ relayer.Type
}

// Param is a plain value supplied by the caller. Keccak params are hashed
// from UTF-8 text into a bytes32 id.
type Param struct {
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description,omitempty"`
	Keccak      bool   `toml:"keccak" json:"keccak,omitempty"`
}

// Call is a contract method with argument tokens.
type Call struct {
	Method  string   `toml:"method" json:"method"`
	Args    []string `toml:"args" json:"args,omitempty"`
	Message string   `toml:"message" json:"message,omitempty"`
}

// IDEvent names the event argument that carries the identifier an action
// creates.
type IDEvent struct {
	Event string `toml:"event" json:"event"`
	Arg   string `toml:"arg" json:"arg"`
}

// Result is an encrypted value stored by the contract. Output selects the
// handle when the getter returns several.
type Result struct {
	Name        string  `toml:"name" json:"name"`
	Description string  `toml:"description" json:"description,omitempty"`
	Params      []Param `toml:"param" json:"params,omitempty"`
	Getter      Call    `toml:"getter" json:"getter"`
	Output      int     `toml:"output" json:"output,omitempty"`
	Exists      *Call   `toml:"exists" json:"exists,omitempty"`
	MakePublic  *Call   `toml:"make_public" json:"makePublic,omitempty"`
	Labels      []Label `toml:"label" json:"labels,omitempty"`
}

// Label is the human meaning of a decrypted result code.
type Label struct {
	Code        uint64 `toml:"code" json:"code"`
	Title       string `toml:"title" json:"title"`
	Description string `toml:"description" json:"description,omitempty"`
}

// Bound is an inclusive input limit. It decodes from a TOML integer or a
// decimal/hex string for values past int64.
type Bound struct {
	uint256.Int
}

// UnmarshalTOML implements toml.Unmarshaler.
func (b *Bound) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case int64:
		if t < 0 {
			return fmt.Errorf("bound %d is negative", t)
		}
		b.SetUint64(uint64(t))
		return nil
	case string:
		n, err := units.ParseUint(t)
		if err != nil {
			return fmt.Errorf("invalid bound %q: %w", t, err)
		}
		b.Set(n)
		return nil
	}
	return fmt.Errorf("bound must be an integer or a string, got %T", v)
}

// MarshalJSON renders the bound as a decimal string.
func (b *Bound) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Dec())
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(strings.NewReader(defaultCatalog))
}

// LoadCatalogFile reads and validates a catalog file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadCatalog decodes and validates a TOML catalog. Unknown keys are
// rejected.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown catalog keys: %s", strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns the dApp with slug.
func (c *Catalog) Get(slug string) (*Dapp, error) {
	d, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("dapp %q: %w", slug, ErrNotFound)
	}
	return d, nil
}

// Slugs returns all slugs in sorted order.
func (c *Catalog) Slugs() []string {
	out := make([]string, 0, len(c.bySlug))
	for s := range c.bySlug {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ContractAddress returns the parsed contract address.
func (d *Dapp) ContractAddress() common.Address {
	return d.address
}

// ParsedABI returns the parsed contract ABI.
func (d *Dapp) ParsedABI() abi.ABI {
	return d.abi
}

// Summary lists the dApp without its ABI.
func (d *Dapp) Summary() model.DappSummary {
	s := model.DappSummary{
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Address:     d.ContractAddress().Hex(),
	}
	for _, a := range d.Actions {
		s.Actions = append(s.Actions, a.Name)
	}
	for _, r := range d.Results {
		s.Results = append(s.Results, r.Name)
	}
	return s
}

// Action returns the action called name.
func (d *Dapp) Action(name string) (*Action, error) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%s action %q: %w", d.Slug, name, ErrNotFound)
}

// Result returns the result called name.
func (d *Dapp) Result(name string) (*Result, error) {
	for _, r := range d.Results {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%s result %q: %w", d.Slug, name, ErrNotFound)
}

// Label returns the label for code, if the result defines one.
func (r *Result) Label(code uint64) (Label, bool) {
	for _, l := range r.Labels {
		if l.Code == code {
			return l, true
		}
	}
	return Label{}, false
}

func (c *Catalog) validate() error {
	if len(c.Dapps) == 0 {
		return fmt.Errorf("catalog has no dapps")
	}
	c.bySlug = make(map[string]*Dapp, len(c.Dapps))
	for _, d := range c.Dapps {
		if !slugRe.MatchString(d.Slug) {
			return fmt.Errorf("invalid dapp slug %q", d.Slug)
		}
		if _, dup := c.bySlug[d.Slug]; dup {
			return fmt.Errorf("duplicate dapp slug %q", d.Slug)
		}
		if err := d.validate(); err != nil {
			return fmt.Errorf("dapp %s: %w", d.Slug, err)
		}
		c.bySlug[d.Slug] = d
	}
	return nil
}

func (d *Dapp) validate() error {
	if !common.IsHexAddress(d.Address) {
		return fmt.Errorf("invalid address %q", d.Address)
	}
	d.address = common.HexToAddress(d.Address)

	parsed, err := chain.ParseABI(d.ABI)
	if err != nil {
		return err
	}
	d.abi = parsed

	results := make(map[string]bool, len(d.Results))
	for _, r := range d.Results {
		if r.Name == "" || results[r.Name] {
			return fmt.Errorf("missing or duplicate result name %q", r.Name)
		}
		results[r.Name] = true
		if err := d.validateResult(r); err != nil {
			return fmt.Errorf("result %s: %w", r.Name, err)
		}
	}

	actions := make(map[string]bool, len(d.Actions))
	for _, a := range d.Actions {
		if a.Name == "" || actions[a.Name] {
			return fmt.Errorf("missing or duplicate action name %q", a.Name)
		}
		actions[a.Name] = true
		if err := d.validateAction(a, results); err != nil {
			return fmt.Errorf("action %s: %w", a.Name, err)
		}
	}
	return nil
}

func (d *Dapp) validateAction(a *Action, results map[string]bool) error {
	if a.Method == "" {
		a.Method = a.Name
	}
	scope := tokenScope{params: map[string]bool{}, inputs: map[string]bool{}, proof: len(a.Inputs) > 0}
	for _, p := range a.Params {
		if p.Name == "" || scope.params[p.Name] {
			return fmt.Errorf("missing or duplicate param name %q", p.Name)
		}
		scope.params[p.Name] = true
	}
	for _, in := range a.Inputs {
		if in.Name == "" || scope.inputs[in.Name] || scope.params[in.Name] {
			return fmt.Errorf("missing or duplicate input name %q", in.Name)
		}
		scope.inputs[in.Name] = true
		t, err := relayer.ParseType(in.Type)
		if err != nil {
			return fmt.Errorf("input %s: %w", in.Name, err)
		}
		in.typ = t
		if err := in.validate(); err != nil {
			return fmt.Errorf("input %s: %w", in.Name, err)
		}
	}

	if err := d.validateCall(Call{Method: a.Method, Args: a.Args}, scope, false); err != nil {
		return err
	}
	if a.Require != nil {
		if err := d.validateCall(*a.Require, scope.plain(), true); err != nil {
			return fmt.Errorf("require: %w", err)
		}
	}
	if a.ID != nil {
		ev, ok := d.abi.Events[a.ID.Event]
		if !ok {
			return fmt.Errorf("unknown id event %q", a.ID.Event)
		}
		if !hasArg(ev.Inputs, a.ID.Arg) {
			return fmt.Errorf("event %s has no argument %q", ev.Name, a.ID.Arg)
		}
	}
	if a.Result != "" && !results[a.Result] {
		return fmt.Errorf("unknown result %q", a.Result)
	}
	if a.Result != "" {
		r, _ := d.Result(a.Result)
		for _, p := range r.Params {
			if !scope.params[p.Name] {
				return fmt.Errorf("result %s needs param %q the action does not take", r.Name, p.Name)
			}
			if ap := findParam(a.Params, p.Name); ap.Keccak != p.Keccak {
				return fmt.Errorf("param %q is hashed differently by result %s", p.Name, r.Name)
			}
		}
	}
	return nil
}

func (in *Input) validate() error {
	t := in.typ
	if in.Default != "" && in.Random {
		return fmt.Errorf("default and random are exclusive")
	}
	if t == relayer.TypeBool || t == relayer.TypeAddress {
		if in.Min != nil || in.Max != nil || in.Random {
			return fmt.Errorf("%s cannot have bounds", t)
		}
	} else {
		if in.Min != nil && in.Min.BitLen() > t.Bits() || in.Max != nil && in.Max.BitLen() > t.Bits() {
			return fmt.Errorf("bound does not fit %s", t)
		}
		if in.Min != nil && in.Max != nil && in.Min.Gt(&in.Max.Int) {
			return fmt.Errorf("min is greater than max")
		}
		if in.Random && (in.Min == nil || in.Max == nil) {
			return fmt.Errorf("random needs min and max")
		}
	}
	if in.Default != "" {
		v, err := relayer.NewValue(t, in.Default)
		if err != nil {
			return fmt.Errorf("default: %w", err)
		}
		if err := in.checkBounds(v); err != nil {
			return fmt.Errorf("default: %w", err)
		}
	}
	return nil
}

func findParam(params []Param, name string) Param {
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	return Param{}
}

func (d *Dapp) validateResult(r *Result) error {
	scope := tokenScope{params: map[string]bool{}}
	for _, p := range r.Params {
		if p.Name == "" || scope.params[p.Name] {
			return fmt.Errorf("missing or duplicate param name %q", p.Name)
		}
		scope.params[p.Name] = true
	}
	if err := d.validateCall(r.Getter, scope, false); err != nil {
		return fmt.Errorf("getter: %w", err)
	}
	m := d.abi.Methods[r.Getter.Method]
	if len(m.Outputs) == 0 {
		return fmt.Errorf("getter %s must return bytes32", m.Name)
	}
	for _, out := range m.Outputs {
		if out.Type.T != abi.FixedBytesTy || out.Type.Size != 32 {
			return fmt.Errorf("getter %s must return bytes32", m.Name)
		}
	}
	if r.Output < 0 || r.Output >= len(m.Outputs) {
		return fmt.Errorf("getter %s has no output #%d", m.Name, r.Output)
	}
	if r.Exists != nil {
		if err := d.validateCall(*r.Exists, scope, true); err != nil {
			return fmt.Errorf("exists: %w", err)
		}
	}
	if r.MakePublic != nil {
		if err := d.validateCall(*r.MakePublic, scope, false); err != nil {
			return fmt.Errorf("make_public: %w", err)
		}
	}
	codes := make(map[uint64]bool, len(r.Labels))
	for _, l := range r.Labels {
		if codes[l.Code] {
			return fmt.Errorf("duplicate label code %d", l.Code)
		}
		if l.Title == "" {
			return fmt.Errorf("label %d has no title", l.Code)
		}
		codes[l.Code] = true
	}
	return nil
}

// validateCall checks that c names a known method, that its tokens resolve
// in scope and, for checks, that the method returns a single bool.
func (d *Dapp) validateCall(c Call, scope tokenScope, check bool) error {
	m, ok := d.abi.Methods[c.Method]
	if !ok {
		return fmt.Errorf("unknown method %q", c.Method)
	}
	if len(c.Args) != len(m.Inputs) {
		return fmt.Errorf("%s takes %d arguments, %d given", m.Name, len(m.Inputs), len(c.Args))
	}
	for i, tok := range c.Args {
		if err := scope.check(tok); err != nil {
			return fmt.Errorf("%s argument #%d: %w", m.Name, i, err)
		}
		if strings.HasPrefix(tok, "$") {
			continue
		}
		if _, err := chain.ConvertArg(m.Inputs[i].Type, tok); err != nil {
			return fmt.Errorf("%s argument #%d: %w", m.Name, i, err)
		}
	}
	if check && (len(m.Outputs) != 1 || m.Outputs[0].Type.T != abi.BoolTy) {
		return fmt.Errorf("%s must return bool", m.Name)
	}
	return nil
}

func hasArg(args abi.Arguments, name string) bool {
	for _, a := range args {
		if a.Name == name {
			return true
		}
	}
	return false
}
