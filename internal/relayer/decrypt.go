package relayer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/holiman/uint256"
)

// ErrNoValue is returned when a decrypt response carries no value for the
// requested handle.
var ErrNoValue = errors.New("decrypt produced no value")

// DecryptResult is a public-decrypt response: clear values keyed by handle
// as the relayer spelled it.
type DecryptResult struct {
	ClearValues map[string]json.RawMessage `json:"clearValues"`
}

// ParseDecryptResponse validates a raw public-decrypt response. Both
// {"clearValues":{...}} and {"response":{"clearValues":{...}}} are accepted.
func ParseDecryptResponse(raw []byte) (*DecryptResult, error) {
	var top struct {
		ClearValues map[string]json.RawMessage `json:"clearValues"`
		Response    *struct {
			ClearValues map[string]json.RawMessage `json:"clearValues"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	values := top.ClearValues
	if values == nil && top.Response != nil {
		values = top.Response.ClearValues
	}
	if values == nil {
		return nil, fmt.Errorf("%w: no clearValues", ErrMalformedResponse)
	}
	return &DecryptResult{ClearValues: values}, nil
}

// Lookup returns the raw value stored under key, trying the exact spelling
// first and the lower-case spelling second.
func (r *DecryptResult) Lookup(key string) (json.RawMessage, bool) {
	if v, ok := r.ClearValues[key]; ok {
		return v, true
	}
	if v, ok := r.ClearValues[strings.ToLower(key)]; ok {
		return v, true
	}
	for k, v := range r.ClearValues {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Value returns the clear value of h as an integer. Booleans decode as 0/1.
func (r *DecryptResult) Value(h handle.Handle) (*uint256.Int, error) {
	return r.ValueFor(h.Hex())
}

// ValueFor is Value for a handle spelled as key.
func (r *DecryptResult) ValueFor(key string) (*uint256.Int, error) {
	raw, ok := r.Lookup(key)
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("%w for %s", ErrNoValue, key)
	}
	return ParseClearValue(raw)
}

// ParseClearValue decodes a clear value given as a JSON string, number or
// boolean.
func ParseClearValue(raw json.RawMessage) (*uint256.Int, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch t := v.(type) {
	case bool:
		if t {
			return uint256.NewInt(1), nil
		}
		return uint256.NewInt(0), nil
	case json.Number:
		n, err := units.ParseUint(t.String())
		if err != nil {
			return nil, fmt.Errorf("%w: clear value %s: %v", ErrMalformedResponse, t, err)
		}
		return n, nil
	case string:
		switch strings.ToLower(t) {
		case "true":
			return uint256.NewInt(1), nil
		case "false":
			return uint256.NewInt(0), nil
		}
		n, err := units.ParseUint(strings.TrimSuffix(t, "n"))
		if err != nil {
			return nil, fmt.Errorf("%w: clear value %q: %v", ErrMalformedResponse, t, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: clear value of type %T", ErrMalformedResponse, v)
	}
}
