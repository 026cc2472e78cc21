// Package handle converts the many shapes a ciphertext handle or input proof
// takes on the wire into one canonical form.
package handle

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the byte length of a ciphertext handle.
const Size = 32

// ErrInvalid is returned for anything that is not a 32-byte handle.
var ErrInvalid = errors.New("invalid handle format (must be bytes32)")

// Handle is an opaque reference to an encrypted value held by the relayer
// and the contract.
type Handle [Size]byte

// Hex returns the canonical 0x-prefixed lower-case form (66 chars).
func (h Handle) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Handle) String() string {
	return h.Hex()
}

// IsZero reports whether h is the zero handle, which contracts return for
// records that were never written.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Parse accepts a 0x-prefixed 64-hex-digit string; a 0X prefix is
// rejected. Surrounding whitespace and any leading label lines
// ("Result Handle:\n0x...") are dropped. Use Normalize for the looser
// forms relayers and contracts return.
func Parse(s string) (Handle, error) {
	s = lastLine(s)
	if len(s) != 2+2*Size || !strings.HasPrefix(s, "0x") {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return fromHexDigits(s[2:])
}

// Normalize converts any accepted handle representation into a Handle:
// a hex string with or without 0x, a 32-byte slice or array, a slice of
// byte-valued numbers, or an object wrapper carrying the handle under
// "handle" or "ciphertext" (or under index keys "0".."31").
func Normalize(v any) (Handle, error) {
	switch t := v.(type) {
	case Handle:
		return t, nil
	case *Handle:
		if t == nil {
			return Handle{}, ErrInvalid
		}
		return *t, nil
	case [Size]byte:
		return Handle(t), nil
	case string:
		s := lastLine(t)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			return Parse(s)
		}
		if len(s) != 2*Size {
			return Handle{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		return fromHexDigits(s)
	case []byte:
		return fromBytes(t)
	case hexutil.Bytes:
		return fromBytes(t)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(t, &decoded); err != nil {
			return Handle{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return Normalize(decoded)
	case []any:
		b, err := bytesFromNumbers(t)
		if err != nil {
			return Handle{}, err
		}
		return fromBytes(b)
	case []int:
		b, err := bytesFromInts(t)
		if err != nil {
			return Handle{}, err
		}
		return fromBytes(b)
	case map[string]any:
		for _, key := range []string{"handle", "ciphertext"} {
			if inner, ok := t[key]; ok && inner != nil {
				return Normalize(inner)
			}
		}
		b, err := bytesFromIndexMap(t)
		if err != nil {
			return Handle{}, err
		}
		return fromBytes(b)
	case nil:
		return Handle{}, fmt.Errorf("%w: nil", ErrInvalid)
	default:
		return Handle{}, fmt.Errorf("%w: unsupported type %T", ErrInvalid, v)
	}
}

// NormalizeProof converts an input proof (attestation) into bytes. Unlike
// handles, proofs have no fixed length; only emptiness is rejected.
func NormalizeProof(v any) (hexutil.Bytes, error) {
	var (
		b   []byte
		err error
	)
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		b, err = hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid proof hex: %w", err)
		}
	case []byte:
		b = append([]byte(nil), t...)
	case hexutil.Bytes:
		b = append([]byte(nil), t...)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(t, &decoded); err != nil {
			return nil, fmt.Errorf("invalid proof: %w", err)
		}
		return NormalizeProof(decoded)
	case []any:
		b, err = bytesFromNumbers(t)
	case []int:
		b, err = bytesFromInts(t)
	case map[string]any:
		if inner, ok := t["inputProof"]; ok {
			return NormalizeProof(inner)
		}
		b, err = bytesFromIndexMap(t)
	default:
		return nil, fmt.Errorf("invalid proof: unsupported type %T", v)
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("invalid proof: empty")
	}
	return b, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func fromHexDigits(digits string) (Handle, error) {
	var h Handle
	if len(digits) != 2*Size {
		return h, fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalid, 2*Size, len(digits))
	}
	if _, err := hex.Decode(h[:], []byte(digits)); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return h, nil
}

func fromBytes(b []byte) (Handle, error) {
	var h Handle
	if len(b) != Size {
		return h, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalid, Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func byteValue(v any) (byte, error) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		n = f
	default:
		return 0, fmt.Errorf("%w: byte element of type %T", ErrInvalid, v)
	}
	if n < 0 || n > 255 || n != float64(int(n)) {
		return 0, fmt.Errorf("%w: byte element %v out of range", ErrInvalid, n)
	}
	return byte(n), nil
}

func bytesFromNumbers(vs []any) ([]byte, error) {
	out := make([]byte, len(vs))
	for i, v := range vs {
		b, err := byteValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func bytesFromInts(vs []int) ([]byte, error) {
	out := make([]byte, len(vs))
	for i, v := range vs {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte element %d out of range", ErrInvalid, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// bytesFromIndexMap decodes the {"0":12,"1":34,...} shape a typed array
// takes after a round trip through JSON.
func bytesFromIndexMap(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrInvalid)
	}
	idx := make([]int, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: unexpected key %q", ErrInvalid, k)
		}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]byte, len(idx))
	for pos, i := range idx {
		if i != pos {
			return nil, fmt.Errorf("%w: missing index %d", ErrInvalid, pos)
		}
		b, err := byteValue(m[strconv.Itoa(i)])
		if err != nil {
			return nil, err
		}
		out[pos] = b
	}
	return out, nil
}
