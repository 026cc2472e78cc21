package relayer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/ethereum/go-ethereum/common"
)

// ErrOutOfRange is returned when a plaintext does not fit the encrypted type.
var ErrOutOfRange = errors.New("value out of range")

// Type is an encrypted value type understood by the relayer.
type Type string

const (
	TypeBool    Type = "ebool"
	TypeUint4   Type = "euint4"
	TypeUint8   Type = "euint8"
	TypeUint16  Type = "euint16"
	TypeUint32  Type = "euint32"
	TypeUint64  Type = "euint64"
	TypeUint128 Type = "euint128"
	TypeUint256 Type = "euint256"
	TypeAddress Type = "eaddress"
)

var typeBits = map[Type]int{
	TypeBool:    1,
	TypeUint4:   4,
	TypeUint8:   8,
	TypeUint16:  16,
	TypeUint32:  32,
	TypeUint64:  64,
	TypeUint128: 128,
	TypeUint256: 256,
	TypeAddress: 160,
}

// ParseType parses "euint16", "uint16", "16", "bool", "ebool", "address"...
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "e") {
		s = "e" + s
	}
	if len(s) > 1 && s[1] >= '0' && s[1] <= '9' {
		s = "euint" + s[1:]
	}
	t := Type(s)
	if _, ok := typeBits[t]; !ok {
		return "", fmt.Errorf("unknown encrypted type %q", s)
	}
	return t, nil
}

// Bits returns the plaintext width of t.
func (t Type) Bits() int {
	return typeBits[t]
}

// Value is one plaintext queued for encryption. Value holds a decimal
// integer, "true"/"false" for ebool, or a hex address for eaddress.
type Value struct {
	Type  Type   `json:"type"`
	Value string `json:"value"`
}

// NewValue validates raw against t and returns the canonical Value.
func NewValue(t Type, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch t {
	case TypeBool:
		switch strings.ToLower(raw) {
		case "true", "1":
			return Value{Type: t, Value: "true"}, nil
		case "false", "0":
			return Value{Type: t, Value: "false"}, nil
		}
		return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrOutOfRange, raw)
	case TypeAddress:
		if !common.IsHexAddress(raw) {
			return Value{}, fmt.Errorf("%w: %q is not an address", ErrOutOfRange, raw)
		}
		return Value{Type: t, Value: common.HexToAddress(raw).Hex()}, nil
	}

	bits := t.Bits()
	if bits == 0 {
		return Value{}, fmt.Errorf("unknown encrypted type %q", t)
	}
	n, err := units.ParseUint(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	if n.BitLen() > bits {
		return Value{}, fmt.Errorf("%w: %s does not fit in %s", ErrOutOfRange, raw, t)
	}
	return Value{Type: t, Value: n.Dec()}, nil
}
