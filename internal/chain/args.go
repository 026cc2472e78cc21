package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// ConvertArgs converts loosely typed values (strings from the command line,
// numbers and strings from JSON, handles, addresses) into the Go types the
// ABI encoder expects for method's inputs.
func ConvertArgs(method abi.Method, values []any) ([]any, error) {
	if len(values) != len(method.Inputs) {
		return nil, fmt.Errorf("%s: want %d arguments, got %d", method.Name, len(method.Inputs), len(values))
	}
	out := make([]any, len(values))
	for i, v := range values {
		conv, err := ConvertArg(method.Inputs[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s argument #%d (%s): %w", method.Name, i, method.Inputs[i].Type, err)
		}
		out[i] = conv
	}
	return out, nil
}

// ConvertArg converts v into the Go representation of t.
func ConvertArg(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.BoolTy:
		return toBool(v)
	case abi.UintTy:
		n, err := toUint(v)
		if err != nil {
			return nil, err
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s does not fit in uint%d", n.Dec(), t.Size)
		}
		return sizedInt(t, n.ToBig())
	case abi.IntTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s does not fit in int%d", n, t.Size)
		}
		return sizedInt(t, n)
	case abi.AddressTy:
		return toAddress(v)
	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.BytesTy:
		return toBytes(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("want list, got %T", v)
		}
		if t.T == abi.ArrayTy && len(items) != t.Size {
			return nil, fmt.Errorf("want %d elements, got %d", t.Size, len(items))
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			out = reflect.New(t.GetType()).Elem()
		} else {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		}
		for i, item := range items {
			conv, err := ConvertArg(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element #%d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(conv))
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

// sizedInt returns the Go integer type go-ethereum packs for t: native
// integers up to 64 bits, *big.Int above.
func sizedInt(t abi.Type, n *big.Int) (any, error) {
	unsigned := t.T == abi.UintTy
	switch {
	case t.Size > 64:
		return n, nil
	case unsigned && t.Size == 8:
		return uint8(n.Uint64()), nil
	case unsigned && t.Size == 16:
		return uint16(n.Uint64()), nil
	case unsigned && t.Size == 32:
		return uint32(n.Uint64()), nil
	case unsigned && t.Size == 64:
		return n.Uint64(), nil
	case !unsigned && t.Size == 8:
		return int8(n.Int64()), nil
	case !unsigned && t.Size == 16:
		return int16(n.Int64()), nil
	case !unsigned && t.Size == 32:
		return int32(n.Int64()), nil
	case !unsigned && t.Size == 64:
		return n.Int64(), nil
	}
	// odd widths (uint24, int40, ...) are packed from *big.Int
	return n, nil
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	case float64:
		if t == 0 || t == 1 {
			return t == 1, nil
		}
	}
	return false, fmt.Errorf("want bool, got %v", v)
}

func toUint(v any) (*uint256.Int, error) {
	switch t := v.(type) {
	case *uint256.Int:
		return t, nil
	case *big.Int:
		n, overflow := uint256.FromBig(t)
		if overflow || t.Sign() < 0 {
			return nil, fmt.Errorf("%s is not a uint256", t)
		}
		return n, nil
	case uint64:
		return uint256.NewInt(t), nil
	case int:
		if t < 0 {
			return nil, fmt.Errorf("%d is negative", t)
		}
		return uint256.NewInt(uint64(t)), nil
	case float64:
		if t < 0 || t != math.Trunc(t) || t > math.MaxInt64 {
			return nil, fmt.Errorf("%v is not a non-negative integer", t)
		}
		return uint256.NewInt(uint64(t)), nil
	case json.Number:
		return units.ParseUint(t.String())
	case string:
		return units.ParseUint(t)
	}
	return nil, fmt.Errorf("want unsigned integer, got %T", v)
}

func toBigInt(v any) (*big.Int, error) {
	switch t := v.(type) {
	case *big.Int:
		return t, nil
	case int:
		return big.NewInt(int64(t)), nil
	case int64:
		return big.NewInt(t), nil
	case float64:
		if t != math.Trunc(t) || math.Abs(t) > math.MaxInt64 {
			return nil, fmt.Errorf("%v is not an integer", t)
		}
		return big.NewInt(int64(t)), nil
	case json.Number:
		return toBigInt(t.String())
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(t), 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", t)
		}
		return n, nil
	}
	return nil, fmt.Errorf("want integer, got %T", v)
}

func toAddress(v any) (common.Address, error) {
	switch t := v.(type) {
	case common.Address:
		return t, nil
	case string:
		if !common.IsHexAddress(strings.TrimSpace(t)) {
			return common.Address{}, fmt.Errorf("%q is not an address", t)
		}
		return common.HexToAddress(strings.TrimSpace(t)), nil
	}
	return common.Address{}, fmt.Errorf("want address, got %T", v)
}

func toBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case handle.Handle:
		return t[:], nil
	case [32]byte:
		return t[:], nil
	case common.Hash:
		return t[:], nil
	case []byte:
		return t, nil
	case hexutil.Bytes:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %w", t, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("want bytes, got %T", v)
}
