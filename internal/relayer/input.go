package relayer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/AlexZinkM/fhe-dapps/internal/handle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Encryptor turns queued plaintexts into ciphertext handles plus the proof
// the contract uses to check them.
type Encryptor interface {
	EncryptInput(ctx context.Context, req *EncryptRequest) (*Encrypted, error)
}

// EncryptRequest binds a batch of plaintexts to a contract and a sender.
type EncryptRequest struct {
	ContractAddress common.Address `json:"contractAddress"`
	UserAddress     common.Address `json:"userAddress"`
	Values          []Value        `json:"values"`
}

// Encrypted is the normalized result of an encryption: one handle per
// queued value, in order, and the shared input proof.
type Encrypted struct {
	Handles    []handle.Handle
	InputProof hexutil.Bytes
}

// Input accumulates plaintexts for one encryption request.
// The first invalid value sticks and is reported by Encrypt.
type Input struct {
	enc Encryptor
	req EncryptRequest
	err error
}

// NewInput creates an empty batch for contract/user.
func NewInput(enc Encryptor, contract, user common.Address) *Input {
	return &Input{
		enc: enc,
		req: EncryptRequest{ContractAddress: contract, UserAddress: user},
	}
}

// Add queues raw as a value of type t.
func (in *Input) Add(t Type, raw string) *Input {
	if in.err != nil {
		return in
	}
	v, err := NewValue(t, raw)
	if err != nil {
		in.err = fmt.Errorf("value #%d: %w", len(in.req.Values), err)
		return in
	}
	in.req.Values = append(in.req.Values, v)
	return in
}

func (in *Input) AddBool(b bool) *Input {
	return in.Add(TypeBool, strconv.FormatBool(b))
}

func (in *Input) Add4(v uint8) *Input {
	return in.Add(TypeUint4, strconv.FormatUint(uint64(v), 10))
}

func (in *Input) Add8(v uint8) *Input {
	return in.Add(TypeUint8, strconv.FormatUint(uint64(v), 10))
}

func (in *Input) Add16(v uint16) *Input {
	return in.Add(TypeUint16, strconv.FormatUint(uint64(v), 10))
}

func (in *Input) Add32(v uint32) *Input {
	return in.Add(TypeUint32, strconv.FormatUint(uint64(v), 10))
}

func (in *Input) Add64(v uint64) *Input {
	return in.Add(TypeUint64, strconv.FormatUint(v, 10))
}

func (in *Input) Add128(v *uint256.Int) *Input {
	return in.Add(TypeUint128, v.Dec())
}

func (in *Input) Add256(v *uint256.Int) *Input {
	return in.Add(TypeUint256, v.Dec())
}

func (in *Input) AddAddress(a common.Address) *Input {
	return in.Add(TypeAddress, a.Hex())
}

// Len returns the number of queued values.
func (in *Input) Len() int {
	return len(in.req.Values)
}

// Encrypt sends the batch to the encryptor. The returned handle count always
// matches the number of queued values.
func (in *Input) Encrypt(ctx context.Context) (*Encrypted, error) {
	if in.err != nil {
		return nil, in.err
	}
	if len(in.req.Values) == 0 {
		return nil, errors.New("nothing to encrypt")
	}
	out, err := in.enc.EncryptInput(ctx, &in.req)
	if err != nil {
		return nil, err
	}
	if len(out.Handles) != len(in.req.Values) {
		return nil, fmt.Errorf("%w: got %d handles for %d values", ErrMalformedResponse, len(out.Handles), len(in.req.Values))
	}
	return out, nil
}
