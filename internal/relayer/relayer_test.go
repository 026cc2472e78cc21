package relayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/handle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const h1 = "0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

var (
	contractAddr = common.HexToAddress("0x488bA6625C8CE7Eb830105F97e98ECA4f64ee31B")
	userAddr     = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func TestParseType(t *testing.T) {
	require := require.New(t)
	for in, want := range map[string]Type{
		"euint16": TypeUint16,
		"uint8":   TypeUint8,
		"64":      TypeUint64,
		"bool":    TypeBool,
		"EBOOL":   TypeBool,
		"address": TypeAddress,
	} {
		got, err := ParseType(in)
		require.NoError(err, in)
		require.Equal(want, got, in)
	}
	_, err := ParseType("euint12")
	require.Error(err)
}

func TestNewValueRange(t *testing.T) {
	require := require.New(t)

	v, err := NewValue(TypeUint16, "65535")
	require.NoError(err)
	require.Equal("65535", v.Value)

	_, err = NewValue(TypeUint16, "65536")
	require.ErrorIs(err, ErrOutOfRange)

	_, err = NewValue(TypeUint8, "-1")
	require.ErrorIs(err, ErrOutOfRange)

	_, err = NewValue(TypeUint4, "16")
	require.ErrorIs(err, ErrOutOfRange)

	v, err = NewValue(TypeUint8, "0xff")
	require.NoError(err)
	require.Equal("255", v.Value)

	v, err = NewValue(TypeBool, "1")
	require.NoError(err)
	require.Equal("true", v.Value)

	_, err = NewValue(TypeBool, "2")
	require.ErrorIs(err, ErrOutOfRange)

	v, err = NewValue(TypeAddress, strings.ToLower(contractAddr.Hex()))
	require.NoError(err)
	require.Equal(contractAddr.Hex(), v.Value)
}

type fakeEncryptor struct {
	calls int
	req   *EncryptRequest
	out   *Encrypted
}

func (f *fakeEncryptor) EncryptInput(_ context.Context, req *EncryptRequest) (*Encrypted, error) {
	f.calls++
	f.req = req
	return f.out, nil
}

func TestInputStopsAtFirstBadValue(t *testing.T) {
	enc := &fakeEncryptor{}
	_, err := NewInput(enc, contractAddr, userAddr).Add16(7).Add(TypeUint8, "300").AddBool(true).Encrypt(context.Background())
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Zero(t, enc.calls)
}

func TestInputHandleCountMismatch(t *testing.T) {
	h, _ := handle.Parse(h1)
	enc := &fakeEncryptor{out: &Encrypted{Handles: []handle.Handle{h}, InputProof: []byte{1}}}
	_, err := NewInput(enc, contractAddr, userAddr).Add16(7).Add8(1).Encrypt(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.Len(t, enc.req.Values, 2)
}

func TestClientEncrypt(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(encryptPath, r.URL.Path)
		require.Equal(http.MethodPost, r.Method)

		var req EncryptRequest
		require.NoError(json.NewDecoder(r.Body).Decode(&req))
		require.Equal(contractAddr, req.ContractAddress)
		require.Equal(userAddr, req.UserAddress)
		require.Equal([]Value{{Type: TypeUint16, Value: "7"}, {Type: TypeBool, Value: "false"}}, req.Values)

		// first handle as a hex string, second as a byte array wrapper
		raw := make([]int, 32)
		raw[31] = 9
		json.NewEncoder(w).Encode(map[string]any{
			"handles":    []any{h1, map[string]any{"handle": raw}},
			"inputProof": "beef",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second)
	out, err := c.CreateEncryptedInput(contractAddr, userAddr).Add16(7).AddBool(false).Encrypt(context.Background())
	require.NoError(err)
	require.Len(out.Handles, 2)
	require.Equal(h1, out.Handles[0].Hex())
	require.Equal("0x"+strings.Repeat("00", 31)+"09", out.Handles[1].Hex())
	require.Equal("0xbeef", out.InputProof.String())
}

func TestClientInitOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, keyURLPath, r.URL.Path)
		w.Write([]byte(`{"response":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	require.NoError(t, c.Init(context.Background()))
	require.NoError(t, c.Init(context.Background()))
	require.EqualValues(t, 1, hits.Load())
}

func TestClientInitRetriesAfterFailure(t *testing.T) {
	require := require.New(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"response":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Init(context.Background())
	require.ErrorContains(err, "status 503")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(c.Init(ctx))

	require.NoError(c.Init(context.Background()))
	require.NoError(c.Init(context.Background()))
	require.EqualValues(2, hits.Load())
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "handle not allowed for public decryption", http.StatusBadRequest)
	}))
	defer srv.Close()

	h, _ := handle.Parse(h1)
	_, err := NewClient(srv.URL, time.Second).PublicDecrypt(context.Background(), []handle.Handle{h})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")
	require.Contains(t, err.Error(), "not allowed")
}

func TestPublicDecryptKeyCasing(t *testing.T) {
	upper := "0x" + strings.ToUpper(h1[2:])
	h, _ := handle.Parse(h1)

	for name, key := range map[string]string{"lower": h1, "upper": upper} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req publicDecryptRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Equal(t, []string{h1}, req.CiphertextHandles)
				json.NewEncoder(w).Encode(map[string]any{"clearValues": map[string]any{key: "2"}})
			}))
			defer srv.Close()

			res, err := NewClient(srv.URL, time.Second).PublicDecrypt(context.Background(), []handle.Handle{h})
			require.NoError(t, err)
			v, err := res.Value(h)
			require.NoError(t, err)
			require.EqualValues(t, 2, v.Uint64())
		})
	}
}

func TestDecryptResultLookup(t *testing.T) {
	require := require.New(t)

	mixed := "0xAbCd" + h1[6:]
	res, err := ParseDecryptResponse([]byte(`{"clearValues":{"` + strings.ToLower(mixed) + `":"1"}}`))
	require.NoError(err)

	// exact key missing, lower-case key present
	v, err := res.ValueFor(mixed)
	require.NoError(err)
	require.EqualValues(1, v.Uint64())

	_, err = res.ValueFor("0x" + strings.Repeat("ff", 32))
	require.ErrorIs(err, ErrNoValue)
}

func TestParseDecryptResponse(t *testing.T) {
	require := require.New(t)

	res, err := ParseDecryptResponse([]byte(`{"response":{"clearValues":{"` + h1 + `":true}}}`))
	require.NoError(err)
	v, err := res.ValueFor(h1)
	require.NoError(err)
	require.EqualValues(1, v.Uint64())

	_, err = ParseDecryptResponse([]byte(`{}`))
	require.ErrorIs(err, ErrMalformedResponse)

	_, err = ParseDecryptResponse([]byte(`[1,2]`))
	require.ErrorIs(err, ErrMalformedResponse)
}

func TestParseClearValue(t *testing.T) {
	require := require.New(t)
	for raw, want := range map[string]uint64{
		`"2"`:    2,
		`3`:      3,
		`"0x0a"`: 10,
		`false`:  0,
		`"true"`: 1,
		`"42n"`:  42,
		`"0x00"`: 0,
	} {
		v, err := ParseClearValue(json.RawMessage(raw))
		require.NoError(err, raw)
		require.Equal(want, v.Uint64(), raw)
	}

	_, err := ParseClearValue(json.RawMessage(`{"a":1}`))
	require.ErrorIs(err, ErrMalformedResponse)
	_, err = ParseClearValue(json.RawMessage(`"-1"`))
	require.ErrorIs(err, ErrMalformedResponse)
}
