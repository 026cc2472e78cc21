package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
)

const (
	keyURLPath        = "/v1/keyurl"
	encryptPath       = "/v1/encrypt"
	publicDecryptPath = "/v1/public-decrypt"

	maxErrorBody = 512
)

// ErrMalformedResponse is returned when the relayer answers with something
// that cannot be interpreted.
var ErrMalformedResponse = errors.New("malformed relayer response")

// Client is an HTTP client for the relayer.
type Client struct {
	baseURL string
	client  *http.Client

	initMu sync.Mutex
	ready  bool
}

// NewClient creates a new relayer client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Init checks that the relayer is reachable and serves key material. A
// success is remembered; a failure is not, so the next call tries again.
func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.ready {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+keyURLPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build relayer request: %w", err)
	}
	resp, err := c.do(req, "keyurl")
	if err != nil {
		return err
	}
	resp.Body.Close()
	c.ready = true
	return nil
}

// CreateEncryptedInput starts a batch of plaintexts for contract/user.
func (c *Client) CreateEncryptedInput(contract, user common.Address) *Input {
	return NewInput(c, contract, user)
}

type encryptResponse struct {
	Handles    []json.RawMessage `json:"handles"`
	InputProof json.RawMessage   `json:"inputProof"`
}

// EncryptInput implements Encryptor.
func (c *Client) EncryptInput(ctx context.Context, in *EncryptRequest) (*Encrypted, error) {
	var wire encryptResponse
	if err := c.postJSON(ctx, encryptPath, "encrypt", in, &wire); err != nil {
		return nil, err
	}
	return decodeEncrypted(&wire)
}

func decodeEncrypted(wire *encryptResponse) (*Encrypted, error) {
	if len(wire.Handles) == 0 {
		return nil, fmt.Errorf("%w: no handles", ErrMalformedResponse)
	}
	out := &Encrypted{Handles: make([]handle.Handle, len(wire.Handles))}
	for i, raw := range wire.Handles {
		h, err := handle.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: handle #%d: %v", ErrMalformedResponse, i, err)
		}
		out.Handles[i] = h
	}
	proof, err := handle.NormalizeProof(wire.InputProof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out.InputProof = proof
	return out, nil
}

type publicDecryptRequest struct {
	CiphertextHandles []string `json:"ciphertextHandles"`
}

// PublicDecrypt asks the relayer for the plaintexts of handles that were
// marked publicly decryptable on chain.
func (c *Client) PublicDecrypt(ctx context.Context, handles []handle.Handle) (*DecryptResult, error) {
	if len(handles) == 0 {
		return nil, errors.New("no handles to decrypt")
	}
	req := publicDecryptRequest{CiphertextHandles: make([]string, len(handles))}
	for i, h := range handles {
		req.CiphertextHandles[i] = h.Hex()
	}

	var raw json.RawMessage
	if err := c.postJSON(ctx, publicDecryptPath, "public_decrypt", &req, &raw); err != nil {
		return nil, err
	}
	return ParseDecryptResponse(raw)
}

func (c *Client) postJSON(ctx context.Context, path, op string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build relayer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, op)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", strings.ReplaceAll(op, "_", " "), err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// do executes req and returns the response only for 200 OK.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ObserveRelayer(op, time.Since(start), err == nil && resp.StatusCode == http.StatusOK)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("relayer status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
