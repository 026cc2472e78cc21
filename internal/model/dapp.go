package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Params are named input values. JSON strings, numbers and booleans are
// accepted and kept in their textual form.
type Params map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			out[k] = fmt.Sprint(t)
		default:
			return fmt.Errorf("param %q must be a string, number or bool", k)
		}
	}
	*p = out
	return nil
}

// DappSummary represents one entry of GET /api/dapps
type DappSummary struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address"`
	Actions     []string `json:"actions"`
	Results     []string `json:"results"`
}

// ActionRequest represents request for POST /api/dapps/{slug}/actions/{action}
type ActionRequest struct {
	Params Params `json:"params"`
}

// ResultRequest represents request for POST .../results/{result}/public
type ResultRequest struct {
	Params Params `json:"params"`
}

// DecryptRequest represents request for POST .../results/{result}/decrypt
type DecryptRequest struct {
	Params     Params `json:"params"`
	Handle     string `json:"handle,omitempty"`
	MakePublic bool   `json:"makePublic,omitempty"`
}

// BatchDecryptRequest represents request for POST /api/dapps/{slug}/decrypt
type BatchDecryptRequest struct {
	Results    []string `json:"results"`
	Params     Params   `json:"params"`
	MakePublic bool     `json:"makePublic,omitempty"`
}

// HandleResponse represents response for GET .../results/{result}/handle
type HandleResponse struct {
	Dapp   string `json:"dapp"`
	Result string `json:"result"`
	Handle string `json:"handle"`
}

// RawDecryptRequest represents request for POST /api/decrypt
type RawDecryptRequest struct {
	Handle string `json:"handle"`
}

// RawDecryptResponse represents response for POST /api/decrypt
type RawDecryptResponse struct {
	Handle string `json:"handle"`
	Value  string `json:"value"`
}
