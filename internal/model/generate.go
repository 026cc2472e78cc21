package model

// GenerateResponse represents response for POST /api/wallet/generate
type GenerateResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Address  string `json:"address,omitempty"`
	ChainID  int64  `json:"chainId,omitempty"`
	Keystore string `json:"keystore,omitempty"`
}
