package model

// KeystoreFile represents .cwt file structure
type KeystoreFile struct {
	Network    string `json:"network"`
	ChainID    int64  `json:"chainId,omitempty"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted wallet data
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // 32 bytes secp256k1 scalar (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// WalletResponse represents response for GET /api/wallet
type WalletResponse struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
	Balance string `json:"balance"`
	Unit    string `json:"unit"`
	QR      string `json:"QR,omitempty"`
}
