package handler

import (
	"errors"
	"net/http"

	"github.com/AlexZinkM/fhe-dapps/internal/model"
	"github.com/AlexZinkM/fhe-dapps/internal/units"
	"github.com/AlexZinkM/fhe-dapps/wallet"
)

// WalletHandler holds configuration for wallet operations
type WalletHandler struct {
	filePath string
	chainID  int64
	node     wallet.BalanceReader
	password wallet.PasswordFunc
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(filePath string, chainID int64, node wallet.BalanceReader, password wallet.PasswordFunc) (*WalletHandler, error) {
	if filePath == "" {
		return nil, errors.New("KEYSTORE_PATH not set")
	}
	return &WalletHandler{
		filePath: filePath,
		chainID:  chainID,
		node:     node,
		password: password,
	}, nil
}

// Generate handles POST /api/wallet/generate
// @Summary      Generate new wallet
// @Description  Generates a new secp256k1 key and saves it to the encrypted .cwt keystore
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /api/wallet/generate [post]
func (h *WalletHandler) Generate(w http.ResponseWriter, r *http.Request) {
	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := h.password()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	defer clear(passwordBytes) // Always clear password from memory

	address, err := wallet.GenerateWallet(h.filePath, h.chainID, passwordBytes)
	if err != nil {
		if wallet.IsFileExistsError(err) {
			writeJSON(w, http.StatusConflict, model.ErrorResponse{Error: err.Error(), Code: "wallet_exists"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success:  true,
		Message:  "Wallet generated successfully",
		Address:  address,
		ChainID:  h.chainID,
		Keystore: h.filePath,
	})
}

// Get handles GET /api/wallet
// @Summary      Get wallet
// @Description  Returns the wallet address, chain, native balance and address QR code
// @Tags         wallet
// @Produce      json
// @Param        unit  query     string  false  "ether (default), gwei or wei"
// @Success      200   {object}  model.WalletResponse
// @Failure      400   {object}  model.ErrorResponse
// @Failure      404   {object}  model.ErrorResponse
// @Router       /api/wallet [get]
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	unit, err := units.ParseUnit(r.URL.Query().Get("unit"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	balance, err := wallet.GetBalance(r.Context(), h.node, h.filePath, unit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}
