package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/units"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetPasswordBytes()
type Config struct {
	// Proxy / HTTP server
	Port            string   `envconfig:"PORT" default:"3000"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	RelayerUpstream string   `envconfig:"RELAYER_UPSTREAM" default:"https://relayer.testnet.zama.org"`
	GatewayUpstream string   `envconfig:"GATEWAY_UPSTREAM" default:"https://gateway.testnet.zama.org"`
	StaticDir       string   `envconfig:"STATIC_DIR"`
	CORSOrigins     []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Chain
	RPCURL         string        `envconfig:"RPC_URL" default:"https://ethereum-sepolia-rpc.publicnode.com"`
	ChainID        int64         `envconfig:"CHAIN_ID" default:"11155111"`
	ReceiptTimeout time.Duration `envconfig:"RECEIPT_TIMEOUT" default:"3m"`

	// Relayer client
	RelayerURL     string        `envconfig:"RELAYER_URL" default:"https://relayer.testnet.zama.org"`
	RelayerTimeout time.Duration `envconfig:"RELAYER_TIMEOUT" default:"60s"`

	// Local files
	KeystorePath string `envconfig:"KEYSTORE_PATH" default:"wallet.cwt"`
	MinBalance   string `envconfig:"MIN_BALANCE" default:"0.001"` // ETH, checked by serve
	DappsFile    string `envconfig:"DAPPS_FILE"`
	StorePath    string `envconfig:"STORE_PATH" default:"fhedapp.db"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("invalid CHAIN_ID: %d", c.ChainID)
	}
	if _, err := units.EtherToWei(c.MinBalance); err != nil {
		return fmt.Errorf("invalid MIN_BALANCE %q: %w", c.MinBalance, err)
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// ListenAddr returns HOST:PORT for the HTTP server
func ListenAddr() string {
	return Get().Host + ":" + Get().Port
}

// GetKeystorePath returns path to .cwt keystore from configuration
func GetKeystorePath() string {
	return Get().KeystorePath
}

// GetRPCURL returns the Ethereum JSON-RPC URL from configuration
func GetRPCURL() string {
	return Get().RPCURL
}

// GetChainID returns the chain id transactions are signed for
func GetChainID() int64 {
	return Get().ChainID
}

var passwordBytes []byte

// PromptForPassword prompts the user for the wallet password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword(prompt string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	defer clear(raw)
	return SetPassword(raw)
}

// SetPassword stores a copy of password in memory.
func SetPassword(password []byte) error {
	if len(password) == 0 {
		return errors.New("password cannot be empty")
	}
	clear(passwordBytes)
	passwordBytes = make([]byte, len(password))
	copy(passwordBytes, password)
	return nil
}

// GetPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ClearPassword wipes the in-memory password.
func ClearPassword() {
	clear(passwordBytes)
	passwordBytes = nil
}
