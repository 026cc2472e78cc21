package dapp

import (
	"fmt"
	"strings"

	"github.com/AlexZinkM/fhe-dapps/internal/handle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Argument tokens understood in catalog args.
const (
	tokenSender  = "$sender"
	tokenProof   = "$proof"
	prefixHandle = "$handle."
	prefixParam  = "$param."
)

// tokenScope is what a call's tokens may refer to.
type tokenScope struct {
	params map[string]bool
	inputs map[string]bool
	proof  bool
}

// plain drops the encrypted inputs, for calls made before encryption.
func (s tokenScope) plain() tokenScope {
	return tokenScope{params: s.params}
}

func (s tokenScope) check(tok string) error {
	switch {
	case !strings.HasPrefix(tok, "$"), tok == tokenSender:
		return nil
	case tok == tokenProof:
		if !s.proof {
			return fmt.Errorf("%s used without encrypted inputs", tok)
		}
		return nil
	case strings.HasPrefix(tok, prefixHandle):
		if !s.inputs[strings.TrimPrefix(tok, prefixHandle)] {
			return fmt.Errorf("%s refers to an unknown input", tok)
		}
		return nil
	case strings.HasPrefix(tok, prefixParam):
		if !s.params[strings.TrimPrefix(tok, prefixParam)] {
			return fmt.Errorf("%s refers to an unknown param", tok)
		}
		return nil
	}
	return fmt.Errorf("unknown token %q", tok)
}

// argEnv holds the values tokens resolve to for one call.
type argEnv struct {
	sender  func() (common.Address, error)
	proof   hexutil.Bytes
	handles map[string]handle.Handle
	params  map[string]string
}

func (e *argEnv) resolve(tokens []string) ([]any, error) {
	out := make([]any, len(tokens))
	for i, tok := range tokens {
		switch {
		case tok == tokenSender:
			addr, err := e.sender()
			if err != nil {
				return nil, err
			}
			out[i] = addr
		case tok == tokenProof:
			out[i] = e.proof
		case strings.HasPrefix(tok, prefixHandle):
			h, ok := e.handles[strings.TrimPrefix(tok, prefixHandle)]
			if !ok {
				return nil, fmt.Errorf("no handle for %s", tok)
			}
			out[i] = h
		case strings.HasPrefix(tok, prefixParam):
			name := strings.TrimPrefix(tok, prefixParam)
			v, ok := e.params[name]
			if !ok {
				return nil, fmt.Errorf("%w: missing param %q", ErrInvalidInput, name)
			}
			out[i] = v
		default:
			out[i] = tok
		}
	}
	return out, nil
}
