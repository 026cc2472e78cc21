package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ParseABI builds an ABI from human-readable signatures such as
//
//	function submitGuess(bytes32,bytes) external returns (bytes32)
//	function resultHandle(address player) external view returns (bytes32)
//	event ProfilePublished(uint256 indexed id, address indexed owner)
//
// Tuples and overloaded names are not supported.
func ParseABI(signatures []string) (abi.ABI, error) {
	parsed := abi.ABI{
		Methods: make(map[string]abi.Method),
		Events:  make(map[string]abi.Event),
	}
	for _, sig := range signatures {
		if err := parseSignature(&parsed, sig); err != nil {
			return abi.ABI{}, fmt.Errorf("%q: %w", sig, err)
		}
	}
	return parsed, nil
}

func parseSignature(parsed *abi.ABI, sig string) error {
	sig = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sig), ";"))
	kind, rest, ok := strings.Cut(sig, " ")
	if !ok {
		return fmt.Errorf("missing declaration keyword")
	}
	name, params, tail, err := splitCall(rest)
	if err != nil {
		return err
	}

	switch kind {
	case "function":
		if _, dup := parsed.Methods[name]; dup {
			return fmt.Errorf("duplicate function %s", name)
		}
		inputs, err := parseParams(params, false)
		if err != nil {
			return err
		}
		mutability, outputs, err := parseFunctionTail(tail)
		if err != nil {
			return err
		}
		isConst := mutability == "view" || mutability == "pure"
		parsed.Methods[name] = abi.NewMethod(name, name, abi.Function, mutability, isConst, mutability == "payable", inputs, outputs)
	case "event":
		if _, dup := parsed.Events[name]; dup {
			return fmt.Errorf("duplicate event %s", name)
		}
		inputs, err := parseParams(params, true)
		if err != nil {
			return err
		}
		anonymous := strings.TrimSpace(tail) == "anonymous"
		parsed.Events[name] = abi.NewEvent(name, name, anonymous, inputs)
	default:
		return fmt.Errorf("unsupported declaration %q", kind)
	}
	return nil
}

// splitCall splits "name(params) tail".
func splitCall(s string) (name, params, tail string, err error) {
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return "", "", "", fmt.Errorf("missing parameter list")
	}
	closing := strings.IndexByte(s[open:], ')')
	if closing < 0 {
		return "", "", "", fmt.Errorf("unterminated parameter list")
	}
	closing += open
	name = strings.TrimSpace(s[:open])
	params = s[open+1 : closing]
	if strings.ContainsRune(params, '(') {
		return "", "", "", fmt.Errorf("tuple parameters are not supported")
	}
	return name, params, strings.TrimSpace(s[closing+1:]), nil
}

func parseFunctionTail(tail string) (string, abi.Arguments, error) {
	mutability := "nonpayable"
	var outputs abi.Arguments

	modifiers, returns, hasReturns := strings.Cut(tail, "returns")
	for _, m := range strings.Fields(modifiers) {
		switch m {
		case "view", "pure", "payable", "nonpayable":
			mutability = m
		case "external", "public", "virtual", "override":
		default:
			return "", nil, fmt.Errorf("unknown modifier %q", m)
		}
	}
	if hasReturns {
		returns = strings.TrimSpace(returns)
		if !strings.HasPrefix(returns, "(") || !strings.HasSuffix(returns, ")") {
			return "", nil, fmt.Errorf("malformed returns clause")
		}
		var err error
		outputs, err = parseParams(returns[1:len(returns)-1], false)
		if err != nil {
			return "", nil, err
		}
	}
	return mutability, outputs, nil
}

func parseParams(list string, event bool) (abi.Arguments, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return abi.Arguments{}, nil
	}
	var args abi.Arguments
	for i, p := range strings.Split(list, ",") {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty parameter #%d", i)
		}
		typ, err := abi.NewType(canonicalType(fields[0]), "", nil)
		if err != nil {
			return nil, fmt.Errorf("parameter #%d: %w", i, err)
		}
		arg := abi.Argument{Type: typ}
		for _, f := range fields[1:] {
			switch f {
			case "indexed":
				if !event {
					return nil, fmt.Errorf("parameter #%d: indexed outside event", i)
				}
				arg.Indexed = true
			case "memory", "calldata", "storage", "payable":
			default:
				arg.Name = f
			}
		}
		if arg.Name == "" && event {
			arg.Name = fmt.Sprintf("arg%d", i)
		}
		args = append(args, arg)
	}
	return args, nil
}

// canonicalType expands the uint/int aliases solc accepts.
func canonicalType(t string) string {
	switch {
	case t == "uint" || strings.HasPrefix(t, "uint["):
		return "uint256" + t[4:]
	case t == "int" || strings.HasPrefix(t, "int["):
		return "int256" + t[3:]
	}
	return t
}
