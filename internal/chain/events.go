package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrEventNotFound is returned when a receipt has no matching log.
var ErrEventNotFound = errors.New("event not found in receipt")

// EventArg finds the first log in receipt emitted by emitter whose topic
// matches event and returns the decoded argument arg. Indexed and data
// arguments are both supported.
func EventArg(receipt *types.Receipt, emitter common.Address, event abi.Event, arg string) (any, error) {
	if _, ok := argByName(event.Inputs, arg); !ok {
		return nil, fmt.Errorf("event %s has no argument %q", event.Name, arg)
	}
	for _, lg := range receipt.Logs {
		if lg.Address != emitter || len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
			continue
		}
		fields, err := DecodeLog(event, lg)
		if err != nil {
			return nil, err
		}
		return fields[arg], nil
	}
	return nil, fmt.Errorf("%s: %w", event.Name, ErrEventNotFound)
}

// DecodeLog decodes every argument of event from lg into a map keyed by
// argument name.
func DecodeLog(event abi.Event, lg *types.Log) (map[string]any, error) {
	fields := make(map[string]any, len(event.Inputs))
	if err := event.Inputs.UnpackIntoMap(fields, lg.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack %s data: %w", event.Name, err)
	}
	var indexed abi.Arguments
	for _, in := range event.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	topics := lg.Topics
	if !event.Anonymous {
		topics = topics[1:]
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, topics); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", event.Name, err)
	}
	return fields, nil
}

func argByName(args abi.Arguments, name string) (abi.Argument, bool) {
	for _, a := range args {
		if a.Name == name {
			return a, true
		}
	}
	return abi.Argument{}, false
}
