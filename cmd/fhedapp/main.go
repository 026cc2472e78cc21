package main

import (
	"fmt"
	"os"
)

// fhedapp - CLI and API server for confidential dApps: encrypt inputs via
// the relayer, submit them on-chain and publicly decrypt the results
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
