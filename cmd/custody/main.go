package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			// Interrupted runs exit like a signal kill would.
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "custody: %v\n", err)
		os.Exit(1)
	}
}
