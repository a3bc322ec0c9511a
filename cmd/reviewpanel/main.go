/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command reviewpanel runs a panel of AI reviewers over a file or the staged
// changes, explains GitHub pull requests and suggests commit messages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:]))
}
