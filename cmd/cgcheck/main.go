// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cgcheck verifies fixture files: it parses and validates each one and
// checks the residual of its stored solution.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitwitch/sparse-linear-solver/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Check(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}
