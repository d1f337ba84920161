// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cgfixture writes a corpus of sparse symmetric linear-system fixtures
// with reference conjugate gradient solutions.
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
	code := cli.Generate(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}
