/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Command vcverify validates and verifies verifiable credentials without network access.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/trustbloc/vc-offline-verifier/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrNotVerified) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}

		os.Exit(1)
	}
}
