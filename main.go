// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/odsdir/odssync/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
