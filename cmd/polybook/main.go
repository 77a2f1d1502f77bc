// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"github.com/bpowers/polybook/cmd/polybook/cmd"
)

func main() {
	cmd.Execute()
}
