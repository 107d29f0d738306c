// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/clai-dev/clai/cmd/clai"

func main() {
	cmd.Execute()
}
