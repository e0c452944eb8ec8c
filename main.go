// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/dockerino/dockerino/cmd/dockerino"

func main() {
	cmd.Execute()
}
