// Package main provides the wallet cli for thenewboston network.
package main

import "github.com/ardanlabs/tnb/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
