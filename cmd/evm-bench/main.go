package main

import (
	"github.com/onflow/evm-bench/cmd/evm-bench/cmd"
)

func main() {
	cmd.Execute()
}
