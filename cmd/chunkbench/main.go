// cmd/chunkbench/main.go
package main

import (
	cmd "github.com/benchkit/chunkbench/internal/commands"
)

// main starts the chunkbench CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
