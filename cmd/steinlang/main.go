// Command steinlang is the diagnostic entrypoint for the steinlang
// evaluator: it loads a serialized Program blob and runs it to completion,
// printing output and an allocator summary. Its flag/error-handling shape
// follows funvibe-funxy's cmd/funxy/main.go — fmt.Fprintf(os.Stderr, ...)
// plus os.Exit(1) on failure, no flag package — scaled down to the one
// thing this binary actually does.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/funvibe/steinlang/internal/cli"
	"github.com/funvibe/steinlang/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: steinlang [-config path.yaml] <program.bin>\n")
}

func main() {
	args := os.Args[1:]

	var configPath string
	if len(args) >= 2 && args[0] == "-config" {
		configPath = args[1]
		args = args[2:]
	}

	if len(args) != 1 {
		usage()
		os.Exit(1)
	}

	cfg := config.DefaultStorageConfig()
	if configPath != "" {
		loaded, err := config.LoadStorageConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "steinlang: %s\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	result, err := cli.Run(context.Background(), args[0], cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "steinlang: %s\n", err)
		os.Exit(1)
	}

	cli.Print(os.Stdout, result)
}
