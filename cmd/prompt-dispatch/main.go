/*
Package main is the entry point for the prompt-dispatch CLI.

prompt-dispatch maps natural-language prompts to automation functions by
embedding similarity, runs the match and returns a script that calls it.

Usage:
  prompt-dispatch [command]

Available Commands:
  serve       Start the HTTP dispatch API
  mcp         Start the MCP server (stdio transport)
  functions   List the functions prompts can dispatch to
  resolve     Show which function a prompt resolves to
  index       Build the embedding index and list stored embeddings
  benchmark   Measure prompt resolution accuracy and latency
  stats       Summarize recorded dispatches per function
  version     Show version information

Examples:
  # Serve POST /execute on 127.0.0.1:8000
  prompt-dispatch serve

  # Check what a prompt maps to
  prompt-dispatch resolve "how busy is the processor"
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/prompt-dispatch/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
