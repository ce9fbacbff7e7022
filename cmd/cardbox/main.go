// Package main provides the cardbox CLI entry point.
package main

import "github.com/cardboxapp/cardbox/internal/cli"

func main() {
	cli.Execute()
}
