package main

import (
	"semgraph/internal/cli"
)

func main() {
	cli.Execute()
}
