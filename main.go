package main

import "github.com/agentic-research/wp2shopify/cmd"

func main() {
	cmd.Execute()
}
