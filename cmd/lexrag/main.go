package main

import "lexrag/internal/cli"

func main() {
	cli.Execute()
}
