package main

import "github.com/treo/strawberry/internal/cli"

func main() {
	cli.Execute()
}
