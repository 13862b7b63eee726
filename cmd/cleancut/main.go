package main

import "github.com/forPelevin/cleancut/internal/cli"

func main() {
	cli.Main()
}
