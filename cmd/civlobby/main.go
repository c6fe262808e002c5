package main

import "github.com/mcoot/civlobby/internal/cli"

func main() {
	cli.Execute()
}
