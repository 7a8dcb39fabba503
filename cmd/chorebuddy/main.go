package main

import (
	"os"

	"chorebuddy/cmd/chorebuddy/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
