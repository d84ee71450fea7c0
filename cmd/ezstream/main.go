package main

import (
	"os"

	"ezstream/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
