package main

import (
	"os"

	"github.com/goliatone/go-formdesigner/internal/cli"
)

func main() {
	os.Exit(cli.Execute(nil))
}
