package main

import (
	"os"

	"github.com/diffguard/diffguard/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
