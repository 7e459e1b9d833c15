package main

import (
	"github.com/parley-chat/parley/internal/cli"
)

func main() {
	cli.Execute()
}
