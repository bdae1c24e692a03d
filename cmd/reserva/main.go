package main

import (
	"os"

	"github.com/example/reserva/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
