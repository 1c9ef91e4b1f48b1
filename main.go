package main

import (
	"os"

	"github.com/modfetch/modfetch/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
