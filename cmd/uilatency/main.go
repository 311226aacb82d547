package main

import (
	"os"

	"github.com/armadaproject/uilatency/cmd/uilatency/cmd"
	"github.com/armadaproject/uilatency/internal/common/logging"
)

func main() {
	logging.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
