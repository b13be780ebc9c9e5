package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethergate/headerdb/internal/flags"
)

const clientIdentifier = "headerdb"

var app = flags.NewApp("the headerdb command line interface")

func init() {
	app.Name = clientIdentifier
	app.Action = serveCommand.Action
	app.Commands = []*cli.Command{
		insertCommand,
		headCommand,
		queryCommand,
		serveCommand,
		memsizeCommand,
	}
	app.Flags = append(app.Flags, configFileFlag, dataDirFlag, logVerbosityFlag, logFileFlag)
	app.Before = initLogging
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
