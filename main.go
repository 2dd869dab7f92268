// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Main entrypoint for vidinfo application

package main

import (
	"fmt"
	"os"

	"github.com/evolution-gaming/vidinfo/internal/logging"
)

const usage = `vidinfo - video metadata extraction

Usage:

    vidinfo <command> [arguments] [-h|-help]

The commands are:

    info        print metadata of a single video source
    batch       print metadata of several video sources
    serve       answer getInfo/getBatch requests on stdin/stdout (JSON lines)
    dump-conf   output actual application configuration
    version     print vidinfo version and exit

Use "vidinfo <command> -h|-help" for more information about command.`

// commands returns all subcommands keyed by name.
func commands() map[string]Commander {
	cmds := map[string]Commander{}
	for _, c := range []Commander{
		CreateInfoCommand(),
		CreateBatchCommand(),
		CreateServeCommand(),
		CreateDumpConfCommand(),
	} {
		cmds[c.Name()] = c
	}
	// Short alias kept for convenience.
	cmds["dump"] = cmds["dump-conf"]
	return cmds
}

// root represents top level of vidinfo command, including dispatching to subcommands.
func root(args []string) error {
	if len(args) < 1 {
		fmt.Println(usage)
		return &AppError{msg: "please, specify command", exitCode: 2}
	}

	switch args[0] {
	case "version":
		printVersion(os.Stdout)
		return nil
	case "-h", "-help", "--help", "?":
		fmt.Println(usage)
		return &AppError{exitCode: 2}
	}

	if cmd, ok := commands()[args[0]]; ok {
		return cmd.Run(args[1:])
	}

	// No commands were matched at this point, so bail out with default usage message.
	fmt.Println(usage)
	return &AppError{
		msg:      "unknown command/flag",
		exitCode: 2,
	}
}

func main() {
	// Enable info logger by default and early enough.
	logging.EnableInfoLogger()

	if err := root(os.Args[1:]); err != nil {
		if err.Error() != "" {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		switch e := err.(type) {
		case *AppError:
			os.Exit(e.ExitCode())
		default:
			os.Exit(1)
		}
	}
	os.Exit(0)
}
