// Package main provides the FlowForge command-line tool.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowforge/flowforge/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "flowforge",
		Usage:                 "Generate, edit and validate workflow graphs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
			editCommand(),
			validateCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("flowforge failed", "error", err)
		os.Exit(1)
	}
}
