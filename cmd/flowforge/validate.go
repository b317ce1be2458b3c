package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/validation"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a workflow graph file",
		ArgsUsage: "<graph-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Validation profile (default, strict)",
				Value: "strict",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			graphPath := command.Args().First()
			if graphPath == "" {
				return fmt.Errorf("usage: flowforge validate <graph-file>")
			}

			data, err := os.ReadFile(graphPath)
			if err != nil {
				return fmt.Errorf("read graph file: %w", err)
			}

			var graph models.WorkflowGraph
			if err := json.Unmarshal(data, &graph); err != nil {
				return fmt.Errorf("parse graph file: %w", err)
			}

			result := validation.New(catalog.NewDefaultStatic()).Validate(ctx, &graph, validation.Options{
				Profile: validation.Profile(command.String("profile")),
			})

			if err := writeJSON("", result); err != nil {
				return err
			}

			if !result.Valid {
				return fmt.Errorf("graph is invalid: %d error(s)", len(result.Errors))
			}

			return nil
		},
	}
}
