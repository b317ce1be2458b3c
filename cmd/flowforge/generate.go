package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/insight"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/patterns"
	"github.com/flowforge/flowforge/pkg/services"
	"github.com/flowforge/flowforge/pkg/validation"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"g"},
		Usage:     "Generate a workflow graph from a goal phrase",
		ArgsUsage: "<goal>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "Validation profile (default, strict)",
				Value:   "default",
				Sources: cli.EnvVars("VALIDATION_PROFILE"),
			},
			&cli.StringFlag{
				Name:    "insight-url",
				Usage:   "Graph insight service URL, empty to generate without insights",
				Sources: cli.EnvVars("INSIGHT_URL"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the graph JSON to a file instead of stdout",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			goal := command.Args().First()
			if goal == "" {
				return fmt.Errorf("usage: flowforge generate <goal>")
			}

			var insightClient insight.Client
			if insightURL := command.String("insight-url"); insightURL != "" {
				insightClient = insight.NewHTTPClient(insightURL)
			}

			cat := catalog.NewDefaultStatic()
			generation := services.NewGeneration(
				patterns.NewDefaultMatcher(),
				generator.New(cat, nil),
				validation.New(cat),
				insightClient,
				ledger.NewMemory(0, nil),
				nil,
				nil,
			)

			response, err := generation.Generate(ctx, services.GenerateRequest{
				Goal:    goal,
				Profile: validation.Profile(command.String("profile")),
			})
			if err != nil {
				return err
			}

			return writeJSON(command.String("output"), response)
		},
	}
}

// writeJSON renders v as indented JSON to the given file, or stdout when the
// path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if path == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))

		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}
