package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/cmd"
	"github.com/flowforge/flowforge/pkg/diff"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/services"
	"github.com/flowforge/flowforge/pkg/validation"
)

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Aliases:   []string{"e"},
		Usage:     "Apply an operations file to a stored workflow",
		ArgsUsage: "<workflow-id> <operations-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "Workflow store: a local directory or the engine's http(s) URL",
				Value:   "./data",
				Sources: cli.EnvVars("STORE_URL"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Run the diff without persisting the committed copy",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workflowID := command.Args().Get(0)
			operationsPath := command.Args().Get(1)

			if workflowID == "" || operationsPath == "" {
				return fmt.Errorf("usage: flowforge edit <workflow-id> <operations-file>")
			}

			data, err := os.ReadFile(operationsPath)
			if err != nil {
				return fmt.Errorf("read operations file: %w", err)
			}

			var operations []json.RawMessage
			if err := json.Unmarshal(data, &operations); err != nil {
				return fmt.Errorf("parse operations file: %w", err)
			}

			workflowStore, err := cmd.NewStore(command.String("store-url"))
			if err != nil {
				return err
			}
			defer workflowStore.Close(ctx)

			engine := diff.NewEngine(validation.New(catalog.NewDefaultStatic()), nil)
			edit := services.NewEdit(workflowStore, engine, ledger.NewMemory(0, nil), nil, nil)

			result, err := edit.Apply(ctx, services.EditRequest{
				WorkflowID: workflowID,
				Operations: operations,
				Persist:    !command.Bool("dry-run"),
			})
			if err != nil {
				return err
			}

			if err := writeJSON("", result); err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("edit rejected at stage %s", result.FailedStage)
			}

			return nil
		},
	}
}
