package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowforge/flowforge/pkg/cmd"
	"github.com/flowforge/flowforge/pkg/insight"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowforge-api",
		Usage:                 "Generate, validate and edit workflow graphs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "Workflow store: a local directory or the engine's http(s) URL",
				Value:   "./data",
				Sources: cli.EnvVars("STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "ledger-url",
				Usage:   "Coordination ledger: redis:// or postgres:// URL, empty for in-memory",
				Sources: cli.EnvVars("LEDGER_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers (required for the kafka event bus)",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "insight-url",
				Usage:   "Graph insight service URL, empty to generate without insights",
				Sources: cli.EnvVars("INSIGHT_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing FlowForge API")

			workflowStore, err := cmd.NewStore(command.String("store-url"))
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := workflowStore.Close(ctx); closeErr != nil {
					logger.ErrorContext(ctx, "Failed to close store", "error", closeErr)
				}
			}()

			memory, err := cmd.NewLedger(ctx, command.String("ledger-url"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := memory.Close(); closeErr != nil {
					logger.ErrorContext(ctx, "Failed to close ledger", "error", closeErr)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := eventBus.Close(); closeErr != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", closeErr)
				}
			}()

			var insightClient insight.Client
			if insightURL := command.String("insight-url"); insightURL != "" {
				insightClient = insight.NewHTTPClient(insightURL)
			}

			var tracer trace.Tracer
			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "flowforge-api")
				if err != nil {
					return err
				}
			}

			api := NewAPI(logger, workflowStore, memory, eventBus, insightClient, tracer)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("flowforge-api failed", "error", err)
		os.Exit(1)
	}
}
