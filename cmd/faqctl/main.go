package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "faqctl",
		Usage: "Check FAQ datasets and try questions against them offline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "FAQ dataset file (.json, .yaml or .toml)",
				Value:   "configs/faq.yaml",
				EnvVars: []string{"FAQ_FILE"},
			},
			&cli.IntFlag{
				Name:  "dims",
				Usage: "Dimensions of the local embedder",
				Value: 256,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Validate every audience in the dataset and report pattern collisions",
				Action: checkCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the report as JSON",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question with the local embedder",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "audience",
						Aliases: []string{"a"},
						Value:   "student",
						Usage:   "Dataset to answer from (student or staff)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
						Value: 0.7,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
