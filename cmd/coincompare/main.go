package main

import (
	"fmt"
	"os"

	"CoinCompare/internal/config"
	"CoinCompare/internal/model"

	"github.com/urfave/cli/v2"
)

const (
	configFlag = "config"
	envFlag    = "env-file"
	mockFlag   = "mock"
	coinFlag   = "coin"
	daysFlag   = "days"
	rawFlag    = "raw"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "coincompare",
		Usage: "Compare daily USD price history of a coin across CoinGecko and CryptoCompare",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   config.DefaultPath,
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  envFlag,
				Usage: "Optional .env file loaded before the config",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  mockFlag,
				Usage: "Use generated data instead of the live price APIs",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the cache refresh job",
				Action: serveAction,
			},
			{
				Name:  "compare",
				Usage: "Print a price comparison for one coin",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  coinFlag,
						Usage: "Coin display name",
						Value: "Bitcoin",
					},
					&cli.IntFlag{
						Name:  daysFlag,
						Usage: fmt.Sprintf("Number of days (%d-%d)", model.MinDays, model.MaxDays),
						Value: model.DefaultDays,
					},
					&cli.BoolFlag{
						Name:  rawFlag,
						Usage: "Also print the raw per-source tables",
					},
				},
				Action: compareAction,
			},
			{
				Name:   "coins",
				Usage:  "List the configured coins",
				Action: coinsAction,
			},
		},
	}
}
