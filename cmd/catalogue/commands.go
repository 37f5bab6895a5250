package main

import (
	"github.com/spf13/cobra"

	appkg "github.com/spheraeng/catalogue-client/internal/app"
)

// reportCommand describes a subcommand running a single report.
type reportCommand struct {
	name  string
	short string
	// country reports accept an optional country argument.
	country bool
}

var reportCommands = []reportCommand{
	{name: "global", short: "Print every global catalogue item with its tests"},
	{name: "tests", short: "Print catalogue items that have tests"},
	{name: "en", short: "Print catalogue items with their EN 14651 tests"},
	{name: "astm", short: "Print catalogue items with their ASTM C1609 tests"},
	{name: "available-tests", short: "Print availability entries of a country with tests and products", country: true},
	{name: "astm-by-country", short: "Print ASTM C1609 test data of products available in a country", country: true},
	{name: "products-by-country", short: "Print products available in a country with full test details", country: true},
	{name: "basic", short: "Print product ids and names of every availability entry"},
	{name: "detailed", short: "Print products not marked unavailable with detailed tests"},
	{name: "product-tests", short: "Print product tests of a country, excluding unavailable products", country: true},
}

// defaultReport runs when no subcommand is given.
const defaultReport = "product-tests"

func newRootCommand(a *appkg.App) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogue",
		Short:         "Query the product and test catalogue",
		Long:          "Query the product and test catalogue.\n\nWithout a subcommand, product-tests runs for the configured country.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Run(cmd.Context(), defaultReport, "")
		},
	}

	for _, rc := range reportCommands {
		root.AddCommand(newReportCommand(a, rc))
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "all [country]",
			Short: "Run every report concurrently",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.RunAll(cmd.Context(), countryArg(args))
			},
		},
		&cobra.Command{
			Use:   "ping",
			Short: "Check connectivity with the catalogue service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.Ping(cmd.Context())
			},
		},
	)
	return root
}

func newReportCommand(a *appkg.App, rc reportCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   rc.name,
		Short: rc.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Run(cmd.Context(), rc.name, countryArg(args))
		},
	}
	if rc.country {
		cmd.Use = rc.name + " [country]"
		cmd.Args = cobra.MaximumNArgs(1)
		cmd.Long = rc.short + ".\n\nThe country defaults to " + a.DefaultCountry() + "."
	}
	return cmd
}

func countryArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
