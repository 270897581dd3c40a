package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/billing-engine/api"
	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/formats"
	"github.com/warp/billing-engine/rates"
	"github.com/warp/billing-engine/tabular"
)

var (
	flagProfile    string
	flagProfileDir string
	flagPeriod     string
	flagRateCard   string
	flagOffshore   string
	flagOutput     string
	flagFormat     string
)

var processCmd = &cobra.Command{
	Use:   "process <allocations-file>",
	Short: "Compute a billing report from an allocations file",
	Long: `Reads a CSV or XLSX allocations table, computes billing amounts and
utilization per row, and writes the report to stdout or a file.

Rows that fail validation are excluded and listed as warnings on stderr;
the run only fails when the table itself is unusable.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&flagProfile, "profile", "p", "", "Format profile name (default: built-in)")
	processCmd.Flags().StringVar(&flagProfileDir, "profile-dir", "./profiles", "Directory of TOML format profiles")
	processCmd.Flags().StringVar(&flagPeriod, "period", "", "Default billing period, YYYY-MM")
	processCmd.Flags().StringVar(&flagRateCard, "ratecard", "", "Cost-rate card file (adds cost and DGM columns)")
	processCmd.Flags().StringVar(&flagOffshore, "offshore-country", "", "Cost country for OFFSHORE rows (default Mexico)")
	processCmd.Flags().StringVarP(&flagOutput, "out", "o", "", "Output file (default stdout)")
	processCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Output format: json, csv, or xlsx (default from -o extension, else json)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(_ *cobra.Command, args []string) error {
	registry := formats.NewRegistry()
	if err := registry.LoadDir(flagProfileDir); err != nil {
		return err
	}
	profile, ok := registry.Get(flagProfile)
	if !ok {
		return fmt.Errorf("unknown profile %q", flagProfile)
	}
	schema, err := profile.Schema()
	if err != nil {
		return err
	}
	policy, err := profile.BillingPolicy()
	if err != nil {
		return err
	}

	table, err := readTable(args[0])
	if err != nil {
		return err
	}

	input := billing.Input{Name: table.Name, Header: table.Header, Rows: table.Rows}
	if flagPeriod != "" {
		input.DefaultPeriod, err = billing.ParsePeriod(flagPeriod)
		if err != nil {
			return err
		}
	}

	report, err := billing.NewCalculator(schema, policy).Run(input)
	if err != nil {
		return err
	}

	var costs map[int]rates.Cost
	if flagRateCard != "" {
		cardTable, err := readTable(flagRateCard)
		if err != nil {
			return err
		}
		card, err := rates.ParseCardTable(cardTable.Header, cardTable.Rows)
		if err != nil {
			return err
		}
		fx := rates.DefaultExchangeRates()
		costs = make(map[int]rates.Cost, len(report.Results))
		for _, res := range report.Results {
			costs[res.RowIndex] = card.Lookup(res.RateCode, string(res.Deputation), rates.Country(flagOffshore), fx)
		}
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	return writeOutput(report, costs)
}

func readTable(path string) (tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return tabular.Table{}, err
	}
	defer f.Close()
	return tabular.ReadNamed(path, f)
}

func writeOutput(report *billing.Report, costs map[int]rates.Cost) error {
	format := flagFormat
	if format == "" {
		switch tabular.DetectFormat(flagOutput) {
		case tabular.FormatXLSX:
			format = "xlsx"
		default:
			if flagOutput != "" {
				format = "csv"
			} else {
				format = "json"
			}
		}
	}

	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.BuildReportDTO(report, costs))
	case "csv":
		return tabular.WriteCSV(out, api.RenderReportTable(report, costs))
	case "xlsx":
		return tabular.WriteXLSX(out, api.RenderReportTable(report, costs), "")
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
