package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/internal/report"
)

var (
	searchCAS       string
	searchPurity    string
	searchVolume    string
	searchPackaging string
	searchIncoterm  string
	searchOutPath   string
	searchXLSXPath  string
)

var searchCmd = &cobra.Command{
	Use:   "search <product>",
	Short: "Run one supplier verification from the command line",
	Long:  "Searches for suppliers of the given product, verifies each candidate site, and prints a ranked summary. Results are also written to a JSON document and can be exported as an XLSX workbook.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.ProductRequest{
			Name:      strings.Join(args, " "),
			CASNumber: searchCAS,
			Purity:    searchPurity,
			Volume:    searchVolume,
			Packaging: searchPackaging,
			Incoterm:  searchIncoterm,
		}

		run, err := env.Pipeline.Run(ctx, req)
		if err != nil {
			return eris.Wrap(err, "verification run")
		}

		fmt.Println(report.Summary(req, run.Result))

		doc := report.NewDocument(req, run.Result)

		outPath := searchOutPath
		if outPath == "" {
			outPath = cfg.Output.ResultsPath
		}
		if outPath != "" {
			if err := report.WriteJSON(outPath, doc); err != nil {
				return err
			}
			zap.L().Info("results written", zap.String("path", outPath))
		}

		if searchXLSXPath != "" {
			if err := report.WriteXLSX(searchXLSXPath, doc); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", searchXLSXPath))
		}

		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCAS, "cas", "", "CAS registry number")
	searchCmd.Flags().StringVar(&searchPurity, "purity", "", "required purity, free text")
	searchCmd.Flags().StringVar(&searchVolume, "volume", "", "required volume, free text")
	searchCmd.Flags().StringVar(&searchPackaging, "packaging", "", "packaging requirements, free text")
	searchCmd.Flags().StringVar(&searchIncoterm, "incoterm", "", "preferred incoterm")
	searchCmd.Flags().StringVar(&searchOutPath, "out", "", "results JSON path (default from config)")
	searchCmd.Flags().StringVar(&searchXLSXPath, "xlsx", "", "also write an XLSX workbook to this path")
	rootCmd.AddCommand(searchCmd)
}
