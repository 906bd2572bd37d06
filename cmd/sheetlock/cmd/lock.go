package cmd

import (
	"fmt"
	"os"

	"github.com/javajack/sheetlock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lockOutput string

var lockCmd = &cobra.Command{
	Use:   "lock <input.xlsx>",
	Short: "Lock cells with content and protect every sheet",
	Long: `Unprotects every sheet that has no password, unlocks all of its cells,
locks the cells that hold a value or formula, and protects the sheet again.
The result is written to --output, or back to the input file.`,
	Args: cobra.ExactArgs(1),
	RunE: runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)

	lockCmd.Flags().StringVarP(&lockOutput, "output", "o", "", "Output file path (default: overwrite input)")
	lockCmd.Flags().Int("rows-per-chunk", sheetlock.DefaultRowsPerChunk, "rows scanned before a forced flush")
	lockCmd.Flags().Int("byte-threshold", sheetlock.DefaultByteThreshold, "accumulated row size that triggers an early flush")
	lockCmd.Flags().Bool("exact-size", false, "count UTF-8 bytes instead of the approximate row size")

	bindFlag("rows_per_chunk", lockCmd.Flags().Lookup("rows-per-chunk"))
	bindFlag("byte_threshold", lockCmd.Flags().Lookup("byte-threshold"))
	bindFlag("exact_size", lockCmd.Flags().Lookup("exact-size"))
}

func runLock(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	wb, err := sheetlock.OpenWorkbook(inputPath)
	if err != nil {
		return err
	}
	defer wb.Close()

	report, err := sheetlock.Run(wb, protectorOptions()...)
	if err != nil {
		// Nothing is written when a sheet fails part way.
		if report != nil {
			if perr := printReport(cmd.OutOrStdout(), report, viper.GetString("output_format")); perr != nil {
				logger.Warn("print partial report", "error", perr)
			}
		}
		return fmt.Errorf("lock failed: %w", err)
	}

	outputPath := lockOutput
	if outputPath == "" {
		outputPath = inputPath
	}
	if err := wb.Save(outputPath); err != nil {
		return err
	}
	logger.Info("workbook saved", "path", outputPath)

	return printReport(cmd.OutOrStdout(), report, viper.GetString("output_format"))
}
