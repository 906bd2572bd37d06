package cmd

import (
	"fmt"
	"os"

	"github.com/javajack/sheetlock"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <input.xlsx>",
	Short: "Show protection state and locked cell counts per sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		if _, err := os.Stat(inputPath); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", inputPath)
		}

		wb, err := sheetlock.OpenWorkbook(inputPath)
		if err != nil {
			return err
		}
		defer wb.Close()

		out, err := sheetlock.Describe(wb)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
