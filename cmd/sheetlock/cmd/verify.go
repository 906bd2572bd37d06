package cmd

import (
	"fmt"
	"os"

	"github.com/javajack/sheetlock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <input.xlsx>",
	Short: "Check that content cells are locked and sheets are protected",
	Long: `Reports sheets that are not protected, cells with content that are
unlocked, and empty cells that are locked. The workbook is not modified.
Exits with an error when any cell is in the wrong state.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	wb, err := sheetlock.OpenWorkbook(inputPath)
	if err != nil {
		return err
	}
	defer wb.Close()

	issues, err := sheetlock.Verify(wb, protectorOptions()...)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	if err := printIssues(cmd.OutOrStdout(), issues, viper.GetString("output_format")); err != nil {
		return err
	}

	if sheetlock.HasErrors(issues) {
		return fmt.Errorf("verification failed for %s", inputPath)
	}
	return nil
}
