package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/javajack/sheetlock"
	"github.com/javajack/sheetlock/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logger   = slog.Default()
	closeLog = func() error { return nil }
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sheetlock",
	Short: "Lock cells with content and protect worksheets",
	Long: `sheetlock walks every worksheet of an xlsx workbook. Sheets without a
password are unprotected, fully unlocked, get every cell holding a value or
formula locked again, and are protected. Password-protected sheets are skipped.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeLog() },
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sheetlock.yaml or ./.sheetlock.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("sheet-filter", "", `only process sheets matching this expression, e.g. name != "Summary"`)
	rootCmd.PersistentFlags().String("format", "table", "report format: table, json or yaml")

	bindFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	bindFlag("sheet_filter", rootCmd.PersistentFlags().Lookup("sheet-filter"))
	bindFlag("output_format", rootCmd.PersistentFlags().Lookup("format"))

	viper.SetDefault("rows_per_chunk", sheetlock.DefaultRowsPerChunk)
	viper.SetDefault("byte_threshold", sheetlock.DefaultByteThreshold)
}

// setup reads the config file and environment, then builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	l, closeFn, err := logging.New(logging.Config{
		Level:      logging.Level(viper.GetString("log_level")),
		Format:     viper.GetString("log_format"),
		OutputPath: viper.GetString("log_file"),
	})
	if err != nil {
		return err
	}
	logger = l
	closeLog = closeFn
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "file", used)
	}
	return nil
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".sheetlock")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SHEETLOCK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// protectorOptions collects library options from flags, config and env.
func protectorOptions() []sheetlock.Option {
	return []sheetlock.Option{
		sheetlock.WithRowsPerChunk(viper.GetInt("rows_per_chunk")),
		sheetlock.WithByteThreshold(viper.GetInt("byte_threshold")),
		sheetlock.WithExactRowSize(viper.GetBool("exact_size")),
		sheetlock.WithSheetFilter(viper.GetString("sheet_filter")),
		sheetlock.WithLogger(logger),
	}
}
