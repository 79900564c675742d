package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tclemos/catalog-bench/catalog"
)

var cfgFile string

// rootCmd is the base command; subcommands attach themselves in their init.
var rootCmd = &cobra.Command{
	Use:   "catalog-bench",
	Short: "Microbenchmarks for a metadata catalog service",
	Long: `catalog-bench times individual catalog operations (database, table and
partition CRUD) against a running catalog service and reports per-operation
latency statistics.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLog()
	},
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./catalog-bench.yaml)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: 'json' or 'console'")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("host", catalog.DefaultHost, "Catalog service host")
	rootCmd.PersistentFlags().Int("port", catalog.DefaultPort, "Catalog service port")

	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
}

// initConfig layers configuration: .env, then an optional YAML config file,
// then CATBENCH_* environment variables. Explicit flags win over all of
// them through the viper bindings.
func initConfig() {
	// A missing .env file is fine.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("catalog-bench")
	}

	viper.SetEnvPrefix("CATBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", catalog.DefaultHost)
	viper.SetDefault("port", catalog.DefaultPort)
	viper.SetDefault("log_format", "console")

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Loaded config file")
	}
}

func setupLog() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if viper.GetBool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if viper.GetString("log_format") == "json" {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// serverURL resolves the catalog service base URL from flags, environment
// and config file.
func serverURL() string {
	return catalog.ServerURL(viper.GetString("host"), viper.GetInt("port"))
}
