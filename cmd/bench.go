package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tclemos/catalog-bench/benchmark"
	"github.com/tclemos/catalog-bench/catalog"
	"github.com/tclemos/catalog-bench/workload"
)

var (
	benchDatabase string
	benchTable    string
	warmup        int
	iterations    int
	threads       int
	objectCounts  []int
	tableParams   int
	scaleUnit     string
	sanitize      bool
	csvOutput     bool
	csvSeparator  string
	saveDataDir   string
	outputFile    string
	listOnly      bool
)

// benchCmd runs the benchmark catalog. Positional arguments are substring
// patterns selecting which benchmarks run; none means all of them.
var benchCmd = &cobra.Command{
	Use:   "bench [pattern...]",
	Short: "Run catalog benchmarks, optionally filtered by name substring",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVarP(&benchDatabase, "database", "d", "bench_db", "Database the benchmarks run in")
	benchCmd.Flags().StringVarP(&benchTable, "table", "t", "bench_table", "Table name the benchmarks use")
	benchCmd.Flags().IntVarP(&warmup, "warmup", "w", 15, "Discarded warmup iterations per benchmark")
	benchCmd.Flags().IntVarP(&iterations, "iterations", "n", 100, "Measured iterations per benchmark")
	benchCmd.Flags().IntVarP(&threads, "threads", "T", 2, "Worker pool size for concurrent benchmarks")
	benchCmd.Flags().IntSliceVar(&objectCounts, "counts", []int{100}, "Object counts for the .N benchmark variants")
	benchCmd.Flags().IntVar(&tableParams, "params", 0, "Number of synthetic parameters on benchmark tables")
	benchCmd.Flags().StringVar(&scaleUnit, "scale", "ms", "Display scale: ns, us, ms or s")
	benchCmd.Flags().BoolVar(&sanitize, "sanitize", false, "Drop far-outlier samples from displayed stats")
	benchCmd.Flags().BoolVar(&csvOutput, "csv", false, "Render results as CSV instead of an aligned table")
	benchCmd.Flags().StringVar(&csvSeparator, "separator", "\\t", "CSV field separator")
	benchCmd.Flags().StringVar(&saveDataDir, "save-data", "", "Directory to dump raw per-benchmark samples into")
	benchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file instead of stdout")
	benchCmd.Flags().BoolVarP(&listOnly, "list", "l", false, "List matching benchmarks without running them")
}

func runBench(ctx context.Context, patterns []string) error {
	scale, err := benchmark.ParseScale(scaleUnit)
	if err != nil {
		return err
	}
	sep, err := parseSeparator(csvSeparator)
	if err != nil {
		return err
	}

	suite, err := benchmark.NewSuite(benchmark.Config{
		Warmup:     warmup,
		Iterations: iterations,
		Threads:    threads,
		Scale:      scale,
		Sanitize:   sanitize,
	})
	if err != nil {
		return err
	}

	data := &workload.Data{
		Database: benchDatabase,
		Table:    benchTable,
		Params:   tableParams,
	}
	if err := workload.RegisterAll(ctx, suite, data, objectCounts); err != nil {
		return err
	}

	if listOnly {
		for _, name := range suite.ListMatching(patterns...) {
			fmt.Println(name)
		}
		return nil
	}

	runID := uuid.New()
	log.Info().
		Stringer("run_id", runID).
		Str("server", serverURL()).
		Int("warmup", warmup).
		Int("iterations", iterations).
		Int("threads", threads).
		Msg("Starting benchmark run")

	client := catalog.NewClient(serverURL())
	defer client.Close()
	data.Client = client

	if err := workload.Prepare(ctx, data); err != nil {
		return err
	}

	res := suite.RunMatching(patterns...)
	log.Info().
		Stringer("run_id", runID).
		Int("benchmarks", res.Len()).
		Msg("Benchmark run complete")

	out := io.Writer(os.Stdout)
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if csvOutput {
		err = suite.DisplayCSV(out, sep)
	} else {
		err = suite.Display(out)
	}
	if err != nil {
		return err
	}

	if saveDataDir != "" {
		return benchmark.SaveData(res, saveDataDir, scale)
	}
	return nil
}

// parseSeparator turns the --separator flag into a rune. The literal
// backslash-t escape and the empty string both mean tab.
func parseSeparator(s string) (rune, error) {
	if s == "" || s == "\\t" || s == "\t" {
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("%w: separator must be a single character, got %q", benchmark.ErrInvalidConfig, s)
	}
	return runes[0], nil
}
