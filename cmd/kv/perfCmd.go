package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvshim/cmd/util"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for kvshim stores",
		Long:    "Runs parallel set and get workloads against the configured store (a server or, with --local, the data dir) and reports throughput and latency percentiles.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 10000
	perfSkip             = make([]string, 0)
)

// perfPercentiles are reported for every test
var perfPercentiles = []float64{0.5, 0.95, 0.99}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfOps = max(1, viper.GetInt("ops"))
	perfSkip = util.SplitList(viper.GetString("skip"))

	return nil
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	name    string
	skipped bool
	elapsed time.Duration
	errors  int64
	bytes   int64 // payload bytes written, 0 for reads
	timer   gometrics.Timer
}

func (r perfResult) opsPerSec() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.elapsed.Seconds()
}

// perfTest describes one benchmark. prepare runs untimed before op.
type perfTest struct {
	name      string
	valueSize int
	prepare   func(ctx context.Context, s store.IStore, keys []string) error
	op        func(ctx context.Context, s store.IStore, key string, i int) error
}

func runPerf(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, "Performance testing tool for kvshim stores")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	if viper.GetBool("local") {
		backend, opts := util.GetStorageOptions()
		fmt.Fprintf(out, "Local store: backend=%q data-dir=%q no-sync=%v\n", backend, opts.DataDir, opts.NoSync)
	} else {
		fmt.Fprintln(out, util.GetClientConfig().String())
	}
	fmt.Fprintf(out, "Threads: %d, Ops: %d, Keys: %d\n", perfNumThreads, perfOps, perfKeySpread)
	fmt.Fprintln(out)

	// every run writes below its own prefix, so runs never see each others keys
	prefix := "__perf-" + uuid.NewString()[:8]
	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)

	setAll := func(value string) func(ctx context.Context, s store.IStore, keys []string) error {
		return func(ctx context.Context, s store.IStore, keys []string) error {
			for _, k := range keys {
				if err := s.SetItem(ctx, k, value); err != nil {
					return err
				}
			}
			return nil
		}
	}

	tests := []perfTest{
		{
			name:      "set",
			valueSize: len("test"),
			op: func(ctx context.Context, s store.IStore, key string, _ int) error {
				return s.SetItem(ctx, key, "test")
			},
		},
		{
			name:      "set-large",
			valueSize: len(largeValue),
			op: func(ctx context.Context, s store.IStore, key string, _ int) error {
				return s.SetItem(ctx, key, largeValue)
			},
		},
		{
			name:    "get",
			prepare: setAll("test"),
			op: func(ctx context.Context, s store.IStore, key string, _ int) error {
				_, _, err := s.GetItem(ctx, key)
				return err
			},
		},
		{
			name: "get-absent",
			op: func(ctx context.Context, s store.IStore, key string, _ int) error {
				_, _, err := s.GetItem(ctx, key)
				return err
			},
		},
		{
			name:    "mixed",
			prepare: setAll("test"),
			op: func(ctx context.Context, s store.IStore, key string, i int) error {
				if i%2 == 0 {
					return s.SetItem(ctx, key, "test")
				}
				_, _, err := s.GetItem(ctx, key)
				return err
			},
		},
	}

	fmt.Fprintln(out, "starting tests...")
	registry := gometrics.NewRegistry()
	results := make([]perfResult, 0, len(tests))

	for _, test := range tests {
		result, err := runPerfTest(ctx, registry, prefix, test)
		if err != nil {
			return fmt.Errorf("%s: %w", test.name, err)
		}
		results = append(results, result)
		printResult(out, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runPerfTest runs perfOps operations of test spread over perfNumThreads goroutines
func runPerfTest(ctx context.Context, registry gometrics.Registry, prefix string, test perfTest) (perfResult, error) {
	result := perfResult{
		name:  test.name,
		timer: gometrics.GetOrRegisterTimer(test.name, registry),
	}
	if shouldSkip(test.name) {
		result.skipped = true
		return result, nil
	}

	keys := getKeys(prefix, test.name)
	if test.prepare != nil {
		if err := test.prepare(ctx, kvStore, keys); err != nil {
			return result, err
		}
	}

	var next, errs atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= perfOps {
					return
				}
				opStart := time.Now()
				err := test.op(ctx, kvStore, keys[i%len(keys)], i)
				result.timer.UpdateSince(opStart)
				if err != nil {
					if errs.Add(1) == 1 {
						log.Printf("(%s) - first error: %v\n", test.name, err)
					}
				}
			}
		}()
	}
	wg.Wait()

	result.elapsed = time.Since(start)
	result.errors = errs.Load()
	result.bytes = int64(test.valueSize) * result.timer.Count()
	return result, nil
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// getKeys creates perfKeySpread keys below prefix for a test
func getKeys(prefix, test string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", prefix, test, i)
	}
	return keys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(w io.Writer, result perfResult) {
	if result.skipped {
		fmt.Fprintf(w, "%-12sskipped\n", result.name)
		return
	}

	ps := result.timer.Percentiles(perfPercentiles)
	line := fmt.Sprintf("%-12s%s ops/sec\tmean %s\tp50 %s\tp95 %s\tp99 %s",
		result.name,
		humanize.Commaf(float64(int64(result.opsPerSec()))),
		time.Duration(result.timer.Mean()),
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]),
	)
	if result.bytes > 0 && result.elapsed > 0 {
		line += fmt.Sprintf("\t%s/s", humanize.IBytes(uint64(float64(result.bytes)/result.elapsed.Seconds())))
	}
	if result.errors > 0 {
		line += fmt.Sprintf("\t%d errors", result.errors)
	}
	fmt.Fprintln(w, line)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	return writeResultsCSV(file, results)
}

func writeResultsCSV(w io.Writer, results []perfResult) error {
	writer := csv.NewWriter(w)

	// Write header
	header := []string{
		"Test", "Ops", "Errors", "OpsPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "Skipped",
		"Namespace", "Local", "Backend", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, result := range results {
		ps := result.timer.Percentiles(perfPercentiles)
		row := []string{
			result.name,
			strconv.FormatInt(result.timer.Count(), 10),
			strconv.FormatInt(result.errors, 10),
			fmt.Sprintf("%.0f", result.opsPerSec()),
			fmt.Sprintf("%.0f", result.timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatBool(result.skipped),
			viper.GetString("namespace"),
			strconv.FormatBool(viper.GetBool("local")),
			viper.GetString("backend"),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", result.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
