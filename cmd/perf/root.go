package perf

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/ValentinKolb/qmx/lib/student"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd benchmarks the manager against a scratch database
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the qmx database",
		Long:    util.WrapString("Runs a set of benchmarks against a temporary database. The configured data dir is never touched."),
		Args:    cobra.NoArgs,
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 10
	perfOps        = 10000
	perfSkip       = make([]string, 0)
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. save,search)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines to use for the benchmark"))
	key = "ops"
	PerfCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return common.InitLoggers(viper.GetString("log-level"))
}

// benchmark is a named operation; i is the global operation index
type benchmark struct {
	name string
	op   func(m *manager.Manager, i int) error
	// ops overrides perfOps for expensive operations
	ops int
}

func benchmarks() []benchmark {
	return []benchmark{
		{name: "create-student", op: func(m *manager.Manager, i int) error {
			_, err := m.CreateStudent(manager.NewStudentBuilder(fmt.Sprintf("student-%d", i), uint8(i%80)).Class(student.ClassTenTry))
			return err
		}},
		{name: "get-student", op: func(m *manager.Manager, i int) error {
			if _, ok := m.GetStudent(uint64(i%perfOps) + 1); !ok {
				return fmt.Errorf("student %d not found", i%perfOps+1)
			}
			return nil
		}},
		{name: "update-student", op: func(m *manager.Manager, i int) error {
			return m.UpdateStudent(uint64(i%perfOps)+1, manager.NewStudentUpdater().AddRing(float64(i%11)))
		}},
		{name: "record-cash", op: func(m *manager.Manager, i int) error {
			_, err := m.RecordCash(manager.NewCashBuilder(int64(i%500) + 1).StudentID(uint64(i%perfOps) + 1))
			return err
		}},
		{name: "search", ops: 100, op: func(m *manager.Manager, i int) error {
			_ = m.SearchStudents(manager.NewStudentQuery().NameContains(strconv.Itoa(i)).AgeRange(18, 60))
			return nil
		}},
		{name: "dashboard", ops: 100, op: func(m *manager.Manager, i int) error {
			_ = m.Dashboard()
			return nil
		}},
		{name: "save", ops: 10, op: func(m *manager.Manager, _ int) error {
			return m.Save()
		}},
	}
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for the qmx database")

	dir, err := os.MkdirTemp("", "qmx-perf-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cfg := common.DefaultConfig()
	cfg.DataDir = dir
	m, err := manager.New(cfg)
	if err != nil {
		return err
	}

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Print(cfg.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Operations: %d\n", perfOps)
	fmt.Println()

	fmt.Println("starting tests...")

	registry := gometrics.NewRegistry()
	var order []string
	for _, b := range benchmarks() {
		order = append(order, b.name)
		if shouldSkip(b.name) {
			printResult(b.name, nil)
			continue
		}
		ops := perfOps
		if b.ops > 0 {
			ops = min(b.ops, perfOps)
		}
		timer := gometrics.GetOrRegisterTimer(b.name, registry)
		errCount := runParallel(m, timer, b, ops)
		if errCount > 0 {
			fmt.Printf("(%s) - %d operations failed\n", b.name, errCount)
		}
		printResult(b.name, timer.Snapshot())
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, order, registry); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// runParallel spreads ops calls of b over perfNumThreads goroutines, timing
// every call, and returns the number of failed calls
func runParallel(m *manager.Manager, timer gometrics.Timer, b benchmark, ops int) int {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errCount int
	)
	jobs := make(chan int)
	for w := 0; w < perfNumThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				err := b.op(m, i)
				timer.UpdateSince(start)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
				}
			}
		}()
	}
	for i := 0; i < ops; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return errCount
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// printResult prints the result of a benchmark in a formatted way. A nil
// timer marks a skipped benchmark.
func printResult(test string, t gometrics.Timer) {
	if t == nil || t.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}
	mean := time.Duration(t.Mean())
	p99 := time.Duration(t.Percentile(0.99))
	opsPerSec := 1.0 / (max(t.Mean(), 1) / 1e9)
	fmt.Printf("%-20s%d ops\tmean %s/op\tp99 %s/op\t%.0f ops/sec\n", test, t.Count(), mean, p99, opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, order []string, registry gometrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "Count", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "Skipped", "Threads", "Operations"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range order {
		row := []string{test, "0", "0", "0", "0", "0", "true", strconv.Itoa(perfNumThreads), strconv.Itoa(perfOps)}
		if t, ok := registry.Get(test).(gometrics.Timer); ok && t.Count() > 0 {
			s := t.Snapshot()
			ps := s.Percentiles([]float64{0.5, 0.99})
			row[1] = strconv.FormatInt(s.Count(), 10)
			row[2] = fmt.Sprintf("%.0f", s.Mean())
			row[3] = fmt.Sprintf("%.0f", ps[0])
			row[4] = fmt.Sprintf("%.0f", ps[1])
			row[5] = strconv.FormatInt(s.Max(), 10)
			row[6] = "false"
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}
	return nil
}
