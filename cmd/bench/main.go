package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kvpage/bplus"
	"github.com/kvpage/bplus/cmd/bench/lsm"
	"github.com/kvpage/bplus/index"
)

func main() {
	f, err := os.Create("bench_results.csv")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create results file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"})

	cacheSizes := []int{16, 64, 256}
	scale := 200000
	dir, err := os.MkdirTemp("", "bplus-bench")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkdtemp: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	// --- 1. Sweep the B+ tree over page-cache sizes ---
	for _, cache := range cacheSizes {
		path := filepath.Join(dir, fmt.Sprintf("bplus-%d.db", cache))
		tr, err := bplus.Open(path, cache, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open bplus tree: %v\n", err)
			os.Exit(1)
		}
		runSuite(w, "BPlusTree", cache, tr, scale)
		tr.Close()
	}

	// --- 2. Run the Pebble-backed LSM reference once per threshold label ---
	// The threshold only labels the CSV rows; lsm.Open always configures an
	// L0 compaction threshold of 4.
	lsmThresholds := []int{4, 12}
	for _, threshold := range lsmThresholds {
		path := filepath.Join(dir, fmt.Sprintf("lsm-%d", threshold))
		store, err := lsm.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open lsm: %v\n", err)
			os.Exit(1)
		}
		runSuite(w, "LSM-Pebble", threshold, store, scale)
		store.Close()
	}

	w.Flush()

	if err := renderComparisonChart(w); err != nil {
		fmt.Fprintf(os.Stderr, "render chart: %v\n", err)
	}
	fmt.Println("benchmark complete, results written to bench_results.csv")
}

func runSuite(w *csv.Writer, name string, conf int, idx index.Index, n int) {
	fmt.Printf("running %s (config: %d)\n", name, conf)
	confStr := strconv.Itoa(conf)

	start := time.Now()
	for k := 0; k < n; k++ {
		idx.Insert(int64(k), []byte("v"))
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)

	stats := sampleMemory()
	record(w, BenchResult{
		Name:      name,
		Config:    confStr,
		Operation: "Footprint_SteadyState",
		LatencyNs: insertLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})

	start = time.Now()
	ExecuteWorkload(idx, OLTP, n/2)
	record(w, BenchResult{name, confStr, "Workload_OLTP", time.Since(start).Nanoseconds() / int64(n/2), sampleMemory().AllocMB, 0})

	start = time.Now()
	ExecuteWorkload(idx, OLAP, n/2)
	record(w, BenchResult{name, confStr, "Workload_OLAP", time.Since(start).Nanoseconds() / int64(n/2), sampleMemory().AllocMB, 0})

	start = time.Now()
	ExecuteWorkload(idx, Reporting, 100)
	record(w, BenchResult{name, confStr, "Workload_Range", time.Since(start).Nanoseconds() / 100, sampleMemory().AllocMB, 0})
}
