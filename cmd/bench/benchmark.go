package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
)

// BenchResult is one row of the comparison CSV: one backend, one
// configuration, one operation, with latency and memory footprint.
type BenchResult struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

// MemoryStats is a snapshot of the process's live heap, taken after a
// forced GC so it reflects retained data rather than uncollected garbage.
type MemoryStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

func sampleMemory() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:     m.Alloc / 1024 / 1024,
		HeapObjects: m.HeapObjects,
	}
}

func record(w *csv.Writer, res BenchResult) {
	w.Write([]string{
		res.Name,
		res.Config,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}
