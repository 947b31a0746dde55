package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// renderComparisonChart re-reads the CSV runSuite just flushed and renders a
// PNG bar chart of OLTP/OLAP/Range latency per structure and configuration.
func renderComparisonChart(w *csv.Writer) error {
	w.Flush()
	f, err := os.Open("bench_results.csv")
	if err != nil {
		return fmt.Errorf("reopen results: %w", err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "B+ tree vs LSM: per-operation latency"
	p.Y.Label.Text = "ns/op"
	p.X.Label.Text = "structure (config)"

	labels := make([]string, 0, len(rows))
	oltp := make(plotter.Values, 0, len(rows))
	olap := make(plotter.Values, 0, len(rows))
	rng := make(plotter.Values, 0, len(rows))

	for _, r := range rows {
		if r.operation != "Workload_OLTP" {
			continue
		}
		labels = append(labels, r.structure+" ("+r.config+")")
		oltp = append(oltp, float64(r.latencyNs))
		olap = append(olap, float64(latencyFor(rows, r.structure, r.config, "Workload_OLAP")))
		rng = append(rng, float64(latencyFor(rows, r.structure, r.config, "Workload_Range")))
	}

	width := vg.Points(12)
	oltpBars, err := plotter.NewBarChart(oltp, width)
	if err != nil {
		return fmt.Errorf("oltp bars: %w", err)
	}
	oltpBars.Color = plotter.DefaultLineStyle.Color
	oltpBars.Offset = -width

	olapBars, err := plotter.NewBarChart(olap, width)
	if err != nil {
		return fmt.Errorf("olap bars: %w", err)
	}

	rangeBars, err := plotter.NewBarChart(rng, width)
	if err != nil {
		return fmt.Errorf("range bars: %w", err)
	}
	rangeBars.Offset = width

	p.Add(oltpBars, olapBars, rangeBars)
	p.Legend.Add("OLTP", oltpBars)
	p.Legend.Add("OLAP", olapBars)
	p.Legend.Add("Range", rangeBars)
	p.NominalX(labels...)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, "bench_results.png"); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

type resultRow struct {
	structure string
	config    string
	operation string
	latencyNs int64
}

func readRows(f io.Reader) ([]resultRow, error) {
	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse results csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]resultRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 4 {
			continue
		}
		latency, err := strconv.ParseInt(rec[3], 10, 64)
		if err != nil {
			continue
		}
		rows = append(rows, resultRow{
			structure: rec[0],
			config:    rec[1],
			operation: rec[2],
			latencyNs: latency,
		})
	}
	return rows, nil
}

func latencyFor(rows []resultRow, structure, config, operation string) int64 {
	for _, r := range rows {
		if r.structure == structure && r.config == config && r.operation == operation {
			return r.latencyNs
		}
	}
	return 0
}
