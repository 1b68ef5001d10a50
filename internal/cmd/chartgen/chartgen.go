// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command chartgen reads BenchmarkThroughput results in the standard Go
// benchmark format and renders one set of SVG charts per task size under
// ./charts: throughput by worker count, speedup over the single-queue
// baseline, and allocations per task.
package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"slices"
	"strconv"

	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"
	"golang.org/x/perf/benchproc"
	"golang.org/x/perf/benchunit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const baselinePool = "naive"

// series is one line of a chart: a point per worker count with its
// confidence interval.
type series struct {
	plotter.XYs
	plotter.YErrors
}

type chart struct {
	Title           string
	YAxisLabel      string
	Workers         []int
	SeriesLabels    []string
	Series          []series
	YAxisGrowFactor float64
	FileBasename    string
}

type PoolKey struct{ benchproc.Key }
type WorkersKey struct{ benchproc.Key }
type WorkKey struct{ benchproc.Key }

type Data struct {
	Sample  benchmath.Sample
	Summary benchmath.Summary
}

func setupPlot(c *chart) *plot.Plot {
	p := plot.New()

	p.Title.Text = c.Title
	p.X.Label.Text = "Workers"
	p.Y.Label.Text = c.YAxisLabel

	gray := color.Gray{128}
	p.Title.TextStyle.Color = gray
	p.X.Color = gray
	p.Y.Color = gray
	p.X.Label.TextStyle.Color = gray
	p.Y.Label.TextStyle.Color = gray
	p.X.Tick.Color = gray
	p.Y.Tick.Color = gray
	p.X.Tick.Label.Color = gray
	p.Y.Tick.Label.Color = gray
	p.Legend.TextStyle.Color = gray

	p.X.Scale = plot.LogScale{}
	ticks := make([]plot.Tick, len(c.Workers))
	for i, w := range c.Workers {
		ticks[i] = plot.Tick{Value: float64(w), Label: strconv.Itoa(w)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = 1 * vg.Millimeter
	p.BackgroundColor = color.Transparent

	return p
}

func plotLines(c *chart) error {
	p := setupPlot(c)

	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Dark2", max(3, len(c.SeriesLabels)))
	if err != nil {
		return err
	}
	colors := palette.Colors()

	for i, label := range c.SeriesLabels {
		s := c.Series[i]
		line, points, err := plotter.NewLinePoints(s.XYs)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = 0.5 * vg.Millimeter
		points.Color = colors[i]

		errBars, err := plotter.NewYErrorBars(s)
		if err != nil {
			return err
		}
		errBars.LineStyle.Color = colors[i]

		p.Add(line, points, errBars)
		p.Legend.Add(label, line, points)
	}

	p.Y.Min = 0
	p.Y.Max *= c.YAxisGrowFactor

	if err := os.MkdirAll("charts", 0755); err != nil {
		return err
	}
	return p.Save(9*vg.Inch, 6*vg.Inch, "charts/"+c.FileBasename+".svg")
}

func main() {
	var pp benchproc.ProjectionParser
	poolP, err := pp.Parse("/pool", nil)
	if err != nil {
		log.Fatal(err)
	}
	workersP, err := pp.Parse("/workers", nil)
	if err != nil {
		log.Fatal(err)
	}
	workP, err := pp.Parse("/work", nil)
	if err != nil {
		log.Fatal(err)
	}
	residueP := pp.Residue()

	dataByWorkPoolWorkersUnit := make(map[WorkKey]map[PoolKey]map[WorkersKey]map[string]*Data)
	poolKeySet := make(map[PoolKey]struct{})
	workersKeySet := make(map[WorkersKey]struct{})
	var residues []benchproc.Key

	benchFiles := &benchfmt.Files{
		Paths:       os.Args[1:],
		AllowStdin:  true,
		AllowLabels: true,
	}
	for benchFiles.Scan() {
		var res *benchfmt.Result
		switch rec := benchFiles.Result(); rec := rec.(type) {
		case *benchfmt.Result:
			res = rec
		case *benchfmt.SyntaxError:
			// Report a non-fatal parse error.
			log.Print(rec)
			continue
		default:
			continue
		}

		workKey := WorkKey{workP.Project(res)}
		byPool := dataByWorkPoolWorkersUnit[workKey]
		if byPool == nil {
			byPool = make(map[PoolKey]map[WorkersKey]map[string]*Data)
			dataByWorkPoolWorkersUnit[workKey] = byPool
		}
		poolKey := PoolKey{poolP.Project(res)}
		poolKeySet[poolKey] = struct{}{}
		byWorkers := byPool[poolKey]
		if byWorkers == nil {
			byWorkers = make(map[WorkersKey]map[string]*Data)
			byPool[poolKey] = byWorkers
		}
		workersKey := WorkersKey{workersP.Project(res)}
		workersKeySet[workersKey] = struct{}{}
		byUnit := byWorkers[workersKey]
		if byUnit == nil {
			byUnit = make(map[string]*Data)
			byWorkers[workersKey] = byUnit
		}
		for _, v := range res.Values {
			data := byUnit[v.Unit]
			if data == nil {
				data = &Data{}
				byUnit[v.Unit] = data
			}
			data.Sample.Values = append(data.Sample.Values, v.Value)
		}
		residues = append(residues, residueP.Project(res))
	}
	if err := benchFiles.Err(); err != nil {
		log.Fatalf("Error reading benchmark files: %v", err)
	}
	if len(dataByWorkPoolWorkersUnit) == 0 {
		log.Fatal("no BenchmarkThroughput results found")
	}

	if nonsingular := benchproc.NonSingularFields(residues); len(nonsingular) > 0 {
		fmt.Printf("warning: results vary in %s\n", nonsingular)
	}

	// Order pools with the baseline first, then alphabetically.
	poolKeys := make([]PoolKey, 0, len(poolKeySet))
	for k := range poolKeySet {
		poolKeys = append(poolKeys, k)
	}
	poolName := func(k PoolKey) string { return k.Get(poolP.Fields()[0]) }
	slices.SortFunc(poolKeys, func(a, b PoolKey) int {
		an, bn := poolName(a), poolName(b)
		switch {
		case an == bn:
			return 0
		case an == baselinePool:
			return -1
		case bn == baselinePool:
			return 1
		case an < bn:
			return -1
		default:
			return 1
		}
	})

	workersKeys := make([]WorkersKey, 0, len(workersKeySet))
	workerCounts := make(map[WorkersKey]int)
	for k := range workersKeySet {
		n, err := strconv.Atoi(k.Get(workersP.Fields()[0]))
		if err != nil {
			log.Fatalf("Error parsing worker count %q: %v", k.Get(workersP.Fields()[0]), err)
		}
		workersKeys = append(workersKeys, k)
		workerCounts[k] = n
	}
	slices.SortFunc(workersKeys, func(a, b WorkersKey) int {
		return workerCounts[a] - workerCounts[b]
	})
	workers := make([]int, len(workersKeys))
	for i, k := range workersKeys {
		workers[i] = workerCounts[k]
	}

	confidence := 0.95
	thresholds := benchmath.DefaultThresholds
	for _, byPool := range dataByWorkPoolWorkersUnit {
		for _, byWorkers := range byPool {
			for _, byUnit := range byWorkers {
				for _, data := range byUnit {
					data.Sample = *benchmath.NewSample(data.Sample.Values, &thresholds)
					data.Summary = benchmath.AssumeNothing.Summary(&data.Sample, confidence)
				}
			}
		}
	}

	for workKey, byPool := range dataByWorkPoolWorkersUnit {
		work := workKey.Get(workP.Fields()[0])

		var baseline map[WorkersKey]map[string]*Data
		for poolKey, byWorkers := range byPool {
			if poolName(poolKey) == baselinePool {
				baseline = byWorkers
			}
		}

		newChart := func(title, yLabel, basename string, grow float64) chart {
			return chart{
				Title:           fmt.Sprintf("%s (%s iterations per task)", title, work),
				YAxisLabel:      yLabel,
				Workers:         workers,
				YAxisGrowFactor: grow,
				FileBasename:    fmt.Sprintf("work%s_%s", work, basename),
			}
		}
		throughputChart := newChart("Task Throughput", "Tasks / Second", "throughput", 1.2)
		speedupChart := newChart("Throughput vs. Single Queue", "Speedup", "speedup", 1.2)
		allocsChart := newChart("Allocations Per Task", "Allocations / Task", "allocations", 1.4)

		for _, poolKey := range poolKeys {
			byWorkers, ok := byPool[poolKey]
			if !ok {
				continue
			}
			name := poolName(poolKey)

			var throughput, speedup, allocs series
			for _, workersKey := range workersKeys {
				x := float64(workerCounts[workersKey])
				if data := byWorkers[workersKey]["completed/s"]; data != nil {
					throughput.add(x, &data.Summary)
					if baseline != nil {
						if ref := baseline[workersKey]["completed/s"]; ref != nil {
							speedup.addRatio(x, &data.Summary, &ref.Summary)
						}
					}
				}
				if data := byWorkers[workersKey]["allocs/op"]; data != nil {
					allocs.add(x, &data.Summary)
				}
			}

			throughputChart.addSeries(name, throughput)
			if name != baselinePool {
				speedupChart.addSeries(name, speedup)
			}
			allocsChart.addSeries(name, allocs)
		}

		for _, c := range []*chart{&throughputChart, &speedupChart, &allocsChart} {
			if len(c.Series) == 0 {
				continue
			}
			if err := plotLines(c); err != nil {
				log.Fatalf("Error creating chart: %v", err)
			}
			fmt.Printf("%s: %s\n", c.FileBasename, c.summary())
		}
	}

	fmt.Println("Charts generated successfully in the 'charts' directory.")
}

func (c *chart) addSeries(label string, s series) {
	if len(s.XYs) == 0 {
		return
	}
	c.SeriesLabels = append(c.SeriesLabels, label)
	c.Series = append(c.Series, s)
}

func (c *chart) summary() string {
	var out string
	for i, label := range c.SeriesLabels {
		s := c.Series[i]
		last := len(s.XYs) - 1
		out += fmt.Sprintf(" %s=%s", label, benchunit.Scale(s.XYs[last].Y, benchunit.Decimal))
	}
	return out
}

func (s *series) add(x float64, sum *benchmath.Summary) {
	s.XYs = append(s.XYs, plotter.XY{X: x, Y: sum.Center})
	s.YErrors = append(s.YErrors, struct{ Low, High float64 }{
		Low:  sum.Center - sum.Lo,
		High: sum.Hi - sum.Center,
	})
}

// addRatio adds the ratio of two summaries, propagating their relative
// interval widths.
func (s *series) addRatio(x float64, num, den *benchmath.Summary) {
	y := num.Center / den.Center
	plus := num.Hi - num.Center
	minus := num.Center - num.Lo
	refPlus := den.Hi - den.Center
	refMinus := den.Center - den.Lo
	spread := y * math.Sqrt((plus*minus)/(num.Center*num.Center)+
		(refPlus*refMinus)/(den.Center*den.Center))
	s.XYs = append(s.XYs, plotter.XY{X: x, Y: y})
	s.YErrors = append(s.YErrors, struct{ Low, High float64 }{Low: spread, High: spread})
}
