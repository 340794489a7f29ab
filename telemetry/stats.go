package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/cellform/sim"
)

// WindowStats holds aggregated growth statistics for a step window.
type WindowStats struct {
	WindowEndStep int     `csv:"window_end"`
	Cells         int     `csv:"cells"`
	Splits        int     `csv:"splits"`
	SplitSkips    int     `csv:"split_skips"`
	MeanValence   float64 `csv:"valence_mean"`
	MaxValence    int     `csv:"valence_max"`
	FoodMean      float64 `csv:"food_mean"`
	FoodP50       float64 `csv:"food_p50"`
	FoodP90       float64 `csv:"food_p90"`
	StepMs        float64 `csv:"step_ms"`
}

// Collector accumulates per-step reports into window records.
type Collector struct {
	windowSize int

	splits     int
	splitSkips int
	stepNanos  int64
	steps      int
}

// NewCollector creates a collector that closes a window every windowSize
// steps.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Collector{windowSize: windowSize}
}

// Record folds one step report into the open window. It returns a closed
// window record and true when the window is complete.
func (c *Collector) Record(report sim.StepReport, g *sim.Graph) (WindowStats, bool) {
	c.splits += report.Splits
	c.splitSkips += report.SplitSkips
	c.stepNanos += int64(report.ForceTime + report.IndexTime + report.CommitTime)
	c.steps++

	if c.steps < c.windowSize {
		return WindowStats{}, false
	}

	stats := WindowStats{
		WindowEndStep: report.Step,
		Cells:         g.Len(),
		Splits:        c.splits,
		SplitSkips:    c.splitSkips,
		StepMs:        float64(c.stepNanos) / float64(c.steps) / 1e6,
	}

	food := make([]float64, g.Len())
	valenceSum := 0
	for i := 0; i < g.Len(); i++ {
		food[i] = g.Food(i)
		v := len(g.Links(i))
		valenceSum += v
		if v > stats.MaxValence {
			stats.MaxValence = v
		}
	}
	if g.Len() > 0 {
		stats.MeanValence = float64(valenceSum) / float64(g.Len())
		sort.Float64s(food)
		stats.FoodMean = stat.Mean(food, nil)
		stats.FoodP50 = stat.Quantile(0.5, stat.Empirical, food, nil)
		stats.FoodP90 = stat.Quantile(0.9, stat.Empirical, food, nil)
	}

	c.splits = 0
	c.splitSkips = 0
	c.stepNanos = 0
	c.steps = 0
	return stats, true
}
