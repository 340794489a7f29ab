// Package telemetry collects step timing and growth statistics and writes
// them as CSV for offline analysis.
package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pthm-cable/cellform/sim"
)

// Phase names for the simulation step.
const (
	PhaseForces = "forces"
	PhaseIndex  = "index"
	PhaseCommit = "commit"
)

// perfSample holds timing data for a single step.
type perfSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector tracks per-phase step timings over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []perfSample
	writeIndex  int
	sampleCount int
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]perfSample, windowSize),
	}
}

// Record adds one step's timings to the rolling window.
func (p *PerfCollector) Record(report sim.StepReport) {
	p.samples[p.writeIndex] = perfSample{
		total: report.ForceTime + report.IndexTime + report.CommitTime,
		phases: map[string]time.Duration{
			PhaseForces: report.ForceTime,
			PhaseIndex:  report.IndexTime,
			PhaseCommit: report.CommitTime,
		},
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// Total returns the average total step time over the window.
func (p *PerfCollector) Total() time.Duration {
	if p.sampleCount == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < p.sampleCount; i++ {
		sum += p.samples[i].total
	}
	return sum / time.Duration(p.sampleCount)
}

// Avg returns the average duration of one phase over the window.
func (p *PerfCollector) Avg(phase string) time.Duration {
	if p.sampleCount == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < p.sampleCount; i++ {
		sum += p.samples[i].phases[phase]
	}
	return sum / time.Duration(p.sampleCount)
}

// SortedNames returns the phase names sorted by average duration, longest
// first.
func (p *PerfCollector) SortedNames() []string {
	names := []string{PhaseForces, PhaseIndex, PhaseCommit}
	sort.Slice(names, func(i, j int) bool {
		return p.Avg(names[i]) > p.Avg(names[j])
	})
	return names
}

// LogStats emits the window's timing breakdown via slog.
func (p *PerfCollector) LogStats(step int) {
	total := p.Total()
	attrs := []any{"step", step, "total", total.Round(time.Microsecond).String()}
	for _, name := range p.SortedNames() {
		attrs = append(attrs, name, p.Avg(name).Round(time.Microsecond).String())
	}
	slog.Info("step timing", attrs...)
}
