package sim

import (
	"log/slog"
	"math/rand"
	"runtime"

	"github.com/pthm-cable/cellform/config"
)

// Policy selects how neighbor lists are maintained.
type Policy string

const (
	// PolicyOrdered keeps each neighbor list in cyclic winding order and
	// performs surgical relinks during splits.
	PolicyOrdered Policy = "ordered"
	// PolicyUnordered keeps plain adjacency sets and reconstructs an
	// approximate ring on demand.
	PolicyUnordered Policy = "unordered"
)

// FoodMode selects how proliferation pressure accumulates each commit.
type FoodMode string

const (
	// FoodUniform adds a uniform random amount in [0, 1) per cell.
	FoodUniform FoodMode = "uniform"
	// FoodDirectional adds max(0, normal.z)^2, biasing growth toward +z.
	FoodDirectional FoodMode = "directional"
)

// Params holds the resolved simulation parameters.
type Params struct {
	RestLength        float64
	RadiusOfInfluence float64
	SpringFactor      float64
	PlanarFactor      float64
	BulgeFactor       float64
	RepulsionFactor   float64
	SplitThreshold    float64
	MaxDisplacement   float64 // 0 = unclamped
	GridCellSize      float64
	Policy            Policy
	FoodMode          FoodMode
	Workers           int
}

// NewParams resolves config into concrete simulation parameters.
// avgEdgeLength is the seed mesh's mean edge length, used when rest_length
// is not set explicitly. With growth.randomize the force weights are
// sampled from the generator instead of read from config.
func NewParams(cfg *config.Config, avgEdgeLength float64, rng *rand.Rand) Params {
	gr := cfg.Growth

	p := Params{
		RestLength:        gr.RestLength,
		RadiusOfInfluence: gr.RadiusOfInfluence,
		SpringFactor:      gr.SpringFactor,
		PlanarFactor:      gr.PlanarFactor,
		BulgeFactor:       gr.BulgeFactor,
		RepulsionFactor:   gr.RepulsionFactor,
		SplitThreshold:    gr.SplitThreshold,
		MaxDisplacement:   gr.MaxDisplacement,
		Policy:            Policy(cfg.Topology.Policy),
		FoodMode:          FoodMode(gr.FoodMode),
		Workers:           cfg.Workers.Count,
	}
	if p.RestLength == 0 {
		p.RestLength = avgEdgeLength * gr.RestLengthFactor
	}

	if gr.Randomize {
		p.RestLength = avgEdgeLength * uniform(rng, 0.5, 2)
		p.RadiusOfInfluence = uniform(rng, p.RestLength, p.RestLength*2)
		pct := uniform(rng, 0.01, 0.3)
		p.SpringFactor = pct * uniform(rng, 0, 1)
		p.PlanarFactor = pct * uniform(rng, 0, 1)
		p.BulgeFactor = pct * uniform(rng, 0, 1)
		p.RepulsionFactor = pct * uniform(rng, 0, 1)
	}

	p.GridCellSize = p.RestLength * cfg.Index.GridCellFactor
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}

	// A single bucket ring must cover the repulsion radius, otherwise the
	// force kernel's Nearby query misses candidates.
	if p.RadiusOfInfluence > p.GridCellSize {
		slog.Warn("radius of influence exceeds grid bucket size; repulsion may miss cells",
			"roi", p.RadiusOfInfluence, "grid_cell", p.GridCellSize)
	}

	return p
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
