package seeder

import (
	"math"
	"math/rand"
	"time"
)

type TrialRecord struct {
	Crop        string
	Region      string
	Date        time.Time
	YieldTonnes float64
}

// Generator produces synthetic field trial observations. Yields follow a
// crop-specific base with a seasonal curve and per-plot noise, so charts
// built on the data look plausible rather than uniform.
type Generator struct {
	rnd     *rand.Rand
	crops   []string
	regions []string
	start   time.Time
	days    int
	plots   int
}

func NewGenerator(seed int64, crops, regions []string, start time.Time, days, plotsPerDay int) *Generator {
	return &Generator{
		rnd:     rand.New(rand.NewSource(seed)),
		crops:   crops,
		regions: regions,
		start:   start.UTC().Truncate(24 * time.Hour),
		days:    days,
		plots:   plotsPerDay,
	}
}

// Records generates the full trial set: plots x crops x regions
// observations per day. Order and values are deterministic for a seed.
func (g *Generator) Records() []TrialRecord {
	records := make([]TrialRecord, 0, g.days*len(g.crops)*len(g.regions)*g.plots)
	for day := 0; day < g.days; day++ {
		date := g.start.AddDate(0, 0, day)
		season := seasonFactor(day, g.days)
		for _, crop := range g.crops {
			for _, region := range g.regions {
				for plot := 0; plot < g.plots; plot++ {
					records = append(records, TrialRecord{
						Crop:        crop,
						Region:      region,
						Date:        date,
						YieldTonnes: g.yieldFor(crop, region, season),
					})
				}
			}
		}
	}
	return records
}

func (g *Generator) yieldFor(crop, region string, season float64) float64 {
	yield := baseYield(crop) * season * regionFactor(region)
	yield += (g.rnd.Float64() - 0.5) * baseYield(crop) * 0.2
	if yield < 0.1 {
		yield = 0.1
	}
	return round2(yield)
}

// seasonFactor ramps from 0.6 at the season edges to 1.0 mid-season.
func seasonFactor(day, days int) float64 {
	if days <= 1 {
		return 1
	}
	progress := float64(day) / float64(days-1)
	return 0.6 + 0.4*math.Sin(progress*math.Pi)
}

func baseYield(crop string) float64 {
	switch crop {
	case "corn":
		return 9.2
	case "wheat":
		return 4.1
	case "barley":
		return 4.6
	case "soy":
		return 2.9
	default:
		return 3.5
	}
}

func regionFactor(region string) float64 {
	switch region {
	case "north":
		return 0.92
	case "south":
		return 1.08
	case "east":
		return 1.0
	case "west":
		return 0.97
	default:
		return 1.0
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
