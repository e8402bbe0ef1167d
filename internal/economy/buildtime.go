package economy

import (
	"math"
	"time"

	"github.com/talgya/core-protocol/internal/registry"
)

const (
	RoboticsFactory = "robotics_factory"
	NaniteFactory   = "nanite_factory"

	resourcesPerHour = 2500.0
)

// BuildTime is the duration of one construction: (metal+crystal)/2500 hours,
// divided by robotics level+1, halved per nanite level, scaled by boostFactor
// (1 when no boost applies). Never less than one second.
func BuildTime(cost registry.Cost, robotics, nanite int, boostFactor float64) time.Duration {
	if boostFactor <= 0 {
		boostFactor = 1
	}
	hours := (cost.Metal + cost.Crystal) / resourcesPerHour
	robotFactor := 1 / float64(robotics+1)
	naniteFactor := math.Pow(0.5, float64(nanite))
	secs := math.Floor(hours * robotFactor * naniteFactor * 3600 * boostFactor)
	return time.Duration(math.Max(1, secs)) * time.Second
}

// Holdings are the entity counts a score is computed over.
type Holdings struct {
	Buildings map[string]int
	Ships     map[string]int
	Defense   map[string]int
}

// Score weighs building levels at 100, units at 50, and research levels at 150.
func Score(research map[string]int, holdings ...Holdings) int64 {
	var total int64
	for _, h := range holdings {
		total += sum(h.Buildings) * 100
		total += sum(h.Ships) * 50
		total += sum(h.Defense) * 50
	}
	return total + sum(research)*150
}

func sum(m map[string]int) int64 {
	var n int64
	for _, v := range m {
		n += int64(v)
	}
	return n
}
