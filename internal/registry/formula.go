package registry

import (
	"fmt"
	"math"
)

// Output is what a building produces and draws at a given level, per hour.
type Output struct {
	Metal             float64
	Crystal           float64
	Deuterium         float64
	EnergyProduction  float64
	EnergyConsumption float64
}

// Formula evaluates a building's hourly output at a level. Every building has
// one; non-economic buildings produce nothing.
type Formula interface {
	Evaluate(level int) Output
}

// Inert is the formula of buildings with no economic output.
type Inert struct{}

// Evaluate always returns a zero output.
func (Inert) Evaluate(int) Output { return Output{} }

// Mine yields one resource and draws energy.
type Mine struct {
	Resource   string
	Base       float64
	Growth     float64
	Draw       float64
	DrawGrowth float64
}

// Evaluate returns the mine's yield and energy draw.
func (m Mine) Evaluate(level int) Output {
	var out Output
	y := term(m.Base, m.Growth, level)
	switch m.Resource {
	case "metal":
		out.Metal = y
	case "crystal":
		out.Crystal = y
	case "deuterium":
		out.Deuterium = y
	}
	out.EnergyConsumption = term(m.Draw, m.DrawGrowth, level)
	return out
}

// Power produces energy only.
type Power struct {
	Base   float64
	Growth float64
}

// Evaluate returns the plant's energy output.
func (p Power) Evaluate(level int) Output {
	return Output{EnergyProduction: term(p.Base, p.Growth, level)}
}

// term is floor(base * level * growth^level), zero at level 0.
func term(base, growth float64, level int) float64 {
	if level <= 0 || base == 0 {
		return 0
	}
	if growth <= 0 {
		growth = 1
	}
	l := float64(level)
	return math.Floor(base * l * math.Pow(growth, l))
}

type rawFormula struct {
	Kind       string  `yaml:"kind"`
	Resource   string  `yaml:"resource"`
	Base       float64 `yaml:"base"`
	Growth     float64 `yaml:"growth"`
	Draw       float64 `yaml:"draw"`
	DrawGrowth float64 `yaml:"draw_growth"`
}

func (rf *rawFormula) build() (Formula, error) {
	if rf == nil {
		return Inert{}, nil
	}
	switch rf.Kind {
	case "", "inert":
		return Inert{}, nil
	case "mine":
		switch rf.Resource {
		case "metal", "crystal", "deuterium":
		default:
			return nil, fmt.Errorf("mine formula with unknown resource %q", rf.Resource)
		}
		return Mine{
			Resource:   rf.Resource,
			Base:       rf.Base,
			Growth:     rf.Growth,
			Draw:       rf.Draw,
			DrawGrowth: rf.DrawGrowth,
		}, nil
	case "power":
		return Power{Base: rf.Base, Growth: rf.Growth}, nil
	}
	return nil, fmt.Errorf("unknown formula kind %q", rf.Kind)
}
