package metrics

import "math"

// Peak tracks the largest utilization seen and when it occurred.
type Peak struct {
	name string
	max  float64
	at   float64
	seen bool
}

func NewPeak() *Peak {
	return &Peak{name: "peak"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(u, t float64) {
	if math.IsNaN(u) {
		return
	}
	if !p.seen || u > p.max {
		p.max = u
		p.at = t
		p.seen = true
	}
}

func (p *Peak) Value() float64 {
	if !p.seen {
		return 0
	}
	return p.max
}

// Time is when the peak was observed.
func (p *Peak) Time() float64 { return p.at }

func (p *Peak) Reset() {
	p.max = 0
	p.at = 0
	p.seen = false
}
