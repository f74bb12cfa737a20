package metrics

import (
	"fmt"
	"math"
)

// Band counts samples strictly inside (center − half, center + half) and
// the length of the run of such samples ending at the latest observation.
type Band struct {
	name     string
	center   float64
	half     float64
	count    int
	trailing int
	samples  int
}

func NewBand(center, half float64) *Band {
	return &Band{
		name:   fmt.Sprintf("band_%.2f", center),
		center: center,
		half:   half,
	}
}

func (b *Band) Name() string {
	return b.name
}

func (b *Band) Observe(u, t float64) {
	b.samples++
	if math.Abs(u-b.center) < b.half {
		b.count++
		b.trailing++
		return
	}
	b.trailing = 0
}

func (b *Band) Value() float64 {
	return float64(b.count)
}

func (b *Band) Count() int { return b.count }

// Trailing is the number of consecutive in-band samples at the end.
func (b *Band) Trailing() int { return b.trailing }

// Fraction is the share of samples inside the band.
func (b *Band) Fraction() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.count) / float64(b.samples)
}

func (b *Band) Reset() {
	b.count = 0
	b.trailing = 0
	b.samples = 0
}
