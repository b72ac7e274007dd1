package universe

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	"golang.org/x/crypto/blake2b"

	"cartography/internal/config"
	"cartography/internal/domain"
)

// goldenAngle distributes node directions evenly around a shell
const goldenAngle = math32.Pi * (3 - 2.2360679774997896) // pi * (3 - sqrt 5)

// layout computes deterministic spatial placements from the configured
// policy. It is a pure function of its inputs: no randomness, no
// global state.
type layout struct {
	policy config.LayoutConfig
}

// shellRadius returns the mid-radius of the shell for a domain index.
// Shells are concentric, one per domain, and never extend past the
// configured space limit.
func (l *layout) shellRadius(domainIndex int) float32 {
	r := l.policy.ShellBaseRadius + float32(domainIndex)*l.policy.ShellSpacing
	limit := l.policy.SpaceLimit - l.policy.ShellThickness/2
	if r > limit {
		r = limit
	}
	return r
}

// place positions a node on its domain shell. rank/total drive a
// golden-spiral distribution over the sphere so nodes spread evenly;
// key feeds a hash that offsets the radius within the shell thickness,
// keeping co-ranked nodes from different runs apart without
// sacrificing reproducibility.
func (l *layout) place(domainIndex, rank, total int, key string) domain.Position {
	if total < 1 {
		total = 1
	}

	z := 1 - 2*(float32(rank)+0.5)/float32(total)
	ring := math32.Sqrt(1 - z*z)
	theta := float32(rank) * goldenAngle

	radius := l.shellRadius(domainIndex) + (hashUnit(key)-0.5)*l.policy.ShellThickness

	return domain.Position{
		X: ring * math32.Cos(theta) * radius,
		Y: z * radius,
		Z: ring * math32.Sin(theta) * radius,
	}
}

// nodeScale maps a node's magnitude (question score or tag frequency)
// to a visual scale on a log curve between the configured bounds
func (l *layout) nodeScale(value, maxValue int) float32 {
	if value < 0 {
		value = 0
	}
	if maxValue <= 0 {
		return l.policy.NodeMinScale
	}
	t := math32.Log1p(float32(value)) / math32.Log1p(float32(maxValue))
	return l.policy.NodeMinScale + (l.policy.NodeMaxScale-l.policy.NodeMinScale)*t
}

// edgeWidth maps an edge weight to a visual thickness. Weights at or
// above the cap saturate at the maximum width.
func (l *layout) edgeWidth(weight int) float32 {
	lo, hi := l.policy.EdgeMinWidth, l.policy.EdgeMaxWidth
	capWeight := l.policy.EdgeWeightCap
	switch {
	case weight <= 2:
		return lo
	case weight >= capWeight:
		return hi
	default:
		return lo + (hi-lo)*float32(weight)/float32(capWeight)
	}
}

// hashUnit maps a key to [0,1) deterministically
func hashUnit(key string) float32 {
	sum := blake2b.Sum256([]byte(key))
	v := binary.BigEndian.Uint64(sum[:8])
	return float32(float64(v) / (1 << 64))
}
