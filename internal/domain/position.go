package domain

import "github.com/chewxy/math32"

// Position is a point in universe space
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Distance returns the euclidean distance to another position
func (p Position) Distance(o Position) float32 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Length returns the distance from the origin
func (p Position) Length() float32 {
	return math32.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Midpoint returns the point halfway between two positions
func (p Position) Midpoint(o Position) Position {
	return Position{
		X: (p.X + o.X) / 2,
		Y: (p.Y + o.Y) / 2,
		Z: (p.Z + o.Z) / 2,
	}
}

// Scaled returns the position multiplied by a scalar
func (p Position) Scaled(s float32) Position {
	return Position{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}
