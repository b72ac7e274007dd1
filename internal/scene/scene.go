// Package scene derives the engine-facing view of a universe: the
// renderable entities plus the camera and console configuration the
// rendering engine needs. Rendering itself (meshes, shading, input)
// belongs to the engine on the other side of the wire.
package scene

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"cartography/internal/config"
	"cartography/internal/domain"
)

// Sphere is one renderable node: a sphere with an attached label
type Sphere struct {
	ID       string          `json:"id"`
	Position domain.Position `json:"position"`
	Radius   float32         `json:"radius"`
	Color    string          `json:"color"`
	Label    string          `json:"label"`
	Site     string          `json:"site"`
}

// Link is one renderable edge: a beam between two node positions
type Link struct {
	ID    string          `json:"id"`
	From  domain.Position `json:"from"`
	To    domain.Position `json:"to"`
	Width float32         `json:"width"`
	Color string          `json:"color"`
}

// Camera is pass-through fly-camera configuration for the engine
type Camera struct {
	Start           domain.Position   `json:"start"`
	MoveSpeed       float32           `json:"move_speed"`
	LookSensitivity float32           `json:"look_sensitivity"`
	Bindings        map[string]string `json:"bindings"`
}

// Console is pass-through console configuration for the engine
type Console struct {
	Enabled   bool     `json:"enabled"`
	ToggleKey string   `json:"toggle_key"`
	Commands  []string `json:"commands"`
}

// Graph is the complete renderable scene handed to the engine
type Graph struct {
	Spheres           []Sphere `json:"spheres"`
	Links             []Link   `json:"links"`
	Camera            Camera   `json:"camera"`
	Console           Console  `json:"console"`
	LabelFadeDistance float32  `json:"label_fade_distance"`
	SpaceLimit        float32  `json:"space_limit"`
}

// Derive converts a built universe into renderable entities. It is the
// ownership hand-off point: the scene holds copies of everything it
// needs and never reaches back into the datasets.
func Derive(u *domain.Universe, cfg *config.Config) (*Graph, error) {
	g := &Graph{
		Spheres: make([]Sphere, 0, len(u.Nodes)),
		Links:   make([]Link, 0, len(u.Edges)),
		Camera: Camera{
			Start:           cameraStart(cfg.Layout),
			MoveSpeed:       cfg.Camera.MoveSpeed,
			LookSensitivity: cfg.Camera.LookSensitivity,
			Bindings:        cfg.Camera.Bindings,
		},
		Console: Console{
			Enabled:   cfg.Console.Enabled,
			ToggleKey: cfg.Console.ToggleKey,
			Commands:  cfg.Console.Commands,
		},
		LabelFadeDistance: cfg.Layout.LabelFadeDistance,
		SpaceLimit:        cfg.Layout.SpaceLimit,
	}

	for i := range u.Nodes {
		node := &u.Nodes[i]
		g.Spheres = append(g.Spheres, Sphere{
			ID:       node.ID,
			Position: node.Position,
			Radius:   node.Scale,
			Color:    SiteColor(node.Site),
			Label:    node.Label,
			Site:     node.Site,
		})
	}

	for i := range u.Edges {
		edge := &u.Edges[i]
		from, ok := u.NodeByID(edge.FromID)
		if !ok {
			return nil, &domain.LayoutError{NodeID: edge.FromID, Reason: "edge endpoint missing at scene derivation"}
		}
		to, ok := u.NodeByID(edge.ToID)
		if !ok {
			return nil, &domain.LayoutError{NodeID: edge.ToID, Reason: "edge endpoint missing at scene derivation"}
		}
		g.Links = append(g.Links, Link{
			ID:    edge.ID,
			From:  from.Position,
			To:    to.Position,
			Width: edge.Width,
			Color: SiteColor(from.Site),
		})
	}

	return g, nil
}

// SiteColor assigns each domain a stable hue
func SiteColor(site string) string {
	sum := blake2b.Sum256([]byte(site))
	hue := binary.BigEndian.Uint16(sum[:2]) % 360
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", hue)
}

// cameraStart places the camera outside the outermost populated shell,
// looking back toward the origin
func cameraStart(l config.LayoutConfig) domain.Position {
	d := l.SpaceLimit * 0.4
	return domain.Position{X: d, Y: d * 0.5, Z: d}
}
