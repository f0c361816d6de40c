package arena

import (
	"fmt"

	"hideseek/internal/perception"
)

// Layout is the static geometry of an arena.
type Layout struct {
	Name  string
	Boxes []Box
}

// Walled surrounds the square [-half, half] with boundary walls of the
// given thickness and adds the extra boxes inside.
func Walled(name string, half, thickness float64, inner ...Box) Layout {
	boxes := []Box{
		{Tag: perception.TagWall, MinX: -half - thickness, MinZ: half, MaxX: half + thickness, MaxZ: half + thickness},
		{Tag: perception.TagWall, MinX: -half - thickness, MinZ: -half - thickness, MaxX: half + thickness, MaxZ: -half},
		{Tag: perception.TagWall, MinX: -half - thickness, MinZ: -half, MaxX: -half, MaxZ: half},
		{Tag: perception.TagWall, MinX: half, MinZ: -half, MaxX: half + thickness, MaxZ: half},
	}
	return Layout{Name: name, Boxes: append(boxes, inner...)}
}

// DefaultLayout is a 10x10 room with two hiding walls between the hider
// and seeker start positions and one free-standing plain wall.
func DefaultLayout() Layout {
	return Walled("room", 5, 0.5,
		Box{Tag: perception.TagHidingWall, MinX: -1.5, MinZ: 0.8, MaxX: 1.5, MaxZ: 1.1},
		Box{Tag: perception.TagHidingWall, MinX: 2.5, MinZ: -3, MaxX: 2.8, MaxZ: -0.5},
		Box{Tag: perception.TagWall, MinX: -4, MinZ: -3.2, MaxX: -2, MaxZ: -2.9},
	)
}

var layouts = map[string]func() Layout{
	"room": DefaultLayout,
	"open": func() Layout { return Walled("open", 5, 0.5) },
}

// LayoutByName resolves a named built-in layout.
func LayoutByName(name string) (Layout, error) {
	if name == "" {
		return DefaultLayout(), nil
	}
	build, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown arena layout: %s", name)
	}
	return build(), nil
}
