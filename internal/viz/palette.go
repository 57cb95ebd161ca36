package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/driftsim/internal/particle"
)

// Palette colors the watch view. Drifters and Coast are the two map
// layers; Fates colors the census line of each cause of death.
type Palette struct {
	Name     string
	Drifters lipgloss.Color
	Coast    lipgloss.Color
	Title    lipgloss.Color
	Curve    lipgloss.Color
	Running  lipgloss.Color
	Paused   lipgloss.Color
	Failed   lipgloss.Color
	Fates    map[particle.Cause]lipgloss.Color
}

var (
	// PaletteShelf is a shelf sea at night: pale drifters over a blue shore.
	PaletteShelf = Palette{
		Name:     "shelf",
		Drifters: lipgloss.Color("#f2f7ff"),
		Coast:    lipgloss.Color("#2f6f9f"),
		Title:    lipgloss.Color("#7fb8e0"),
		Curve:    lipgloss.Color("#9fd8cb"),
		Running:  lipgloss.Color("#57c785"),
		Paused:   lipgloss.Color("#e8c547"),
		Failed:   lipgloss.Color("#e4572e"),
		Fates: map[particle.Cause]lipgloss.Color{
			particle.DeadOld:   lipgloss.Color("#a0a0a0"),
			particle.DeadOut:   lipgloss.Color("#7fb8e0"),
			particle.DeadBeach: lipgloss.Color("#d9a66b"),
			particle.DeadCold:  lipgloss.Color("#6ea8ff"),
			particle.DeadHot:   lipgloss.Color("#ff7b6e"),
		},
	}

	// PaletteChart follows paper nautical charts, buff land line and ink.
	PaletteChart = Palette{
		Name:     "chart",
		Drifters: lipgloss.Color("#c2185b"),
		Coast:    lipgloss.Color("#c8a964"),
		Title:    lipgloss.Color("#e6d7b0"),
		Curve:    lipgloss.Color("#c2185b"),
		Running:  lipgloss.Color("#4caf50"),
		Paused:   lipgloss.Color("#c8a964"),
		Failed:   lipgloss.Color("#d32f2f"),
		Fates: map[particle.Cause]lipgloss.Color{
			particle.DeadOld:   lipgloss.Color("#8d8d8d"),
			particle.DeadOut:   lipgloss.Color("#5c6bc0"),
			particle.DeadBeach: lipgloss.Color("#c8a964"),
			particle.DeadCold:  lipgloss.Color("#4fc3f7"),
			particle.DeadHot:   lipgloss.Color("#ff8a65"),
		},
	}

	PaletteMono = Palette{
		Name:     "mono",
		Drifters: lipgloss.Color("15"),
		Coast:    lipgloss.Color("244"),
		Title:    lipgloss.Color("15"),
		Curve:    lipgloss.Color("250"),
		Running:  lipgloss.Color("15"),
		Paused:   lipgloss.Color("250"),
		Failed:   lipgloss.Color("15"),
	}

	palettes = []Palette{PaletteShelf, PaletteChart, PaletteMono}

	current = PaletteShelf
)

// Current is the palette in use.
func Current() Palette { return current }

// Fate returns the color of the census line for the cause named name,
// falling back to plain text for alive particles and unknown names.
func (p Palette) Fate(name string) lipgloss.Color {
	for _, c := range particle.Causes {
		if c.String() == name {
			if col, ok := p.Fates[c]; ok {
				return col
			}
		}
	}
	return lipgloss.Color("252")
}

// UsePalette switches to the palette called name.
func UsePalette(name string) error {
	for _, p := range palettes {
		if p.Name == name {
			current = p
			return nil
		}
	}
	return fmt.Errorf("viz: unknown palette %q, have %v", name, PaletteNames())
}

// NextPalette moves to the palette after the current one and returns it.
func NextPalette() Palette {
	for i, p := range palettes {
		if p.Name == current.Name {
			current = palettes[(i+1)%len(palettes)]
			break
		}
	}
	return current
}

func PaletteNames() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Name
	}
	return names
}
