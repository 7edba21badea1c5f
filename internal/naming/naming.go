// Package naming derives the display colour and genotype strings of a horse
// from its layers.
package naming

import (
	"context"
	"strings"

	"realvision/internal/layer"
	"realvision/pkg/domain"
)

// Advisory notes attached to a successful result.
const (
	NoteDuplicateColor = "duplicate_color_found"
	NoteWhiteUnmatched = "white_layer_unmatched"
	NoteSharedGenotype = "shared_genotype"
)

const (
	noDilution = "no dilution"
	plusMinus  = "±"
	roanColor  = "Roan"
)

// Info is the naming result.
type Info struct {
	Dilution string   `json:"dilution"`
	Color    string   `json:"color"`
	Notes    []string `json:"notes,omitempty"`
	// TestableColor is the colour of the matched testable white row. It anchors
	// white gap filling and is never shown to users.
	TestableColor string `json:"-"`
	// LayerColor is the colour of the selected colour row before any white
	// names were appended. Colour gap filling queries by it.
	LayerColor string `json:"-"`
}

// HasNote reports whether note is present.
func (i *Info) HasNote(note string) bool {
	for _, n := range i.Notes {
		if n == note {
			return true
		}
	}
	return false
}

// RemoveNote drops every occurrence of note.
func (i *Info) RemoveNote(note string) {
	out := i.Notes[:0]
	for _, n := range i.Notes {
		if n != note {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	i.Notes = out
}

// Namer resolves names against the layer store.
type Namer struct {
	store domain.LayerReader
}

// New returns a Namer reading from store.
func New(store domain.LayerReader) *Namer {
	return &Namer{store: store}
}

// Name builds the colour info for keys. Duplicate colour rows are not
// resolved: the first match wins and a note is added. It returns nil when no
// dilution or colour could be derived.
func (n *Namer) Name(ctx context.Context, breed string, keys []layer.Key) (*Info, error) {
	var colours, whites []layer.Key
	for _, k := range keys {
		switch k.Category {
		case layer.Colours:
			colours = append(colours, k)
		case layer.Whites:
			whites = append(whites, k)
		}
	}

	info := &Info{}
	if len(colours) > 0 {
		rows, err := n.store.NamedColorLayersByAnyID(ctx, breed, colorLookupIDs(colours))
		if err != nil {
			return nil, err
		}
		unique := map[string]struct{}{}
		for _, row := range rows {
			if row.BodyPart == domain.PartBody {
				unique[row.Color] = struct{}{}
			}
		}
		if len(unique) > 1 {
			info.Notes = append(info.Notes, NoteDuplicateColor)
		}
		if len(rows) > 0 {
			info.Dilution = Genotype(rows[0].BaseGenes, rows[0].Dilution)
			info.Color = rows[0].Color
			info.LayerColor = rows[0].Color
		}
	}

	if len(whites) > 0 {
		_, whiteIDs := layer.IDs(whites)
		rows, err := n.store.NamedTestableWhiteLayersByAnyID(ctx, breed, whiteIDs)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			w := rows[0]
			info.TestableColor = w.Color
			info.Dilution += " " + w.WhiteGene
			if w.Color != roanColor {
				info.Color += " " + w.Color
			}
			if w.Roan {
				info.Color += " Roan"
			}
			if w.Rab {
				info.Color += " Rabicano"
			}
		} else {
			info.Notes = append(info.Notes, NoteWhiteUnmatched)
		}
	}

	info.Dilution = strings.TrimSpace(info.Dilution)
	info.Color = strings.TrimSpace(info.Color)
	if info.Dilution == "" && info.Color == "" {
		return nil, nil
	}
	if strings.Contains(info.Color, plusMinus) {
		info.Notes = append(info.Notes, NoteSharedGenotype)
	}
	return info, nil
}

// Genotype joins base genes with a dilution qualifier. "No Dilution" in any
// case is dropped.
func Genotype(baseGenes, dilution string) string {
	d := strings.TrimSpace(dilution)
	if strings.EqualFold(d, noDilution) {
		d = ""
	}
	return strings.TrimSpace(baseGenes + " " + d)
}

// colorLookupIDs prefers the body layer's id and falls back to every colour id.
func colorLookupIDs(colours []layer.Key) []string {
	for _, k := range colours {
		if k.BodyPart == domain.PartBody {
			return []string{k.ID}
		}
	}
	ids, _ := layer.IDs(colours)
	return ids
}
