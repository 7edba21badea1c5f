package predict

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// patternGenes lists the hint keys that can select reserve artwork, in the
// order their values are considered.
var patternGenes = []string{
	// testable
	"frame", "splash_white", "tobiano", "roan",
	// untestable
	"rabicano", "sabino2",
}

// genotypeNameOverrides names genotypes whose display differs from the gene name.
var genotypeNameOverrides = map[string]string{
	"SW1/SW1": "Double Splash",
	"TO/TO":   "Homozygous Tobiano",
}

// Reserve pattern names that only toggle the roan/rabicano suffixes.
const (
	patternRoan     = "Roan"
	patternRabicano = "Rabicano"
)

// combination replaces two genotypes with one compound genotype. Compound
// patterns have their own artwork instead of two stacked layers.
type combination struct {
	a, b     string
	genotype string
	name     string
}

// combinations are applied in order; each consumes its constituents, so a
// genotype takes part in at most one compound.
var combinations = []combination{
	{a: "TO", b: "OLW", genotype: "OLW TO", name: "Tovero"},
	{a: "SW1/SW1", b: "OLW", genotype: "OLW SW1/SW1", name: "Frame Double Splash"},
	{a: "SW1", b: "OLW", genotype: "OLW SW1", name: "Frame Splash"},
	{a: "SW1", b: "TO", genotype: "SW1 TO", name: "Splash Tobiano"},
	{a: "SW1", b: "TO/TO", genotype: "SW1 TO/TO", name: "Splash Homozygous Tobiano"},
	{a: "SW1", b: "rb/rb", genotype: "SW1 rb/rb", name: "Splash Rabicano"},
	{a: "SW1", b: "sb/sb", genotype: "SW1 sb/sb", name: "Splash Sabino2"},
	{a: "SW1/SW1", b: "TO", genotype: "SW1/SW1 TO", name: "Double Splash Tobiano"},
	{a: "SW1/SW1", b: "TO/TO", genotype: "SW1/SW1 TO/TO", name: "Double Splash Homozygous Tobiano"},
	{a: "SW1/SW1", b: "sb/sb", genotype: "SW1/SW1 sb/sb", name: "Double Splash Sabino2"},
}

// pattern is a genotype selected for reserve lookup and its display name.
type pattern struct {
	genotype string
	name     string
}

// patternSet is an insertion-ordered genotype -> name map.
type patternSet []pattern

func (s patternSet) index(genotype string) int {
	for i, p := range s {
		if p.genotype == genotype {
			return i
		}
	}
	return -1
}

func (s patternSet) has(genotype string) bool { return s.index(genotype) >= 0 }

func (s patternSet) set(genotype, name string) patternSet {
	if i := s.index(genotype); i >= 0 {
		s[i].name = name
		return s
	}
	return append(s, pattern{genotype: genotype, name: name})
}

func (s patternSet) remove(genotype string) patternSet {
	if i := s.index(genotype); i >= 0 {
		return append(s[:i], s[i+1:]...)
	}
	return s
}

var titleCaser = cases.Title(language.English)

// geneDisplayName turns a hint key such as "splash_white" into "Splash White".
func geneDisplayName(gene string) string {
	return titleCaser.String(strings.ReplaceAll(gene, "_", " "))
}

// selectPatterns reads the hints named by keys from genes and folds compound
// pairs.
func selectPatterns(genes map[string]string, keys []string) patternSet {
	var set patternSet
	for _, gene := range keys {
		value := genes[gene]
		if value == "" {
			continue
		}
		name := geneDisplayName(gene)
		if override, ok := genotypeNameOverrides[value]; ok {
			name = override
		}
		set = set.set(value, name)
	}
	for _, c := range combinations {
		if set.has(c.a) && set.has(c.b) {
			set = set.remove(c.a).remove(c.b)
			set = set.set(c.genotype, c.name)
		}
	}
	return set
}

// baseGroup lists the base genotypes a duplicated foal layer may resolve to
// when the hints match.
type baseGroup struct {
	name      string
	match     func(extension, agouti string) bool
	baseGenes []string
}

// baseGroups are tried in order and the first matching group is used.
var baseGroups = []baseGroup{
	{
		name:      "chestnut",
		match:     func(ext, _ string) bool { return ext == "e/e" },
		baseGenes: []string{"ee", "ee G"},
	},
	{
		name:      "black",
		match:     func(ext, ag string) bool { return ext == "E/e" && (ag == "a/a" || ag == "") },
		baseGenes: []string{"E aa", "E aa G"},
	},
	{
		name:      "bay",
		match:     func(ext, ag string) bool { return ext == "E/e" && ag == "A/a" },
		baseGenes: []string{"E A", "E A G"},
	},
}

// matchBaseGroup returns the group selected by the extension and agouti hints.
func matchBaseGroup(genes map[string]string) (baseGroup, bool) {
	ext, ag := genes["extension"], genes["agouti"]
	for _, g := range baseGroups {
		if g.match(ext, ag) {
			return g, true
		}
	}
	return baseGroup{}, false
}

// adjacent maps a body part to the part whose artwork sits next to it in the
// stored sheet order. Positions come from adjacencyOrder.
var adjacent = map[string]string{
	"body": "tail",
	"mane": "body",
	"tail": "mane",
}

var adjacencyOrder = []string{"body", "mane", "tail"}

func adjacencyIndex(part string) int {
	for i, p := range adjacencyOrder {
		if p == part {
			return i
		}
	}
	return -1
}

// offset is the row distance from an anchor part to part in stored order.
// The sign comes from comparing positions in adjacencyOrder; it is kept as a
// positional heuristic over sheet layout.
func offset(part, anchor string, distance int) int {
	if adjacencyIndex(part) > adjacencyIndex(anchor) {
		return distance
	}
	return -distance
}
