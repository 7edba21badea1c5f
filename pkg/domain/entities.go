// Package domain defines the normalised layer records produced by sheet
// ingestion and consumed by the prediction and naming engines.
package domain

import "strings"

// Sex selects which adult artwork column applies to a prediction.
type Sex string

// Supported adult sexes. Geldings share stallion artwork.
const (
	SexStallion Sex = "stallion"
	SexMare     Sex = "mare"
)

// ParseSex normalises a sex label. "gelding" maps to SexStallion.
func ParseSex(raw string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stallion", "gelding":
		return SexStallion, nil
	case "mare":
		return SexMare, nil
	default:
		return "", &ValidationError{Reason: ReasonSexInvalid, Message: "unknown sex " + raw}
	}
}

// HorseType returns the plural horse type segment used in layer keys.
func (s Sex) HorseType() string { return string(s) + "s" }

// Body parts known to the engines. Sheets may carry others; they are stored
// as-is but never take part in gap filling.
const (
	PartBody = "body"
	PartMane = "mane"
	PartTail = "tail"
)

// BreedOrder is the canonical compositing order of body parts for one breed and sex.
type BreedOrder struct {
	Breed string   `json:"breed"`
	Sex   Sex      `json:"sex"`
	Parts []string `json:"parts"`
}

// Index returns the position of part within the order, or -1.
func (o BreedOrder) Index(part string) int {
	for i, p := range o.Parts {
		if p == part {
			return i
		}
	}
	return -1
}

// ColorLayer maps a juvenile colour layer to its adult counterparts.
// Empty identifiers mean the sheet has no artwork for that horse type.
type ColorLayer struct {
	Breed      string `json:"breed"`
	Dilution   string `json:"dilution"`
	BodyPart   string `json:"body_part"`
	StallionID string `json:"stallion_id"`
	MareID     string `json:"mare_id"`
	FoalID     string `json:"foal_id"`
	BaseGenes  string `json:"base_genes"`
	Color      string `json:"color"`
}

// AdultID returns the adult artwork identifier for sex.
func (c ColorLayer) AdultID(sex Sex) string { return adultID(sex, c.StallionID, c.MareID) }

// WhiteLayer maps an untestable white marking layer. One sheet row expands
// into up to four records keyed by the roan/rabicano variant foal artwork.
type WhiteLayer struct {
	Breed      string `json:"breed"`
	BodyPart   string `json:"body_part"`
	StallionID string `json:"stallion_id"`
	MareID     string `json:"mare_id"`
	FoalID     string `json:"foal_id"`
	Roan       bool   `json:"roan"`
	Rab        bool   `json:"rab"`
}

// AdultID returns the adult artwork identifier for sex.
func (w WhiteLayer) AdultID(sex Sex) string { return adultID(sex, w.StallionID, w.MareID) }

// TestableWhiteLayer is a white pattern with a genetic test result.
type TestableWhiteLayer struct {
	WhiteLayer
	WhiteGene string `json:"white_gene"`
	Color     string `json:"color"`
}

// Sheet is the normalised output of ingesting one breed spreadsheet.
type Sheet struct {
	Breed          string               `json:"breed"`
	Orders         []BreedOrder         `json:"orders"`
	Colors         []ColorLayer         `json:"colors"`
	Whites         []WhiteLayer         `json:"whites"`
	TestableWhites []TestableWhiteLayer `json:"testable_whites"`
}

func adultID(sex Sex, stallion, mare string) string {
	if sex == SexMare {
		return mare
	}
	return stallion
}

// NormalizeBreed converts display breed names such as "Akhal-Teke" into the
// identifiers used by sheets and stores ("akhal_teke").
func NormalizeBreed(raw string) string {
	b := strings.ToLower(strings.TrimSpace(raw))
	b = strings.ReplaceAll(b, " ", "_")
	return strings.ReplaceAll(b, "-", "_")
}
