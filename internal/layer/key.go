// Package layer parses and formats image layer keys of the form
// category/horse_type/body_part/size/id.
package layer

import (
	"fmt"
	"net/url"
	"strings"

	"realvision/pkg/domain"
)

// Category is the artwork category segment.
type Category string

const (
	Colours Category = "colours"
	Whites  Category = "whites"
)

// Horse types as they appear in layer keys.
const (
	Stallions = "stallions"
	Mares     = "mares"
	Foals     = "foals"
)

// Sizes as they appear in layer keys.
const (
	Small  = "small"
	Medium = "medium"
	Large  = "large"
)

// DefaultBaseURL is prefixed to keys when rendering full URLs.
const DefaultBaseURL = "https://www.horsereality.com/upload/"

// Key identifies a single body-part image overlay.
type Key struct {
	Category  Category `json:"category"`
	HorseType string   `json:"horse_type"`
	BodyPart  string   `json:"body_part"`
	Size      string   `json:"size"`
	ID        string   `json:"id"`
}

// uploadSegment is the path segment that precedes keys outside of full URLs.
const uploadSegment = "upload"

// Parse decodes a bare key, an /upload/ path or a full URL. A bare key has
// exactly five segments; URLs and upload paths keep their last five. A
// trailing .png is stripped from the id.
func Parse(raw string) (Key, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Key{}, invalid(raw, "empty")
	}
	isURL := strings.Contains(s, "://")
	if isURL {
		u, err := url.Parse(s)
		if err != nil {
			return Key{}, invalid(raw, err.Error())
		}
		s = u.Path
	}
	segs := strings.Split(strings.Trim(s, "/"), "/")
	if len(segs) < 5 {
		return Key{}, invalid(raw, "expected 5 path segments")
	}
	if extra := len(segs) - 5; extra > 0 {
		if !isURL && segs[extra-1] != uploadSegment {
			return Key{}, invalid(raw, "expected 5 path segments or an /upload/ path")
		}
		segs = segs[extra:]
	}
	k := Key{
		Category:  Category(segs[0]),
		HorseType: segs[1],
		BodyPart:  strings.ToLower(segs[2]),
		Size:      segs[3],
		ID:        strings.TrimSuffix(segs[4], ".png"),
	}
	if err := k.validate(); err != nil {
		return Key{}, invalid(raw, err.Error())
	}
	return k, nil
}

// ParseAll parses every raw key, failing on the first malformed one.
func ParseAll(raws []string) ([]Key, error) {
	keys := make([]Key, 0, len(raws))
	for _, r := range raws {
		if strings.TrimSpace(r) == "" {
			continue
		}
		k, err := Parse(r)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Adult builds the key for an adult layer of sex. Adult layers are always large.
func Adult(cat Category, sex domain.Sex, bodyPart, id string) Key {
	return Key{Category: cat, HorseType: sex.HorseType(), BodyPart: bodyPart, Size: Large, ID: id}
}

func (k Key) validate() error {
	switch k.Category {
	case Colours, Whites:
	default:
		return fmt.Errorf("unknown category %q", k.Category)
	}
	switch k.HorseType {
	case Stallions, Mares, Foals:
	default:
		return fmt.Errorf("unknown horse type %q", k.HorseType)
	}
	switch k.Size {
	case Small, Medium, Large:
	default:
		return fmt.Errorf("unknown size %q", k.Size)
	}
	if k.BodyPart == "" || k.ID == "" {
		return fmt.Errorf("empty body part or id")
	}
	return nil
}

// String renders the bare key without extension.
func (k Key) String() string {
	return strings.Join([]string{string(k.Category), k.HorseType, k.BodyPart, k.Size, k.ID}, "/")
}

// Path renders the key as an image path with the .png suffix.
func (k Key) Path() string { return k.String() + ".png" }

// URL joins the key path onto base, falling back to DefaultBaseURL.
func (k Key) URL(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + k.Path()
}

// IsFoal reports whether the key refers to juvenile artwork.
func (k Key) IsFoal() bool { return k.HorseType == Foals }

// IDs splits keys into colour and white identifiers, preserving order.
func IDs(keys []Key) (colours, whites []string) {
	for _, k := range keys {
		switch k.Category {
		case Colours:
			colours = append(colours, k.ID)
		case Whites:
			whites = append(whites, k.ID)
		}
	}
	return colours, whites
}

// SplitLines splits a newline separated layer list, as sent by clients that
// paste layer URLs into a single field.
func SplitLines(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' })
}

// HorseTypeOf returns the horse type shared by every key.
func HorseTypeOf(keys []Key) (string, error) {
	if len(keys) == 0 {
		return "", &domain.ValidationError{Reason: domain.ReasonLayersType, Message: "no layers provided"}
	}
	ht := keys[0].HorseType
	for _, k := range keys[1:] {
		if k.HorseType != ht {
			return "", &domain.ValidationError{Reason: domain.ReasonLayersUnmatched, Message: "layers belong to different horse types"}
		}
	}
	return ht, nil
}

// ValidateFoal requires keys to be a non-empty set of foal layers.
func ValidateFoal(keys []Key) error {
	ht, err := HorseTypeOf(keys)
	if err != nil {
		return err
	}
	if ht != Foals {
		return &domain.ValidationError{Reason: domain.ReasonLayersNotFoal, Message: "this horse is not a foal"}
	}
	return nil
}

func invalid(raw, why string) error {
	return &domain.ValidationError{Reason: domain.ReasonLayersInvalid, Message: fmt.Sprintf("invalid layer %q: %s", raw, why)}
}
