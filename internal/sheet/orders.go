package sheet

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"realvision/pkg/domain"
)

// Orders maps breed -> sex -> body-part stacking order.
type Orders map[string]map[domain.Sex][]string

var defaultOrders = Orders{
	"akhal_teke":         {domain.SexStallion: {"tail", "mane", "body"}, domain.SexMare: {"mane", "body", "tail"}},
	"arabian_horse":      {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"body", "tail", "mane"}},
	"brabant_horse":      {domain.SexStallion: {"body", "tail", "mane"}, domain.SexMare: {"body", "tail", "mane"}},
	"brumby_horse":       {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"camargue_horse":     {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"cleveland_bay":      {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"exmoor_pony":        {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"tail", "body", "mane"}},
	"finnhorse":          {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"fjord_horse":        {domain.SexStallion: {"body", "tail", "mane"}, domain.SexMare: {"body", "tail", "mane"}},
	"friesian_horse":     {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"haflinger_horse":    {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"icelandic_horse":    {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"irish_cob_horse":    {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"kladruber_horse":    {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"knabstrupper":       {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"lusitano":           {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"tail", "body", "mane"}},
	"mustang_horse":      {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"namib_desert_horse": {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"noriker_horse":      {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"norman_cob":         {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"oldenburg_horse":    {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"pura_raza_española": {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"quarter_horse":      {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"body", "mane", "tail"}},
	"shire_horse":        {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"suffolk_punch":      {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"thoroughbred":       {domain.SexStallion: {"tail", "body", "mane"}, domain.SexMare: {"tail", "body", "mane"}},
	"trakehner_horse":    {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
	"welsh_pony":         {domain.SexStallion: {"body", "mane", "tail"}, domain.SexMare: {"body", "mane", "tail"}},
}

// DefaultOrders returns a copy of the built-in breed order table.
func DefaultOrders() Orders {
	return defaultOrders.clone()
}

// For returns the BreedOrder records known for breed, stallion first.
func (o Orders) For(breed string) []domain.BreedOrder {
	bySex, ok := o[breed]
	if !ok {
		return nil
	}
	out := make([]domain.BreedOrder, 0, len(bySex))
	for _, sex := range []domain.Sex{domain.SexStallion, domain.SexMare} {
		parts, ok := bySex[sex]
		if !ok {
			continue
		}
		out = append(out, domain.BreedOrder{Breed: breed, Sex: sex, Parts: append([]string(nil), parts...)})
	}
	return out
}

// Breeds lists the breeds in the table, sorted.
func (o Orders) Breeds() []string {
	out := make([]string, 0, len(o))
	for b := range o {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Merge overlays other onto a copy of o; entries in other win per breed/sex.
func (o Orders) Merge(other Orders) Orders {
	out := o.clone()
	for breed, bySex := range other {
		if out[breed] == nil {
			out[breed] = make(map[domain.Sex][]string, len(bySex))
		}
		for sex, parts := range bySex {
			out[breed][sex] = append([]string(nil), parts...)
		}
	}
	return out
}

func (o Orders) clone() Orders {
	out := make(Orders, len(o))
	for breed, bySex := range o {
		m := make(map[domain.Sex][]string, len(bySex))
		for sex, parts := range bySex {
			m[sex] = append([]string(nil), parts...)
		}
		out[breed] = m
	}
	return out
}

// DecodeOrders reads a YAML document of the form
//
//	breed:
//	  stallion: [body, mane, tail]
//	  mare: [tail, body, mane]
func DecodeOrders(r io.Reader) (Orders, error) {
	var raw map[string]map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return Orders{}, nil
		}
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make(Orders, len(raw))
	for breed, bySex := range raw {
		m := make(map[domain.Sex][]string, len(bySex))
		for rawSex, parts := range bySex {
			sex, err := domain.ParseSex(rawSex)
			if err != nil {
				return nil, fmt.Errorf("orders for %s: %w", breed, err)
			}
			m[sex] = parts
		}
		out[domain.NormalizeBreed(breed)] = m
	}
	return out, nil
}

// LoadOrders returns the built-in table merged with the YAML file at path.
// An empty path yields the built-in table.
func LoadOrders(path string) (Orders, error) {
	if path == "" {
		return DefaultOrders(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	defer func() { _ = f.Close() }()
	extra, err := DecodeOrders(f)
	if err != nil {
		return nil, err
	}
	return defaultOrders.Merge(extra), nil
}
