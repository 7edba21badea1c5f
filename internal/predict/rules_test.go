package predict

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"realvision/pkg/domain"
)

func TestSelectPatterns(t *testing.T) {
	cases := []struct {
		name  string
		genes map[string]string
		want  patternSet
	}{
		{name: "none", genes: map[string]string{"agouti": "A/a"}},
		{name: "single", genes: map[string]string{"splash_white": "SW1"}, want: patternSet{{"SW1", "Splash White"}}},
		{name: "override", genes: map[string]string{"splash_white": "SW1/SW1"}, want: patternSet{{"SW1/SW1", "Double Splash"}}},
		{name: "tovero", genes: map[string]string{"frame": "OLW", "tobiano": "TO"}, want: patternSet{{"OLW TO", "Tovero"}}},
		{name: "frame_double_splash", genes: map[string]string{"frame": "OLW", "splash_white": "SW1/SW1"}, want: patternSet{{"OLW SW1/SW1", "Frame Double Splash"}}},
		{name: "splash_homozygous_tobiano", genes: map[string]string{"splash_white": "SW1", "tobiano": "TO/TO"}, want: patternSet{{"SW1 TO/TO", "Splash Homozygous Tobiano"}}},
		{name: "double_splash_sabino", genes: map[string]string{"splash_white": "SW1/SW1", "sabino2": "sb/sb"}, want: patternSet{{"SW1/SW1 sb/sb", "Double Splash Sabino2"}}},
		{
			name:  "constituent_used_once",
			genes: map[string]string{"frame": "OLW", "splash_white": "SW1", "tobiano": "TO", "rabicano": "rb/rb"},
			want:  patternSet{{"OLW TO", "Tovero"}, {"SW1 rb/rb", "Splash Rabicano"}},
		},
		{name: "roan_kept", genes: map[string]string{"roan": "RN", "sabino2": "sb/sb"}, want: patternSet{{"RN", "Roan"}, {"sb/sb", "Sabino2"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := selectPatterns(tc.genes, patternGenes)
			if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(pattern{})); diff != "" {
				t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchBaseGroup(t *testing.T) {
	cases := []struct {
		genes map[string]string
		want  string
	}{
		{genes: map[string]string{"extension": "e/e", "agouti": "A/a"}, want: "chestnut"},
		{genes: map[string]string{"extension": "E/e"}, want: "black"},
		{genes: map[string]string{"extension": "E/e", "agouti": "a/a"}, want: "black"},
		{genes: map[string]string{"extension": "E/e", "agouti": "A/a"}, want: "bay"},
		{genes: map[string]string{"extension": "E/e", "agouti": "A/A"}},
		{genes: nil},
	}
	for _, tc := range cases {
		g, ok := matchBaseGroup(tc.genes)
		if tc.want == "" {
			if ok {
				t.Fatalf("%v: expected no group, got %s", tc.genes, g.name)
			}
			continue
		}
		if !ok || g.name != tc.want {
			t.Fatalf("%v: got %q want %q", tc.genes, g.name, tc.want)
		}
	}
}

func TestOffsetKeepsTableDirection(t *testing.T) {
	if got := offset(domain.PartMane, adjacent[domain.PartMane], 1); got != 1 {
		t.Fatalf("mane after body: %d", got)
	}
	if got := offset(domain.PartTail, adjacent[domain.PartTail], 1); got != 1 {
		t.Fatalf("tail after mane: %d", got)
	}
	if got := offset(domain.PartBody, adjacent[domain.PartBody], 1); got != -1 {
		t.Fatalf("body before tail: %d", got)
	}
	if got := offset(domain.PartTail, domain.PartBody, 2); got != 2 {
		t.Fatalf("tail two after body: %d", got)
	}
}

func TestDefaultReserves(t *testing.T) {
	r := DefaultReserves()
	parts, ok := r.Lookup("brabant_horse", "RN", domain.SexMare)
	if !ok || parts["tail"] == "" {
		t.Fatalf("expected brabant roan reserves, got %v", parts)
	}
	if _, ok := r.Lookup("brabant_horse", "TO", domain.SexMare); ok {
		t.Fatal("unexpected tobiano reserve for brabant_horse")
	}
	if r.HasBreed("no_such_breed") {
		t.Fatal("unknown breed reported as having reserves")
	}
}
