package layer

import (
	"testing"

	"realvision/pkg/domain"
)

func TestParseForms(t *testing.T) {
	want := Key{Category: Colours, HorseType: Foals, BodyPart: "body", Size: Large, ID: "d09169762"}
	cases := map[string]string{
		"bare":       "colours/foals/body/large/d09169762",
		"bare_png":   "colours/foals/body/large/d09169762.png",
		"path":       "/upload/colours/foals/body/large/d09169762.png",
		"nested":     "/media/upload/colours/foals/body/large/d09169762.png",
		"url_prefix": "https://cdn.example.com/a/b/colours/foals/body/large/d09169762.png",
		"full_url":   "https://www.horsereality.com/upload/colours/foals/body/large/d09169762.png",
		"upper_bp":   "colours/foals/Body/large/d09169762",
		"whitespace": "  colours/foals/body/large/d09169762 ",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != want {
				t.Fatalf("got %+v want %+v", got, want)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"colours/foals/body/large",
		"paint/foals/body/large/x",
		"colours/geldings/body/large/x",
		"colours/foals/body/huge/x",
		"colours/foals/body/large/.png",
		"a/colours/foals/body/large/x",
		"/static/colours/foals/body/large/x.png",
		"colours/foals/body/large/x/y",
	} {
		_, err := Parse(raw)
		if err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		if domain.ReasonOf(err) != domain.ReasonLayersInvalid {
			t.Fatalf("unexpected reason for %q: %v", raw, err)
		}
	}
}

func TestIDStripsOnlySuffix(t *testing.T) {
	// ids may end in characters that also appear in ".png"
	k, err := Parse("whites/foals/tail/large/abcpng.png")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if k.ID != "abcpng" {
		t.Fatalf("unexpected id %q", k.ID)
	}
}

func TestFormatting(t *testing.T) {
	k := Adult(Whites, domain.SexMare, "tail", "r9")
	if k.String() != "whites/mares/tail/large/r9" {
		t.Fatalf("unexpected key %s", k.String())
	}
	if k.Path() != "whites/mares/tail/large/r9.png" {
		t.Fatalf("unexpected path %s", k.Path())
	}
	if got := k.URL("https://cdn.example/upload"); got != "https://cdn.example/upload/whites/mares/tail/large/r9.png" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := k.URL(""); got != DefaultBaseURL+"whites/mares/tail/large/r9.png" {
		t.Fatalf("unexpected default url %s", got)
	}
}

func TestIDs(t *testing.T) {
	keys, err := ParseAll([]string{
		"colours/foals/body/large/a",
		"whites/foals/body/large/b",
		"",
		"colours/foals/mane/large/c",
	})
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	colours, whites := IDs(keys)
	if len(colours) != 2 || colours[0] != "a" || colours[1] != "c" {
		t.Fatalf("unexpected colours %v", colours)
	}
	if len(whites) != 1 || whites[0] != "b" {
		t.Fatalf("unexpected whites %v", whites)
	}
}

func TestValidateFoal(t *testing.T) {
	mustParse := func(raws ...string) []Key {
		t.Helper()
		keys, err := ParseAll(raws)
		if err != nil {
			t.Fatalf("parse all: %v", err)
		}
		return keys
	}
	cases := []struct {
		name   string
		keys   []Key
		reason string
	}{
		{name: "foal", keys: mustParse("colours/foals/body/large/a", "whites/foals/body/large/b")},
		{name: "empty", reason: domain.ReasonLayersType},
		{name: "mixed", keys: mustParse("colours/foals/body/large/a", "colours/mares/body/large/b"), reason: domain.ReasonLayersUnmatched},
		{name: "adult", keys: mustParse("colours/mares/body/large/a"), reason: domain.ReasonLayersNotFoal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFoal(tc.keys)
			if tc.reason == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if !domain.IsValidation(err) || domain.ReasonOf(err) != tc.reason {
				t.Fatalf("expected %s, got %v", tc.reason, err)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("colours/foals/body/large/a\r\nwhites/foals/body/large/b\n\n")
	if len(got) != 2 || got[1] != "whites/foals/body/large/b" {
		t.Fatalf("unexpected lines %q", got)
	}
}
