package sheet

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"realvision/pkg/domain"
)

const sampleSheet = `,,ee,,,E aa,,
,,stallion,mare,foal,stallion,mare,foal
No Dilution,body,s1,m1,f1,s4,m4,f4
,mane,s2,m2,f2,s5,m5,X
,tail,s3,m3,f3,s6,m6,f6
,color,Chestnut,,,Black ,,
Cream,Body,s7,m7,f7,s8,m8,f8
,color,Palomino,,,-,,
white markings,,,,,,,
,,stallion,mare,foal,roan,rab,roan rab
,body,ws1,wm1,wf1,wr1,wb1,wrb1
,mane,ws2,wm2,wf2,,x,
testable white patterns,,,,,,,
Pattern,Body part,stallion,mare,foal,roan,rab,roan rab
TO,body,ts1,tm1,tf1,,,
,mane,ts2,tm2,tf2,tr2,,
,color,Tobiano,,,,,
RN,body,rs1,rm1,rf1,,,
,color,Roan ,,,,,
`

func parseSample(t *testing.T) domain.Sheet {
	t.Helper()
	sh, err := NewParser(nil).ParseCSV("quarter_horse", strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return sh
}

func TestParseColorBlocks(t *testing.T) {
	sh := parseSample(t)
	color := func(dil, part, s, m, f, genes, c string) domain.ColorLayer {
		return domain.ColorLayer{Breed: "quarter_horse", Dilution: dil, BodyPart: part, StallionID: s, MareID: m, FoalID: f, BaseGenes: genes, Color: c}
	}
	want := []domain.ColorLayer{
		color("No Dilution", "body", "s1", "m1", "f1", "ee", "Chestnut"),
		color("No Dilution", "mane", "s2", "m2", "f2", "ee", "Chestnut"),
		color("No Dilution", "tail", "s3", "m3", "f3", "ee", "Chestnut"),
		color("No Dilution", "body", "s4", "m4", "f4", "E aa", "Black"),
		color("No Dilution", "mane", "s5", "m5", "", "E aa", "Black"),
		color("No Dilution", "tail", "s6", "m6", "f6", "E aa", "Black"),
		color("Cream", "body", "s7", "m7", "f7", "ee", "Palomino"),
		color("Cream", "body", "s8", "m8", "f8", "E aa", ""),
	}
	if diff := cmp.Diff(want, sh.Colors); diff != "" {
		t.Fatalf("colors mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWhiteMarkingsExpansion(t *testing.T) {
	sh := parseSample(t)
	white := func(part, s, m, f string, roan, rab bool) domain.WhiteLayer {
		return domain.WhiteLayer{Breed: "quarter_horse", BodyPart: part, StallionID: s, MareID: m, FoalID: f, Roan: roan, Rab: rab}
	}
	want := []domain.WhiteLayer{
		white("body", "ws1", "wm1", "wf1", false, false),
		white("body", "ws1", "wm1", "wr1", true, false),
		white("body", "ws1", "wm1", "wb1", false, true),
		white("body", "ws1", "wm1", "wrb1", true, true),
		white("mane", "ws2", "wm2", "wf2", false, false),
	}
	if diff := cmp.Diff(want, sh.Whites); diff != "" {
		t.Fatalf("whites mismatch (-want +got):\n%s", diff)
	}
	seen := map[string]bool{}
	for _, w := range sh.Whites[:4] {
		if seen[w.FoalID] {
			t.Fatalf("duplicate foal id %s in expanded row", w.FoalID)
		}
		seen[w.FoalID] = true
	}
}

func TestParseTestableWhites(t *testing.T) {
	sh := parseSample(t)
	tw := func(gene, part, s, m, f, c string, roan bool) domain.TestableWhiteLayer {
		return domain.TestableWhiteLayer{
			WhiteLayer: domain.WhiteLayer{Breed: "quarter_horse", BodyPart: part, StallionID: s, MareID: m, FoalID: f, Roan: roan},
			WhiteGene:  gene,
			Color:      c,
		}
	}
	want := []domain.TestableWhiteLayer{
		tw("TO", "body", "ts1", "tm1", "tf1", "Tobiano", false),
		tw("TO", "mane", "ts2", "tm2", "tf2", "Tobiano", false),
		tw("TO", "mane", "ts2", "tm2", "tr2", "Tobiano", true),
		tw("RN", "body", "rs1", "rm1", "rf1", "Roan", false),
	}
	if diff := cmp.Diff(want, sh.TestableWhites); diff != "" {
		t.Fatalf("testable whites mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAttachesOrders(t *testing.T) {
	sh := parseSample(t)
	want := []domain.BreedOrder{
		{Breed: "quarter_horse", Sex: domain.SexStallion, Parts: []string{"tail", "body", "mane"}},
		{Breed: "quarter_horse", Sex: domain.SexMare, Parts: []string{"body", "mane", "tail"}},
	}
	if diff := cmp.Diff(want, sh.Orders); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdempotent(t *testing.T) {
	p := NewParser(nil)
	first, err := p.ParseCSV("quarter_horse", strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := p.ParseCSV("quarter_horse", strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("parses differ:\n%s", diff)
	}
}

func TestParseValidation(t *testing.T) {
	p := NewParser(nil)
	cases := []struct {
		name   string
		rows   [][]string
		reason string
	}{
		{name: "empty", rows: nil, reason: domain.ReasonSheetEmpty},
		{name: "narrow_header", rows: [][]string{{"", ""}, {"a", "body"}}, reason: domain.ReasonSheetNoHeader},
		{name: "blank_genotype", rows: [][]string{{"", "", " "}, {}}, reason: domain.ReasonSheetNoHeader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse("x", tc.rows)
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := domain.ReasonOf(err); got != tc.reason {
				t.Fatalf("reason %q want %q", got, tc.reason)
			}
		})
	}
}

func TestParseShortRowEndsBlock(t *testing.T) {
	rows := [][]string{
		{"", "", "ee", "", "", "E A", "", ""},
		{},
		{"No Dilution", "body", "s1", "m1", "f1", "s2", "m2", "f2"},
		{"", "mane", "s3", "m3", "f3"},
		{"", "color", "Chestnut", "", "", "Bay", "", ""},
	}
	sh, err := NewParser(nil).Parse("x", rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// the second group stops at the short mane row and never sees its colour
	want := []domain.ColorLayer{
		{Breed: "x", Dilution: "No Dilution", BodyPart: "body", StallionID: "s1", MareID: "m1", FoalID: "f1", BaseGenes: "ee", Color: "Chestnut"},
		{Breed: "x", Dilution: "No Dilution", BodyPart: "mane", StallionID: "s3", MareID: "m3", FoalID: "f3", BaseGenes: "ee", Color: "Chestnut"},
		{Breed: "x", Dilution: "No Dilution", BodyPart: "body", StallionID: "s2", MareID: "m2", FoalID: "f2", BaseGenes: "E A"},
	}
	if diff := cmp.Diff(want, sh.Colors); diff != "" {
		t.Fatalf("colors mismatch (-want +got):\n%s", diff)
	}
	if len(sh.Orders) != 0 {
		t.Fatalf("unknown breed should carry no orders: %+v", sh.Orders)
	}
}

func TestParseTrailingTestableBlockWithoutColor(t *testing.T) {
	rows := [][]string{
		{"", "", "ee"},
		{},
		{"", "Testable White Patterns"},
		{"OLW", "body", "a", "b", "c"},
	}
	sh, err := NewParser(nil).Parse("x", rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sh.TestableWhites) != 1 || sh.TestableWhites[0].WhiteGene != "OLW" || sh.TestableWhites[0].Color != "" {
		t.Fatalf("unexpected testable whites %+v", sh.TestableWhites)
	}
}

func TestParseTestableAfterDilutionHasNoHeaderRow(t *testing.T) {
	rows := [][]string{
		{"", "", "ee"},
		{"", "", "stallion", "mare", "foal"},
		{"testable white patterns"},
		{"SB1", "body", "a", "b", "c"},
		{"", "color", "Sabino", "", ""},
	}
	sh, err := NewParser(nil).Parse("x", rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sh.TestableWhites) != 1 || sh.TestableWhites[0].WhiteGene != "SB1" || sh.TestableWhites[0].Color != "Sabino" {
		t.Fatalf("first row after the sentinel should be data: %+v", sh.TestableWhites)
	}
}

func TestParseTestableAfterWhitesSkipsHeaderRow(t *testing.T) {
	sh := parseSample(t)
	for _, w := range sh.TestableWhites {
		if w.WhiteGene == "Pattern" || w.BodyPart == "body part" {
			t.Fatalf("column header row parsed as a record: %+v", w)
		}
	}
}

func TestReadRowsStripsBOM(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("\xef\xbb\xbfa,b\nc"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rows[0][0] != "a" || len(rows[1]) != 1 {
		t.Fatalf("unexpected rows %v", rows)
	}
}
