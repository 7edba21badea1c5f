// Package sheet decodes breed genetics spreadsheets into normalised layer records.
//
// A sheet is a grid of text cells. Row 0 carries the genotype label of every
// colour group at the group's first column; data starts at row 2. Column 0 is
// a label column (dilution or white gene, filled down when blank) and column 1
// names the body part. The colour section repeats groups of three columns
// (stallion, mare, foal) per genotype; a "color" row closes a block and holds
// the display colour per group. Two sentinel rows switch the parser into the
// white markings and testable white pattern sections for the rest of the sheet.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"realvision/pkg/domain"
)

type mode int

const (
	modeDilution mode = iota
	modeWhiteMarkings
	modeTestableWhites
	modeDone
)

func (m mode) String() string {
	switch m {
	case modeDilution:
		return "dilution_block"
	case modeWhiteMarkings:
		return "white_markings"
	case modeTestableWhites:
		return "testable_whites"
	default:
		return "done"
	}
}

const (
	firstDataRow  = 2
	firstGroupCol = 2
	groupWidth    = 3
	// stallion, mare, foal
	idColumns = 3
	// stallion, mare, foal, roan foal, rab foal, roan+rab foal
	markingColumns = 6
)

const (
	sentinelWhiteMarkings   = "white markings"
	sentinelTestableWhites  = "testable white patterns"
	sentinelColor           = "color"
	noColor                 = "-"
	whiteMarkingsHeaderRows = 2
	testableHeaderRows      = 1
	// after the white markings section the testable sentinel is followed by
	// its own column header row
	testableAfterWhitesRows = 2
)

// Parser turns sheet rows into a domain.Sheet. It holds no per-parse state
// and is safe for concurrent use.
type Parser struct {
	orders Orders
}

// NewParser returns a parser that attaches breed orders from orders.
// A nil table selects the built-in orders.
func NewParser(orders Orders) *Parser {
	if orders == nil {
		orders = DefaultOrders()
	}
	return &Parser{orders: orders}
}

// Orders exposes the breed order table the parser attaches.
func (p *Parser) Orders() Orders { return p.orders }

// ParseCSV reads CSV text and parses it as breed's sheet.
func (p *Parser) ParseCSV(breed string, r io.Reader) (domain.Sheet, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return domain.Sheet{}, err
	}
	return p.Parse(breed, rows)
}

// Parse decodes rows into the colour, white and testable white record sets.
func (p *Parser) Parse(breed string, rows [][]string) (domain.Sheet, error) {
	if len(rows) == 0 {
		return domain.Sheet{}, &domain.ValidationError{Reason: domain.ReasonSheetEmpty, Message: fmt.Sprintf("sheet %s has no rows", breed)}
	}
	header := rows[0]
	if len(header) <= firstGroupCol || strings.TrimSpace(header[firstGroupCol]) == "" {
		return domain.Sheet{}, &domain.ValidationError{Reason: domain.ReasonSheetNoHeader, Message: fmt.Sprintf("sheet %s is missing its genotype header row", breed)}
	}
	c := &cursor{
		rows:   rows,
		header: header,
		pos:    firstDataRow,
		mode:   modeDilution,
		sheet:  domain.Sheet{Breed: breed, Orders: p.orders.For(breed)},
	}
	c.run()
	return c.sheet, nil
}

// cursor walks an immutable row slice once. Each mode consumes rows from pos
// and either advances to the next mode or finishes.
type cursor struct {
	rows   [][]string
	header []string
	pos    int
	mode   mode
	sheet  domain.Sheet
}

func (c *cursor) run() {
	for c.mode != modeDone {
		if c.pos >= len(c.rows) {
			c.mode = modeDone
			break
		}
		switch c.mode {
		case modeDilution:
			c.dilutionRegion()
		case modeWhiteMarkings:
			c.whiteMarkings()
		case modeTestableWhites:
			c.testableWhites()
		}
	}
}

// dilutionRegion parses one horizontal band of colour groups, from pos down
// to the first "color" row, across every group column of the header.
func (c *cursor) dilutionRegion() {
	start := c.pos
	for col := firstGroupCol; col < len(c.header); col += groupWidth {
		block, next, switchTo := c.dilutionBlock(start, col)
		c.sheet.Colors = append(c.sheet.Colors, block...)
		if switchTo != modeDilution {
			c.mode, c.pos = switchTo, next
			return
		}
	}
	c.pos = c.regionEnd(start)
}

// dilutionBlock reads one three-column group from start. It returns the
// records, and when a sentinel row was met, the mode to switch to and the
// first row of that section.
func (c *cursor) dilutionBlock(start, col int) ([]domain.ColorLayer, int, mode) {
	var block []domain.ColorLayer
	baseGenes := strings.TrimSpace(c.header[col])
	for i := start; i < len(c.rows); i++ {
		row := c.rows[i]
		if isColorRow(row) {
			color := colorValue(cell(row, col))
			for j := range block {
				if block[j].Color == "" {
					block[j].Color = color
				}
			}
			return block, i, modeDilution
		}
		if next, skip := sentinel(row); next != modeDilution {
			return block, i + skip, next
		}
		if len(row) < col+idColumns {
			break
		}
		part := bodyPart(row)
		if part == "" {
			continue
		}
		dilution := strings.TrimSpace(cell(row, 0))
		if dilution == "" && len(block) > 0 {
			dilution = block[0].Dilution
		}
		block = append(block, domain.ColorLayer{
			Breed:      c.sheet.Breed,
			Dilution:   dilution,
			BodyPart:   part,
			StallionID: artwork(row[col]),
			MareID:     artwork(row[col+1]),
			FoalID:     artwork(row[col+2]),
			BaseGenes:  baseGenes,
		})
	}
	return block, len(c.rows), modeDilution
}

// regionEnd returns the row after the first "color" row at or below start.
func (c *cursor) regionEnd(start int) int {
	for i := start; i < len(c.rows); i++ {
		if isColorRow(c.rows[i]) {
			return i + 1
		}
	}
	return len(c.rows)
}

func (c *cursor) whiteMarkings() {
	ended := false
	for ; c.pos < len(c.rows); c.pos++ {
		row := c.rows[c.pos]
		if next, _ := sentinel(row); next == modeTestableWhites {
			c.mode = next
			c.pos += testableAfterWhitesRows
			return
		}
		if ended || isColorRow(row) || bodyPart(row) == "" {
			continue
		}
		if len(row) < firstGroupCol+idColumns {
			// short row ends this section; keep looking for the testable sentinel
			ended = true
			continue
		}
		base, m := c.marking(row)
		c.sheet.Whites = append(c.sheet.Whites, expand(base, m)...)
	}
	c.mode = modeDone
}

func (c *cursor) testableWhites() {
	var block []domain.TestableWhiteLayer
	flush := func(color string) {
		for i := range block {
			if block[i].Color == "" {
				block[i].Color = color
			}
		}
		c.sheet.TestableWhites = append(c.sheet.TestableWhites, block...)
		block = nil
	}
	for ; c.pos < len(c.rows); c.pos++ {
		row := c.rows[c.pos]
		if isColorRow(row) {
			flush(colorValue(cell(row, firstGroupCol)))
			continue
		}
		if bodyPart(row) == "" {
			continue
		}
		if len(row) < firstGroupCol+idColumns {
			break
		}
		gene := strings.TrimSpace(cell(row, 0))
		if gene == "" && len(block) > 0 {
			gene = block[0].WhiteGene
		}
		base, m := c.marking(row)
		for _, w := range expand(base, m) {
			block = append(block, domain.TestableWhiteLayer{WhiteLayer: w, WhiteGene: gene})
		}
	}
	flush("")
	c.mode = modeDone
}

type markers struct {
	roan, rab, roanRab string
}

func (c *cursor) marking(row []string) (domain.WhiteLayer, markers) {
	base := domain.WhiteLayer{
		Breed:      c.sheet.Breed,
		BodyPart:   bodyPart(row),
		StallionID: artwork(cell(row, firstGroupCol)),
		MareID:     artwork(cell(row, firstGroupCol+1)),
		FoalID:     artwork(cell(row, firstGroupCol+2)),
	}
	m := markers{
		roan:    artwork(cell(row, firstGroupCol+3)),
		rab:     artwork(cell(row, firstGroupCol+4)),
		roanRab: artwork(cell(row, firstGroupCol+markingColumns-1)),
	}
	return base, m
}

// expand yields the plain record plus one record per populated marker
// column, each keyed by that marker's foal artwork.
func expand(base domain.WhiteLayer, m markers) []domain.WhiteLayer {
	out := []domain.WhiteLayer{base}
	if m.roan != "" {
		v := base
		v.FoalID, v.Roan = m.roan, true
		out = append(out, v)
	}
	if m.rab != "" {
		v := base
		v.FoalID, v.Rab = m.rab, true
		out = append(out, v)
	}
	if m.roanRab != "" {
		v := base
		v.FoalID, v.Roan, v.Rab = m.roanRab, true, true
		out = append(out, v)
	}
	return out
}

// sentinel reports the section a row opens and how many rows (the sentinel
// included) precede that section's data. Sheets put the label in either of
// the first two columns.
func sentinel(row []string) (mode, int) {
	for _, col := range []int{0, 1} {
		switch normalized(cell(row, col)) {
		case sentinelWhiteMarkings:
			return modeWhiteMarkings, whiteMarkingsHeaderRows
		case sentinelTestableWhites:
			return modeTestableWhites, testableHeaderRows
		}
	}
	return modeDilution, 0
}

func isColorRow(row []string) bool { return bodyPart(row) == sentinelColor }

func bodyPart(row []string) string { return normalized(cell(row, 1)) }

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func normalized(v string) string { return strings.ToLower(strings.TrimSpace(v)) }

// artwork maps the "no artwork" markers X, x and blank to "".
func artwork(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "X", "x":
		return ""
	}
	return v
}

// colorValue trims trailing spaces some sheets carry; "-" means no colour.
func colorValue(v string) string {
	v = strings.TrimSpace(v)
	if v == noColor {
		return ""
	}
	return v
}

// ReadRows decodes CSV text into rows of cells. Rows may differ in width.
func ReadRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &domain.ValidationError{Reason: domain.ReasonSheetInvalid, Message: fmt.Sprintf("decode csv: %v", err)}
	}
	return rows, nil
}
