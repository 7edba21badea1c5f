// Package predict resolves the adult layer stack and display names of a foal
// from its juvenile layers.
package predict

import (
	"context"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"realvision/internal/layer"
	"realvision/internal/logging"
	"realvision/internal/naming"
	"realvision/pkg/domain"
)

const (
	colorRoan     = "Roan"
	colorRabicano = "Rabicano"
	geneRoan      = "RN"
	geneRabicano  = "rb/rb"
)

// Request describes one prediction.
type Request struct {
	Breed  string            `json:"breed"`
	Sex    domain.Sex        `json:"sex"`
	Layers []layer.Key       `json:"layers"`
	Genes  map[string]string `json:"genes,omitempty"`
}

// Result is the predicted adult appearance. Layers are in compositing order.
type Result struct {
	Color    string      `json:"color"`
	Dilution string      `json:"dilution"`
	Notes    []string    `json:"notes,omitempty"`
	Layers   []layer.Key `json:"layers"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithReserves replaces the built-in reserve artwork table.
func WithReserves(r Reserves) Option {
	return func(e *Engine) {
		if r != nil {
			e.reserves = r
		}
	}
}

// WithLogger sets the logger used for not-found diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRoanOverlayBreeds replaces the breeds whose foal art has no mane or tail
// white overlays although the adult art does. Once roan is detected on such a
// breed, mane and tail roan artwork is taken from the reference rows. Breed
// names are normalised; an empty list disables the overlay.
func WithRoanOverlayBreeds(breeds ...string) Option {
	return func(e *Engine) {
		e.roanOverlay = make(map[string]struct{}, len(breeds))
		for _, b := range breeds {
			if b = domain.NormalizeBreed(b); b != "" {
				e.roanOverlay[b] = struct{}{}
			}
		}
	}
}

// WithPatternGenes appends hint keys that select reserve artwork after the
// built-in pattern genes. Blank and repeated keys are ignored.
func WithPatternGenes(genes ...string) Option {
	return func(e *Engine) {
		for _, g := range genes {
			g = strings.ToLower(strings.TrimSpace(g))
			if g != "" && !slices.Contains(e.patternGenes, g) {
				e.patternGenes = append(e.patternGenes, g)
			}
		}
	}
}

// Engine predicts adult layers against a layer store. It keeps no
// per-request state and is safe for concurrent use.
type Engine struct {
	store        domain.LayerReader
	namer        *naming.Namer
	reserves     Reserves
	roanOverlay  map[string]struct{}
	patternGenes []string
	log          logging.Logger
}

// New returns an Engine reading from store.
func New(store domain.LayerReader, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		namer:        naming.New(store),
		reserves:     DefaultReserves(),
		roanOverlay:  map[string]struct{}{"brabant_horse": {}},
		patternGenes: append([]string(nil), patternGenes...),
		log:          logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// partLayers collects the adult artwork of one body part.
type partLayers struct {
	colourID string
	foalID   string
	// inferred colours came from gap filling and never anchor another fill
	inferred bool
	whites   []string
	reserves []string
}

// matches holds the rows fetched for one request.
type matches struct {
	colours []domain.ColorLayer
	whites  []domain.WhiteLayer
	roans   map[string]string
	rabs    map[string]string
	info    *naming.Info
}

// Predict resolves req into an adult layer stack. Missing order data, a
// missing colour match or a missing body layer are reported as
// *domain.NotFoundError.
func (e *Engine) Predict(ctx context.Context, req Request) (*Result, error) {
	order, ok, err := e.store.BreedOrder(ctx, req.Breed, req.Sex)
	if err != nil {
		return nil, domain.WrapStore("breed order", err)
	}
	if !ok {
		e.log.Debug("no breed order", "breed", req.Breed, "sex", req.Sex)
		return nil, &domain.NotFoundError{
			Reason:  domain.ReasonNoOrders,
			Message: "no data is available for this breed or sex",
		}
	}

	m, err := e.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(m.colours) == 0 {
		colourIDs, _ := layer.IDs(req.Layers)
		e.log.Debug("no colour layer match", "breed", req.Breed, "ids", colourIDs)
		return nil, &domain.NotFoundError{
			Reason:  domain.ReasonNoColorMatch,
			Message: "no data is available for this horse",
		}
	}

	sex := req.Sex
	whiteIDs, isRoan, isRab := e.whiteArtwork(req.Breed, sex, m)
	if len(m.whites) > 0 {
		m.info.RemoveNote(naming.NoteWhiteUnmatched)
	}

	parts := map[string]*partLayers{}
	foalCounts := map[string]int{}
	for _, row := range m.colours {
		foalCounts[row.FoalID]++
		id := row.AdultID(sex)
		if id == "" {
			continue
		}
		parts[row.BodyPart] = &partLayers{colourID: id, foalID: row.FoalID, whites: whiteIDs[row.BodyPart]}
	}
	body, ok := parts[domain.PartBody]
	if !ok {
		e.log.Debug("no body layer", "breed", req.Breed, "sex", sex)
		return nil, &domain.NotFoundError{
			Reason:  domain.ReasonNoBodyLayer,
			Message: "some or all of this foal's layers cannot be predicted",
		}
	}

	if foalCounts[body.foalID] >= 2 {
		disambiguate(m.info, m.colours, body.foalID, req.Genes)
	}

	rs := e.applyReserves(req.Breed, sex, req.Genes, parts)
	isRoan = isRoan || rs.roan
	isRab = isRab || rs.rab

	if err := e.fillColours(ctx, req.Breed, sex, m.info.LayerColor, parts); err != nil {
		return nil, err
	}
	if err := e.fillWhites(ctx, req.Breed, sex, m.info.TestableColor, whiteIDs, parts); err != nil {
		return nil, err
	}

	res := &Result{
		Layers: assemble(order, sex, parts),
		Notes:  append([]string(nil), m.info.Notes...),
	}
	res.Color, res.Dilution = display(m.info, rs, isRoan, isRab)
	return res, nil
}

// fetch issues the independent store queries of a request concurrently.
func (e *Engine) fetch(ctx context.Context, req Request) (*matches, error) {
	colourIDs, whiteIDs := layer.IDs(req.Layers)
	var (
		m          matches
		untestable []domain.WhiteLayer
		testable   []domain.TestableWhiteLayer
		refs       []domain.TestableWhiteLayer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		m.colours, err = e.store.ColorLayersByFoalIDs(gctx, req.Breed, colourIDs)
		return err
	})
	g.Go(func() (err error) {
		untestable, err = e.store.WhiteLayersByFoalIDs(gctx, req.Breed, whiteIDs)
		return err
	})
	g.Go(func() (err error) {
		testable, err = e.store.TestableWhiteLayersByFoalIDs(gctx, req.Breed, whiteIDs)
		return err
	})
	g.Go(func() (err error) {
		refs, err = e.store.TestableWhiteLayersByColors(gctx, req.Breed, []string{colorRoan, colorRabicano})
		return err
	})
	g.Go(func() (err error) {
		m.info, err = e.namer.Name(gctx, req.Breed, req.Layers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.WrapStore("predict", err)
	}

	m.whites = append(m.whites, untestable...)
	for _, t := range testable {
		m.whites = append(m.whites, t.WhiteLayer)
	}
	m.roans, m.rabs = map[string]string{}, map[string]string{}
	for _, ref := range refs {
		switch ref.Color {
		case colorRoan:
			m.roans[ref.BodyPart] = ref.AdultID(req.Sex)
		case colorRabicano:
			m.rabs[ref.BodyPart] = ref.AdultID(req.Sex)
		}
	}
	if m.info == nil {
		m.info = &naming.Info{}
	}
	return &m, nil
}

// whiteArtwork maps body parts to adult white ids. A later row for the same
// part replaces the earlier one.
func (e *Engine) whiteArtwork(breed string, sex domain.Sex, m *matches) (map[string][]string, bool, bool) {
	out := map[string][]string{}
	var isRoan, isRab bool
	_, overlay := e.roanOverlay[breed]
	for _, row := range m.whites {
		id := row.AdultID(sex)
		if id == "" {
			continue
		}
		var ids []string
		if row.Rab {
			isRab = true
			if ref := m.rabs[row.BodyPart]; ref != "" {
				ids = append(ids, ref)
			}
		}
		if row.Roan {
			isRoan = true
			if ref := m.roans[row.BodyPart]; ref != "" {
				ids = append(ids, ref)
			}
		}
		out[row.BodyPart] = append(ids, id)

		if isRoan && overlay {
			for _, part := range []string{domain.PartTail, domain.PartMane} {
				if ref := m.roans[part]; ref != "" {
					out[part] = []string{ref}
				}
			}
		}
		if isRab {
			if ref := m.rabs[domain.PartTail]; ref != "" {
				out[domain.PartTail] = []string{ref}
			}
		}
	}
	return out, isRoan, isRab
}

// disambiguate picks among colour rows that share the body foal id using the
// extension and agouti hints. Within the selected group a later base genotype
// wins.
func disambiguate(info *naming.Info, rows []domain.ColorLayer, foalID string, genes map[string]string) {
	group, ok := matchBaseGroup(genes)
	if !ok {
		return
	}
	byGenes := map[string]domain.ColorLayer{}
	for _, row := range rows {
		if row.FoalID == foalID {
			byGenes[row.BaseGenes] = row
		}
	}
	resolved := false
	for _, bg := range group.baseGenes {
		row, ok := byGenes[bg]
		if !ok {
			continue
		}
		info.Dilution = naming.Genotype(row.BaseGenes, row.Dilution)
		info.Color = row.Color
		info.LayerColor = row.Color
		resolved = true
	}
	if resolved {
		info.RemoveNote(naming.NoteDuplicateColor)
	}
}

// reserveOutcome records what reserve substitution contributed to the display.
type reserveOutcome struct {
	names     []string
	genotypes []string
	roan      bool
	rab       bool
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// applyReserves adds reserve white artwork for hinted patterns. Nothing is
// added when the breed has no reserves or real white artwork was matched on
// the body, mane or tail.
func (e *Engine) applyReserves(breed string, sex domain.Sex, genes map[string]string, parts map[string]*partLayers) reserveOutcome {
	var out reserveOutcome
	if !e.reserves.HasBreed(breed) {
		return out
	}
	for _, part := range []string{domain.PartBody, domain.PartMane, domain.PartTail} {
		if p := parts[part]; p != nil && len(p.whites) > 0 {
			return out
		}
	}
	for _, p := range selectPatterns(genes, e.patternGenes) {
		artwork, ok := e.reserves.Lookup(breed, p.genotype, sex)
		if !ok {
			continue
		}
		for _, part := range sortedKeys(artwork) {
			id := artwork[part]
			if id == "" {
				continue
			}
			pl := parts[part]
			if pl == nil {
				pl = &partLayers{}
				parts[part] = pl
			}
			pl.reserves = append(pl.reserves, id)
			switch p.name {
			case patternRoan:
				out.roan = true
			case patternRabicano:
				out.rab = true
			default:
				out.names = appendUnique(out.names, p.name)
				out.genotypes = appendUnique(out.genotypes, p.genotype)
			}
		}
	}
	return out
}

// fillColours infers missing mane and tail colour artwork from the row next
// to the adjacent part's artwork among all rows of the same colour.
func (e *Engine) fillColours(ctx context.Context, breed string, sex domain.Sex, color string, parts map[string]*partLayers) error {
	if color == "" {
		return nil
	}
	var rows []domain.ColorLayer
	fetched := false
	for _, missing := range []string{domain.PartMane, domain.PartTail} {
		if p := parts[missing]; p != nil && p.colourID != "" {
			continue
		}
		anchor := adjacent[missing]
		ap := parts[anchor]
		if ap == nil || ap.colourID == "" || ap.inferred {
			break
		}
		if !fetched {
			var err error
			rows, err = e.store.ColorLayersByColor(ctx, breed, color)
			if err != nil {
				return domain.WrapStore("colour gap fill", err)
			}
			fetched = true
		}
		step := offset(missing, anchor, 1)
		for i, row := range rows {
			if row.AdultID(sex) != ap.colourID || row.BodyPart != anchor {
				continue
			}
			if j := i + step; j >= 0 && j < len(rows) {
				if id := rows[j].AdultID(sex); id != "" {
					pl := parts[missing]
					if pl == nil {
						pl = &partLayers{}
						parts[missing] = pl
					}
					pl.colourID = id
					pl.inferred = true
				}
			}
			break
		}
	}
	return nil
}

// fillWhites infers missing mane and tail white artwork from the rows after
// the body artwork among testable rows of the matched testable colour.
func (e *Engine) fillWhites(ctx context.Context, breed string, sex domain.Sex, color string, whites map[string][]string, parts map[string]*partLayers) error {
	_, haveMane := whites[domain.PartMane]
	_, haveTail := whites[domain.PartTail]
	bodyIDs, haveBody := whites[domain.PartBody]
	if (haveMane && haveTail) || !haveBody || color == "" {
		return nil
	}
	rows, err := e.store.TestableWhiteLayersByColors(ctx, breed, []string{color})
	if err != nil {
		return domain.WrapStore("white gap fill", err)
	}
	infer := func(part string, j int) {
		if j < 0 || j >= len(rows) {
			return
		}
		id := rows[j].AdultID(sex)
		if id == "" {
			return
		}
		pl := parts[part]
		if pl == nil {
			pl = &partLayers{}
			parts[part] = pl
		}
		pl.whites = []string{id}
	}
	for _, bodyID := range bodyIDs {
		for i, row := range rows {
			if row.AdultID(sex) != bodyID || row.BodyPart != domain.PartBody {
				continue
			}
			if !haveMane {
				infer(domain.PartMane, i+offset(domain.PartMane, domain.PartBody, 1))
			}
			if !haveTail {
				infer(domain.PartTail, i+offset(domain.PartTail, domain.PartBody, 2))
			}
			break
		}
	}
	return nil
}

// assemble emits each part's colour, whites and reserves in breed order.
// Parts missing from the order are dropped.
func assemble(order domain.BreedOrder, sex domain.Sex, parts map[string]*partLayers) []layer.Key {
	names := make([]string, 0, len(parts))
	for part := range parts {
		if order.Index(part) >= 0 {
			names = append(names, part)
		}
	}
	sort.Slice(names, func(i, j int) bool { return order.Index(names[i]) < order.Index(names[j]) })

	var keys []layer.Key
	for _, part := range names {
		p := parts[part]
		if p.colourID != "" {
			keys = append(keys, layer.Adult(layer.Colours, sex, part, p.colourID))
		}
		for _, id := range p.whites {
			keys = append(keys, layer.Adult(layer.Whites, sex, part, id))
		}
		for _, id := range p.reserves {
			keys = append(keys, layer.Adult(layer.Whites, sex, part, id))
		}
	}
	return keys
}

// display appends pattern names and roan/rabicano markers to the named colour.
func display(info *naming.Info, rs reserveOutcome, isRoan, isRab bool) (color, dilution string) {
	color, dilution = info.Color, info.Dilution
	if len(rs.names) > 0 {
		color += " " + strings.Join(rs.names, " ")
	}
	if isRoan && !strings.Contains(color, colorRoan) {
		color += " " + colorRoan
	}
	if isRab && !strings.Contains(color, colorRabicano) {
		color += " " + colorRabicano
	}
	if len(rs.genotypes) > 0 {
		dilution += " " + strings.Join(rs.genotypes, " ")
	}
	if isRoan && !hasField(dilution, geneRoan) {
		dilution += " " + geneRoan
	}
	if isRab && !hasField(dilution, geneRabicano) {
		dilution += " " + geneRabicano
	}
	return strings.TrimSpace(color), strings.TrimSpace(dilution)
}

func hasField(s, field string) bool {
	for _, f := range strings.Fields(s) {
		if f == field {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
