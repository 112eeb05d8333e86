package invertedindex

// Occur mirrors the classic boolean-query occurrence semantics: a clause
// either MUST hold, SHOULD (at least one of a disjunction) hold, or
// MUST_NOT hold (spec.md §4.1 "Boolean{Occur, clause}").
type Occur int

const (
	Should Occur = iota
	Must
	MustNot
)

// Clause is a leaf field+pattern test: e.g. (Body, "fox") means "the body
// field contains the term fox".
type Clause struct {
	Field Field
	Text  string
}

// Field identifies which searchable text field a Clause tests.
type Field int

const (
	FieldAllBody Field = iota
	FieldTitle
	FieldCleanBody
	FieldUrlField
	FieldSiteField
	FieldKeyPhrase
)

// Boolean is the query tree produced from parsed Terms: either a single
// Clause, or a list of (Occur, Boolean) children.
type Boolean struct {
	Leaf     *Clause
	Children []OccurChild
}

// OccurChild pairs a sub-tree with how it must occur in its parent.
type OccurChild struct {
	Occur Occur
	Node  *Boolean
}

func leaf(field Field, text string) *Boolean {
	return &Boolean{Leaf: &Clause{Field: field, Text: text}}
}

// BuildBoolean converts parsed Terms into the Boolean tree shape: a
// SimpleOrPhrase term disjuncts over every searchable text field; Site,
// Title, Body, Url terms become single must-clauses on their field;
// Not wraps its inner term's tree as MustNot.
func BuildBoolean(terms []Term) *Boolean {
	root := &Boolean{}
	for _, t := range terms {
		root.Children = append(root.Children, OccurChild{Occur: Must, Node: buildOne(t)})
	}
	return root
}

func buildOne(t Term) *Boolean {
	switch t.Kind {
	case KindSimple:
		disj := &Boolean{}
		for _, f := range []Field{FieldAllBody, FieldTitle, FieldCleanBody, FieldUrlField, FieldSiteField} {
			disj.Children = append(disj.Children, OccurChild{Occur: Should, Node: leaf(f, t.Text)})
		}
		return disj
	case KindPhrase:
		disj := &Boolean{}
		phrase := joinPhrase(t.Phrase)
		for _, f := range []Field{FieldAllBody, FieldTitle, FieldCleanBody} {
			disj.Children = append(disj.Children, OccurChild{Occur: Should, Node: leaf(f, phrase)})
		}
		return disj
	case KindSite:
		return leaf(FieldSiteField, t.Text)
	case KindTitle:
		return leaf(FieldTitle, t.Text)
	case KindBody:
		return leaf(FieldCleanBody, t.Text)
	case KindUrl:
		return leaf(FieldUrlField, t.Text)
	case KindNot:
		inner := buildOne(*t.Inner)
		return &Boolean{Children: []OccurChild{{Occur: MustNot, Node: inner}}}
	default:
		return &Boolean{}
	}
}

func joinPhrase(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

// CompactDistributive applies `(A|B) & (A|C) → A & (B|C)` distributive
// factoring across two MUST children that are themselves disjunctions
// sharing a common clause, avoiding double-evaluating the shared term
// (spec.md §4.1 compaction pass i).
func CompactDistributive(b *Boolean) *Boolean {
	if b == nil || b.Leaf != nil {
		return b
	}
	for i := range b.Children {
		b.Children[i].Node = CompactDistributive(b.Children[i].Node)
	}
	for i := 0; i < len(b.Children); i++ {
		for j := i + 1; j < len(b.Children); j++ {
			a, c := b.Children[i], b.Children[j]
			if a.Occur != Must || c.Occur != Must {
				continue
			}
			shared, restA, restC, ok := factorShared(a.Node, c.Node)
			if !ok {
				continue
			}
			factored := &Boolean{Children: []OccurChild{
				{Occur: Must, Node: shared},
				{Occur: Must, Node: &Boolean{Children: []OccurChild{
					{Occur: Should, Node: restA},
					{Occur: Should, Node: restC},
				}}},
			}}
			b.Children[i] = OccurChild{Occur: Must, Node: factored}
			b.Children = append(b.Children[:j], b.Children[j+1:]...)
			return CompactDistributive(b)
		}
	}
	return b
}

func factorShared(a, c *Boolean) (shared, restA, restC *Boolean, ok bool) {
	if a.Leaf != nil || c.Leaf != nil || len(a.Children) == 0 || len(c.Children) == 0 {
		return nil, nil, nil, false
	}
	for _, ca := range a.Children {
		for _, cc := range c.Children {
			if sameLeaf(ca.Node, cc.Node) {
				return ca.Node, removeChild(a, ca), removeChild(c, cc), true
			}
		}
	}
	return nil, nil, nil, false
}

func sameLeaf(a, b *Boolean) bool {
	return a.Leaf != nil && b.Leaf != nil && *a.Leaf == *b.Leaf
}

func removeChild(b *Boolean, skip OccurChild) *Boolean {
	out := &Boolean{}
	for _, c := range b.Children {
		if c.Node == skip.Node {
			continue
		}
		out.Children = append(out.Children, c)
	}
	if len(out.Children) == 1 {
		return out.Children[0].Node
	}
	return out
}

// CompactSingleClause collapses any Boolean node that wraps exactly one
// Should/Must child into that child directly (spec.md §4.1 compaction
// pass ii).
func CompactSingleClause(b *Boolean) *Boolean {
	if b == nil || b.Leaf != nil {
		return b
	}
	for i := range b.Children {
		b.Children[i].Node = CompactSingleClause(b.Children[i].Node)
	}
	if len(b.Children) == 1 && b.Children[0].Occur != MustNot {
		return b.Children[0].Node
	}
	return b
}

// DedupeTerms removes duplicate identical leaves within the same Should
// group, since evaluating the same (field, term) twice changes neither
// the match set nor the score (spec.md §4.1 compaction pass iii).
func DedupeTerms(b *Boolean) *Boolean {
	if b == nil || b.Leaf != nil {
		return b
	}
	seen := make(map[Clause]bool)
	var out []OccurChild
	for _, c := range b.Children {
		c.Node = DedupeTerms(c.Node)
		if c.Node.Leaf != nil {
			if seen[*c.Node.Leaf] {
				continue
			}
			seen[*c.Node.Leaf] = true
		}
		out = append(out, c)
	}
	b.Children = out
	return b
}

// Compact applies all three compaction passes in order.
func Compact(b *Boolean) *Boolean {
	b = CompactDistributive(b)
	b = CompactSingleClause(b)
	b = DedupeTerms(b)
	return b
}
