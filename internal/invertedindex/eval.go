package invertedindex

// Matcher answers whether (field, term) holds for the document currently
// under evaluation; segment.go's per-document evaluation supplies one
// backed by the posting lists loaded for that document.
type Matcher func(field Field, term string) bool

// Matches evaluates the Boolean tree against m, implementing Occur
// semantics: Must/Should groups succeed if at least one Must/Should
// clause at each level holds appropriately (Should: any one is enough
// when no Must exists in the same group; Must: all Must children must
// hold; MustNot: the child must not hold).
func Matches(b *Boolean, m Matcher) bool {
	if b == nil {
		return true
	}
	if b.Leaf != nil {
		return m(b.Leaf.Field, b.Leaf.Text)
	}

	anyShould := false
	sawShould := false
	for _, c := range b.Children {
		switch c.Occur {
		case Must:
			if !Matches(c.Node, m) {
				return false
			}
		case MustNot:
			if Matches(c.Node, m) {
				return false
			}
		case Should:
			sawShould = true
			if Matches(c.Node, m) {
				anyShould = true
			}
		}
	}
	if sawShould && !anyShould {
		return false
	}
	return true
}
