package mdtree

type kindSet map[Kind]struct{}

func setOf(kinds ...Kind) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s kindSet) has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// allowedChildren maps each kind to the kinds it may hold as direct
// children. Kinds missing from the map hold nothing.
var allowedChildren = func() map[Kind]kindSet {
	var blocks, inlines, all []Kind
	for _, k := range Kinds() {
		if k.IsBlock() && k != KindDocument && k != KindItem {
			blocks = append(blocks, k)
		}
		if k.IsInline() {
			inlines = append(inlines, k)
		}
		if k != KindDocument {
			all = append(all, k)
		}
	}

	m := map[Kind]kindSet{
		KindList:        setOf(KindItem),
		KindCustomBlock: setOf(all...),
	}
	for _, k := range []Kind{KindDocument, KindBlockQuote, KindItem} {
		m[k] = setOf(blocks...)
	}
	for _, k := range []Kind{KindParagraph, KindHeading, KindEmph, KindStrong,
		KindLink, KindImage, KindCustomInline} {
		m[k] = setOf(inlines...)
	}
	return m
}()

// AllowedChildren returns the kinds a node of kind k may hold as direct
// children, in code order.
func AllowedChildren(k Kind) []Kind {
	set := allowedChildren[k]
	var out []Kind
	for _, c := range Kinds() {
		if set.has(c) {
			out = append(out, c)
		}
	}
	return out
}

// CanContain reports whether a node of kind parent may hold child directly.
func CanContain(parent, child Kind) bool {
	return allowedChildren[parent].has(child)
}
