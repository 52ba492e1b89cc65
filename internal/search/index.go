// Package search implements the structured boolean query grammar and the
// postings index it evaluates against. Postings are represented as
// github.com/RoaringBitmap/roaring/v2 bitmaps, used here as a direct
// dependency rather than only transitively through a full-text search
// engine: it gives compressed, fast set algebra (AND/OR/ANDNOT) over
// integer document ids, which is exactly what evaluating boolean search
// queries needs.
package search

import (
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/text/unicode/norm"
)

// DocID is the integer id a caller assigns to each indexed document (in
// practice, collection.SongID). Kept as its own type so this package has no
// dependency on the collection package it's indexed for.
type DocID uint32

// DefaultFields lists the fields folded into the "any" pseudo-field that
// bare (unqualified) query terms match against.
var DefaultFields = []string{"title", "album", "artist", "album_artist", "composer", "lyricist", "genre", "label"}

// trieNode is a node in a per-field prefix trie over indexed tokens, used
// to resolve a bare substring term against every token that starts with it.
type trieNode struct {
	children map[byte]*trieNode
	terminal bool
}

func (n *trieNode) insert(token string) {
	cur := n
	for i := 0; i < len(token); i++ {
		c := token[i]
		if cur.children == nil {
			cur.children = make(map[byte]*trieNode)
		}
		next, ok := cur.children[c]
		if !ok {
			next = &trieNode{}
			cur.children[c] = next
		}
		cur = next
	}
	cur.terminal = true
}

// collect returns every complete token reachable from the node at prefix,
// or nil if no token has that prefix.
func (n *trieNode) collect(prefix string) []string {
	cur := n
	for i := 0; i < len(prefix); i++ {
		next, ok := cur.children[prefix[i]]
		if !ok {
			return nil
		}
		cur = next
	}
	var out []string
	var walk func(node *trieNode, acc string)
	walk = func(node *trieNode, acc string) {
		if node.terminal {
			out = append(out, acc)
		}
		for c, child := range node.children {
			walk(child, acc+string(c))
		}
	}
	walk(cur, prefix)
	return out
}

// Index is the per-snapshot text + numeric postings structure built once
// at publish time and never mutated afterward, so concurrent readers need
// no locking.
type Index struct {
	postings map[string]*roaring.Bitmap // key: field + "\x00" + token
	tries    map[string]*trieNode       // one prefix trie per field
	allDocs  *roaring.Bitmap
	years    map[DocID]int
}

// NewIndex returns an empty, buildable index.
func NewIndex() *Index {
	return &Index{
		postings: make(map[string]*roaring.Bitmap),
		tries:    make(map[string]*trieNode),
		allDocs:  roaring.New(),
		years:    make(map[DocID]int),
	}
}

// AddDocument tokenizes and indexes one document's field values. fields
// maps a field name (title, album, artist, album_artist, composer,
// lyricist, genre, label, path) to its (possibly multi-valued) text. Year,
// if known, is indexed separately via SetYear.
func (idx *Index) AddDocument(id DocID, fields map[string][]string) {
	idx.allDocs.Add(uint32(id))
	anyEligible := make(map[string]bool, len(DefaultFields))
	for _, f := range DefaultFields {
		anyEligible[f] = true
	}
	for field, values := range fields {
		for _, value := range values {
			for _, token := range Tokenize(value) {
				idx.addPosting(field, token, id)
				if anyEligible[field] {
					idx.addPosting("any", token, id)
				}
			}
		}
	}
}

// SetYear records a document's year for range/comparison predicates. It is
// kept separate from the token postings because year predicates are
// numeric comparisons, not text matches.
func (idx *Index) SetYear(id DocID, year int) {
	idx.years[id] = year
}

func (idx *Index) addPosting(field, token string, id DocID) {
	key := field + "\x00" + token
	bm, ok := idx.postings[key]
	if !ok {
		bm = roaring.New()
		idx.postings[key] = bm
	}
	bm.Add(uint32(id))

	trie, ok := idx.tries[field]
	if !ok {
		trie = &trieNode{}
		idx.tries[field] = trie
	}
	trie.insert(token)
}

// TokenMatches returns the set of documents whose field contains token as
// an exact indexed token.
func (idx *Index) TokenMatches(field, token string) *roaring.Bitmap {
	if bm, ok := idx.postings[field+"\x00"+token]; ok {
		return bm.Clone()
	}
	return roaring.New()
}

// PrefixMatches returns the union of postings for every token in field
// that starts with prefix — the index's "contains" approximation, driven
// by the per-field prefix trie.
func (idx *Index) PrefixMatches(field, prefix string) *roaring.Bitmap {
	result := roaring.New()
	trie, ok := idx.tries[field]
	if !ok {
		return result
	}
	for _, token := range trie.collect(prefix) {
		if bm, ok := idx.postings[field+"\x00"+token]; ok {
			result.Or(bm)
		}
	}
	return result
}

// All returns every indexed document id.
func (idx *Index) All() *roaring.Bitmap { return idx.allDocs.Clone() }

// YearPredicate evaluates a year comparison against every document with a
// known year. At collection scale (hundreds of thousands of songs) a
// single linear pass is cheap and keeps the predicate logic in one place
// instead of maintaining a second sorted-year structure.
func (idx *Index) YearPredicate(match func(year int) bool) *roaring.Bitmap {
	result := roaring.New()
	for id, year := range idx.years {
		if match(year) {
			result.Add(uint32(id))
		}
	}
	return result
}

// Tokenize splits s into lowercase, ASCII-folded tokens on non-alphanumeric
// boundaries. Identity (e.g. virtual paths used for dedup) never goes
// through Tokenize; only derived search text does.
func Tokenize(s string) []string {
	folded := foldASCII(s)
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// foldASCII decomposes s (NFD), drops combining marks so accented letters
// fold to their base letter ("é" -> "e"), recomposes (NFC) and lowercases.
// Letters with no decomposition (e.g. "ß", "ø") are kept as they are.
func foldASCII(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, norm.NFD.String(s))
	return strings.ToLower(norm.NFC.String(stripped))
}
