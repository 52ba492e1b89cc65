package collection

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// leadingArticles are stripped only when computing a sort key — never for
// identity. Display strings (Song.Title, Album.Title, ...) always keep the
// article the tag actually carried.
var leadingArticles = []string{"the ", "a ", "an "}

// normalizeKey is the identity key used for AlbumKey and Artist/Genre
// lookups: Unicode NFC normalization plus casefold, nothing more. It is
// never applied to virtual paths, which are identity by construction.
func normalizeKey(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// normalizeJoinedKey builds the AlbumKey album-artist component: each
// artist normalized individually, then sorted and joined so that the
// order of an artist credit list doesn't change identity.
func normalizeJoinedKey(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = normalizeKey(v)
	}
	sort.Strings(parts)
	return strings.Join(parts, "\x1f")
}

// sortKey produces the key used for alphabetical ordering of the Albums,
// Artists and Genres listings (random/recent ties compare AlbumKey
// instead, and songs within an album are ordered by disc/track):
// identity normalization plus a single leading-article strip, so "The
// Beatles" sorts under "b".
func sortKey(s string) string {
	folded := normalizeKey(s)
	for _, article := range leadingArticles {
		if strings.HasPrefix(folded, article) {
			return folded[len(article):]
		}
	}
	return folded
}
