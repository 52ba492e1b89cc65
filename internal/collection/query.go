package collection

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/search"
)

// Browse returns the direct children of virtualPath, directories first,
// both groups sorted case-insensitively on their last path segment.
func (s *Snapshot) Browse(virtualPath string) ([]Entry, error) {
	if virtualPath != "" {
		if _, isDir := s.directories[virtualPath]; !isDir {
			if _, isSong := s.pathToSongID[virtualPath]; !isSong {
				return nil, apperr.New(apperr.NotFound, "no such path: "+virtualPath)
			}
			return nil, apperr.New(apperr.BadRequest, "cannot browse a song path: "+virtualPath)
		}
	}

	children := s.dirChildren[virtualPath]
	var dirEntries, songEntries []Entry
	for _, childVP := range children {
		if dir, ok := s.directories[childVP]; ok {
			dirEntries = append(dirEntries, Entry{Kind: KindDirectory, VirtualPath: childVP, Directory: dir})
			continue
		}
		if id, ok := s.pathToSongID[childVP]; ok {
			song := s.Songs[id]
			songEntries = append(songEntries, Entry{Kind: KindSong, VirtualPath: childVP, Song: &song})
		}
	}
	sortEntriesByLastSegment(dirEntries)
	sortEntriesByLastSegment(songEntries)
	return append(dirEntries, songEntries...), nil
}

func sortEntriesByLastSegment(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(lastSegment(entries[i].VirtualPath)) < strings.ToLower(lastSegment(entries[j].VirtualPath))
	})
}

func lastSegment(vp string) string {
	if idx := strings.LastIndex(vp, "/"); idx >= 0 {
		return vp[idx+1:]
	}
	return vp
}

// Flatten returns every song under virtualPath's subtree (including
// virtualPath itself if it names a song), ordered by (disc, track,
// virtual_path), bounded by (offset, limit). limit <= 0 means unbounded.
func (s *Snapshot) Flatten(virtualPath string, offset, limit int) ([]Song, error) {
	var songs []Song
	if id, ok := s.pathToSongID[virtualPath]; ok {
		songs = append(songs, s.Songs[id])
	} else if _, ok := s.directories[virtualPath]; ok || virtualPath == "" {
		s.collectSongs(virtualPath, &songs)
	} else {
		return nil, apperr.New(apperr.NotFound, "no such path: "+virtualPath)
	}

	sort.Slice(songs, func(i, j int) bool { return songOrderLess(&songs[i], &songs[j]) })
	return paginateSongs(songs, offset, limit), nil
}

func (s *Snapshot) collectSongs(virtualPath string, out *[]Song) {
	for _, childVP := range s.dirChildren[virtualPath] {
		if id, ok := s.pathToSongID[childVP]; ok {
			*out = append(*out, s.Songs[id])
			continue
		}
		s.collectSongs(childVP, out)
	}
}

func paginateSongs(songs []Song, offset, limit int) []Song {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(songs) {
		return nil
	}
	end := len(songs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return songs[offset:end]
}

// SongOrNotFound is one result slot of GetSongs: exactly one of Song or
// NotFound is meaningful.
type SongOrNotFound struct {
	Path     string `json:"path"`
	Song     *Song  `json:"song,omitempty"`
	NotFound bool   `json:"not_found,omitempty"`
}

// GetSongs echoes metadata for each requested path in request order.
func (s *Snapshot) GetSongs(paths []string) []SongOrNotFound {
	out := make([]SongOrNotFound, len(paths))
	for i, p := range paths {
		if id, ok := s.pathToSongID[p]; ok {
			song := s.Songs[id]
			out[i] = SongOrNotFound{Path: p, Song: &song}
		} else {
			out[i] = SongOrNotFound{Path: p, NotFound: true}
		}
	}
	return out
}

// Albums returns every album, ordered alphabetically by title (sort key).
func (s *Snapshot) Albums(offset, limit int) []Album {
	albums := s.allAlbums()
	sort.Slice(albums, func(i, j int) bool {
		ki, kj := sortKey(albums[i].Title), sortKey(albums[j].Title)
		if ki != kj {
			return ki < kj
		}
		return albums[i].Key.NormalizedAlbumArtists < albums[j].Key.NormalizedAlbumArtists
	})
	return paginateAlbums(albums, offset, limit)
}

func (s *Snapshot) allAlbums() []Album {
	albums := make([]Album, 0, len(s.albumOrder))
	for _, key := range s.albumOrder {
		albums = append(albums, *s.albums[key])
	}
	return albums
}

func paginateAlbums(albums []Album, offset, limit int) []Album {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(albums) {
		return nil
	}
	end := len(albums)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return albums[offset:end]
}

// AlbumsRandom returns a deterministic, seed-derived permutation window of
// all albums. The same (seed, snapshot version) always yields the same
// ordering; different seeds yield the same underlying set in a different
// order.
func (s *Snapshot) AlbumsRandom(seed int64, offset, limit int) []Album {
	// Canonical pre-shuffle order must not depend on map iteration or
	// insertion order so the permutation is reproducible.
	keys := append([]AlbumKey(nil), s.albumOrder...)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].NormalizedTitle != keys[j].NormalizedTitle {
			return keys[i].NormalizedTitle < keys[j].NormalizedTitle
		}
		return keys[i].NormalizedAlbumArtists < keys[j].NormalizedAlbumArtists
	})

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	albums := make([]Album, len(keys))
	for i, key := range keys {
		albums[i] = *s.albums[key]
	}
	return paginateAlbums(albums, offset, limit)
}

// AlbumsRecent returns albums ordered by date_added descending, ties
// broken by album key.
func (s *Snapshot) AlbumsRecent(offset, limit int) []Album {
	albums := s.allAlbums()
	sort.Slice(albums, func(i, j int) bool {
		if albums[i].DateAdded != albums[j].DateAdded {
			return albums[i].DateAdded > albums[j].DateAdded
		}
		if albums[i].Key.NormalizedTitle != albums[j].Key.NormalizedTitle {
			return albums[i].Key.NormalizedTitle < albums[j].Key.NormalizedTitle
		}
		return albums[i].Key.NormalizedAlbumArtists < albums[j].Key.NormalizedAlbumArtists
	})
	return paginateAlbums(albums, offset, limit)
}

// Artists returns every artist, sorted by sort key.
func (s *Snapshot) Artists() []Artist {
	artists := make([]Artist, 0, len(s.artists))
	for _, a := range s.artists {
		artists = append(artists, *a)
	}
	sort.Slice(artists, func(i, j int) bool { return sortKey(artists[i].Name) < sortKey(artists[j].Name) })
	return artists
}

// Artist looks up one artist by name (any casing/form that normalizes to
// the stored key).
func (s *Snapshot) Artist(name string) (Artist, error) {
	a, ok := s.artists[normalizeKey(name)]
	if !ok {
		return Artist{}, apperr.New(apperr.NotFound, "no such artist: "+name)
	}
	return *a, nil
}

// Genres returns every genre, sorted by sort key.
func (s *Snapshot) Genres() []Genre {
	genres := make([]Genre, 0, len(s.genres))
	for _, g := range s.genres {
		genres = append(genres, *g)
	}
	sort.Slice(genres, func(i, j int) bool { return sortKey(genres[i].Name) < sortKey(genres[j].Name) })
	return genres
}

// Genre looks up one genre by name.
func (s *Snapshot) Genre(name string) (Genre, error) {
	g, ok := s.genres[normalizeKey(name)]
	if !ok {
		return Genre{}, apperr.New(apperr.NotFound, "no such genre: "+name)
	}
	return *g, nil
}

// BadQuery reports a malformed search query. Search leaves Token empty:
// neither the offending token nor its offset is reported.
type BadQuery struct {
	Query string
	Token string
}

func (e *BadQuery) Error() string { return "malformed search query: " + e.Query }

// Search evaluates a structured boolean query against the text index and
// returns matching songs ordered by (album, disc, track, virtual_path).
func (s *Snapshot) Search(query string, offset, limit int) ([]Song, error) {
	q, err := search.Parse(query)
	if err != nil {
		return nil, &BadQuery{Query: query}
	}
	bitmap, err := q.Evaluate(s.textIndex)
	if err != nil {
		return nil, &BadQuery{Query: query}
	}

	var songs []Song
	it := bitmap.Iterator()
	for it.HasNext() {
		id := SongID(it.Next())
		if int(id) < len(s.Songs) {
			songs = append(songs, s.Songs[id])
		}
	}

	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Album != songs[j].Album {
			return songs[i].Album < songs[j].Album
		}
		return songOrderLess(&songs[i], &songs[j])
	})
	return paginateSongs(songs, offset, limit), nil
}

// parseYearLiteral parses a raw decimal year. Nothing in this package
// calls it, and being unexported it is not reachable from other packages.
func parseYearLiteral(s string) (int, error) { return strconv.Atoi(s) }
