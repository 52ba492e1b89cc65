// Package collection implements the in-memory collection index: the
// mutable staging structure a scan fills in (index builder, C3) and the
// immutable snapshot it freezes into (collection index, C4).
package collection

import (
	"time"

	"github.com/agersant/polaris/internal/search"
)

// SongID is a dense integer identifying a song within one Snapshot. It is
// only stable within that snapshot's lifetime — a rescan assigns fresh ids.
type SongID int32

// Song is one audio file's metadata, keyed by VirtualPath.
type Song struct {
	ID                SongID `json:"-"`
	VirtualPath       string `json:"virtual_path"`
	RealPath          string `json:"-"`
	ParentVirtualPath string `json:"parent_virtual_path"`

	TrackNumber     *int `json:"track_number,omitempty"`
	DiscNumber      *int `json:"disc_number,omitempty"`
	Year            *int `json:"year,omitempty"`
	DurationSeconds *int `json:"duration_seconds,omitempty"`

	Title string `json:"title,omitempty"`
	Album string `json:"album,omitempty"`

	Artists      []string `json:"artists,omitempty"`
	AlbumArtists []string `json:"album_artists,omitempty"`
	Composers    []string `json:"composers,omitempty"`
	Lyricists    []string `json:"lyricists,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Labels       []string `json:"labels,omitempty"`

	// Artwork is either a virtual path to an image file, or
	// "embedded:<song_virtual_path>" when the art comes from the song's
	// own embedded picture.
	Artwork string `json:"artwork,omitempty"`

	// DateAdded is seconds since epoch, set the first time this
	// real_path was observed and carried forward on every later rescan.
	DateAdded int64 `json:"date_added"`
}

// Directory is one traversed directory, with aggregates computed from its
// direct song children.
type Directory struct {
	VirtualPath       string `json:"virtual_path"`
	RealPath          string `json:"-"`
	ParentVirtualPath string `json:"parent_virtual_path"`

	Album   string   `json:"album,omitempty"`
	Year    *int     `json:"year,omitempty"`
	Artists []string `json:"artists,omitempty"`
	Artwork string   `json:"artwork,omitempty"`

	DateAdded int64 `json:"date_added"`
}

// AlbumKey identifies an album by its normalized title and normalized,
// sorted album-artist list — never by file path.
type AlbumKey struct {
	NormalizedTitle        string `json:"-"`
	NormalizedAlbumArtists string `json:"-"`
}

// Album is synthesized from songs sharing an AlbumKey.
type Album struct {
	Key          AlbumKey `json:"-"`
	Title        string   `json:"title"`
	AlbumArtists []string `json:"album_artists,omitempty"`
	Year         *int     `json:"year,omitempty"`
	Artwork      string   `json:"artwork,omitempty"`
	// SongIDs is ordered by (disc, track, virtual_path).
	SongIDs   []SongID `json:"-"`
	DateAdded int64    `json:"date_added"`
}

// Artist is synthesized from the role fields of every song, keyed by
// normalized name.
type Artist struct {
	NormalizedName string `json:"-"`
	Name           string `json:"name"`

	AppearsAsMain        bool `json:"appears_as_main"`
	AppearsAsAlbumArtist bool `json:"appears_as_album_artist"`
	AppearsAsComposer    bool `json:"appears_as_composer"`
	AppearsAsLyricist    bool `json:"appears_as_lyricist"`
}

// Genre is synthesized the same way as Artist, minus the role flags.
type Genre struct {
	NormalizedName string `json:"-"`
	Name           string `json:"name"`
}

// EntryKind distinguishes browse() results.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindSong
)

// MarshalJSON renders an EntryKind as the lowercase string the HTTP
// surface documents ("directory" or "song") rather than its int value.
func (k EntryKind) MarshalJSON() ([]byte, error) {
	if k == KindSong {
		return []byte(`"song"`), nil
	}
	return []byte(`"directory"`), nil
}

// Entry is one child returned by browse().
type Entry struct {
	Kind        EntryKind  `json:"kind"`
	VirtualPath string     `json:"virtual_path"`
	Directory   *Directory `json:"directory,omitempty"`
	Song        *Song      `json:"song,omitempty"`
}

// Snapshot is an immutable, fully consistent view of the collection.
// Once published it is never mutated; a reader that captures a *Snapshot
// keeps a fully self-consistent view regardless of later rescans.
type Snapshot struct {
	Version uint64
	BuiltAt time.Time

	// Songs is dense and indexed by SongID.
	Songs []Song

	directories map[string]*Directory
	// dirChildren maps a directory's virtual path to the virtual paths
	// of its direct children (directories and songs), unsorted; browse()
	// sorts at query time since it's cheap at this scale and keeps the
	// builder simpler.
	dirChildren map[string][]string

	albums       map[AlbumKey]*Album
	albumOrder   []AlbumKey // insertion order, stable basis for random/recent
	artists      map[string]*Artist
	genres       map[string]*Genre
	pathToSongID map[string]SongID

	textIndex *search.Index
}
