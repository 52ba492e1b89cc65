package tagreader

import (
	"strconv"

	"github.com/agersant/polaris/internal/collection"
	"github.com/dhowden/tag"
)

// fields is the reader-agnostic staging area every format parser fills in
// before conversion to a collection.SongRecord. Keeping this separate from
// collection.SongRecord lets each format reader populate only what it
// actually found without worrying about the record's dedup/virtual-path
// concerns, which are the index builder's job.
type fields struct {
	title, album                                    string
	artists, albumArtists, composers, lyricists      []string
	genres, labels                                   []string
	trackNumber, discNumber, year, durationSeconds   *int
}

func toSongRecord(f fields, realPath, parentRealPath string, durationSeconds *int, embedded bool) collection.SongRecord {
	if durationSeconds == nil {
		durationSeconds = f.durationSeconds
	}
	return collection.SongRecord{
		RealPath:        realPath,
		ParentRealPath:  parentRealPath,
		TrackNumber:     f.trackNumber,
		DiscNumber:      f.discNumber,
		Year:            f.year,
		DurationSeconds: durationSeconds,
		Title:           f.title,
		Album:           f.album,
		Artists:         f.artists,
		AlbumArtists:    f.albumArtists,
		Composers:       f.composers,
		Lyricists:       f.lyricists,
		Genres:          f.genres,
		Labels:          f.labels,
		EmbeddedArtwork: embedded,
	}
}

// fieldsFromGenericTag fills in the fields dhowden/tag exposes uniformly
// across every format it understands. Format-specific readers call this
// first, then layer extended/authoritative fields (e.g. TDOR, multi-valued
// artist lists) on top from their own format-specific parse.
func fieldsFromGenericTag(m tag.Metadata) fields {
	track, _ := m.Track()
	disc, _ := m.Disc()
	f := fields{
		title:        m.Title(),
		album:        m.Album(),
		artists:      singleIfNonEmpty(m.Artist()),
		albumArtists: singleIfNonEmpty(m.AlbumArtist()),
		genres:       singleIfNonEmpty(m.Genre()),
	}
	if track > 0 {
		f.trackNumber = intPtr(track)
	}
	if disc > 0 {
		f.discNumber = intPtr(disc)
	}
	if y := m.Year(); y > 0 {
		f.year = intPtr(y)
	}
	if f.albumArtists == nil {
		f.albumArtists = f.artists
	}
	return f
}

func genericEmbeddedPicture(m tag.Metadata) []byte {
	if p := m.Picture(); p != nil {
		return p.Data
	}
	return nil
}

// singleIfNonEmpty wraps a single scalar tag value into the multi-valued
// list shape the rest of the system expects. A value containing
// separators is never split here — dhowden/tag already hands back one
// undivided string per field.
func singleIfNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func intPtr(v int) *int { return &v }

func atoiPtr(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
