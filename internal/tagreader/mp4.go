package tagreader

import (
	"os"

	"github.com/Sorrow446/go-mp4tag"
	"github.com/dhowden/tag"
)

// readMP4 decodes mp4/m4a/m4b via dhowden/tag; some ffmpeg-muxed files use
// box layouts dhowden/tag doesn't understand, so a parse failure falls
// back to go-mp4tag.
func readMP4(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return readMP4Tag(path)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return readMP4Tag(path)
	}

	fl := fieldsFromGenericTag(m)
	embedded := genericEmbeddedPicture(m)
	rec := toSongRecord(fl, path, "", nil, len(embedded) > 0)
	return Result{Record: rec, EmbeddedPicture: embedded}, nil
}

// readMP4Tag is the go-mp4tag fallback path for files dhowden/tag rejects.
// go-mp4tag's read support is limited to the tags it also knows how to
// write; when it can't open the file either, taglib is the last resort.
func readMP4Tag(path string) (Result, error) {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return readTaglib(path)
	}
	defer mp4.Close()

	tags, err := mp4.Read()
	if err != nil || tags == nil {
		return readTaglib(path)
	}

	fl := fields{
		title:        tags.Title,
		album:        tags.Album,
		artists:      singleIfNonEmpty(tags.Artist),
		albumArtists: singleIfNonEmpty(tags.AlbumArtist),
		genres:       singleIfNonEmpty(tags.Genre),
	}
	if fl.albumArtists == nil {
		fl.albumArtists = fl.artists
	}
	if tags.TrackNumber > 0 {
		fl.trackNumber = intPtr(int(tags.TrackNumber))
	}
	if tags.DiscNumber > 0 {
		fl.discNumber = intPtr(int(tags.DiscNumber))
	}
	if tags.Year > 0 {
		fl.year = intPtr(int(tags.Year))
	}

	var embedded []byte
	if len(tags.Pictures) > 0 {
		embedded = tags.Pictures[0].Data
	}
	rec := toSongRecord(fl, path, "", nil, len(embedded) > 0)
	return Result{Record: rec, EmbeddedPicture: embedded}, nil
}
