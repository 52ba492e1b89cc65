package tagreader

import (
	"github.com/agersant/polaris/internal/apperr"
	"go.senan.xyz/taglib"
)

// readTaglib is the TagLib-backed reader for formats with no coverage in
// dhowden/tag or the other format-specific libraries (mpc, ape, wav,
// aiff), and the general fallback when a format's primary and
// format-specific readers both fail.
func readTaglib(path string) (Result, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Unsupported, "decode tags via taglib", err)
	}

	get := func(key string) string {
		if v := raw[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	getAll := func(key string) []string { return raw[key] }

	fl := fields{
		title:        get(taglib.Title),
		album:        get(taglib.Album),
		artists:      getAll(taglib.Artist),
		albumArtists: getAll(taglib.AlbumArtist),
		composers:    getAll(taglib.Composer),
		genres:       getAll(taglib.Genre),
		labels:       getAll(taglib.Label),
	}
	if fl.albumArtists == nil {
		fl.albumArtists = fl.artists
	}
	fl.trackNumber = atoiPtr(get(taglib.TrackNumber))
	fl.discNumber = atoiPtr(get(taglib.DiscNumber))
	if date := get(taglib.Date); len(date) >= 4 {
		fl.year = atoiPtr(date[:4])
	}

	properties, err := taglib.ReadProperties(path)
	var duration *int
	if err == nil && properties.Length > 0 {
		seconds := int(properties.Length.Seconds())
		duration = &seconds
	}

	rec := toSongRecord(fl, path, "", duration, false)
	return Result{Record: rec}, nil
}
