package tagreader

import (
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// readFLAC decodes the Vorbis comment and picture metadata blocks
// directly (go-flac + flacvorbis + flacpicture), and computes duration
// from the STREAMINFO block, the one container header FLAC carries.
// Files go-flac can't parse fall back to taglib.
func readFLAC(path string) (Result, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return readTaglib(path)
	}

	var fl fields
	var embedded []byte
	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			if vc, err := flacvorbis.ParseFromMetaDataBlock(*meta); err == nil {
				fl = fieldsFromVorbisComment(vc)
			}
		case goflac.Picture:
			if pic, err := flacpicture.ParseFromMetaDataBlock(*meta); err == nil {
				embedded = pic.ImageData
			}
		}
	}

	duration := flacStreamInfoDuration(f)
	rec := toSongRecord(fl, path, "", duration, len(embedded) > 0)
	return Result{Record: rec, EmbeddedPicture: embedded}, nil
}

func fieldsFromVorbisComment(vc *flacvorbis.MetaDataBlockVorbisComment) fields {
	fl := fields{
		title:        firstVorbis(vc, "TITLE"),
		album:        firstVorbis(vc, "ALBUM"),
		artists:      allVorbis(vc, "ARTIST"),
		albumArtists: allVorbis(vc, "ALBUMARTIST"),
		composers:    allVorbis(vc, "COMPOSER"),
		lyricists:    allVorbis(vc, "LYRICIST"),
		genres:       allVorbis(vc, "GENRE"),
		labels:       allVorbis(vc, "LABEL"),
	}
	if fl.albumArtists == nil {
		fl.albumArtists = fl.artists
	}
	if v := firstVorbis(vc, "TRACKNUMBER"); v != "" {
		fl.trackNumber = atoiPtr(firstNumber(v))
	}
	if v := firstVorbis(vc, "DISCNUMBER"); v != "" {
		fl.discNumber = atoiPtr(firstNumber(v))
	}
	date := firstVorbis(vc, "DATE")
	if date == "" {
		date = firstVorbis(vc, "YEAR")
	}
	if len(date) >= 4 {
		fl.year = atoiPtr(date[:4])
	}
	return fl
}

// firstNumber strips a "N/total" track/disc value down to its numerator.
func firstNumber(s string) string {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func firstVorbis(vc *flacvorbis.MetaDataBlockVorbisComment, key string) string {
	values, err := vc.Get(key)
	if err != nil || len(values) == 0 {
		return ""
	}
	return values[0]
}

func allVorbis(vc *flacvorbis.MetaDataBlockVorbisComment, key string) []string {
	values, err := vc.Get(key)
	if err != nil {
		return nil
	}
	return values
}

// flacStreamInfoDuration reads total_samples and sample_rate out of the
// STREAMINFO block per its fixed bit layout.
func flacStreamInfoDuration(f *goflac.File) *int {
	for _, meta := range f.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])
		if sampleRate <= 0 {
			return nil
		}
		seconds := int(totalSamples / int64(sampleRate))
		return &seconds
	}
	return nil
}
