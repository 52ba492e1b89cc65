package tagreader

import (
	"os"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	mp3dec "github.com/llehouerou/go-mp3"
)

// readMP3 decodes ID3 tags via dhowden/tag for the common fields, then
// re-opens the file with bogem/id3v2 for frame-level access: preferring
// TDOR over TYER/TDRC needs to see the raw frames, which dhowden's
// generic Metadata interface collapses into a single Year() int.
// Duration comes from an mp3 frame scan (container headers don't carry an
// exact duration for this format). A file with no readable tags and no
// decodable MPEG frames is reported as apperr.Unsupported.
func readMP3(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.IO, "open mp3 file", err)
	}
	defer f.Close()

	m, genericErr := tag.ReadFrom(f)
	var fl fields
	var embedded []byte
	if genericErr == nil {
		fl = fieldsFromGenericTag(m)
		embedded = genericEmbeddedPicture(m)
	}

	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	hasID3Frames := false
	if err != nil {
		if genericErr != nil {
			return Result{}, apperr.Wrap(apperr.Unsupported, "decode mp3 tags", err)
		}
	} else {
		defer id3tag.Close()
		hasID3Frames = id3tag.HasFrames()
		applyID3v2Frames(id3tag, &fl)
		if embedded == nil {
			if frames := id3tag.GetFrames("APIC"); len(frames) > 0 {
				if pic, ok := frames[0].(id3v2.PictureFrame); ok {
					embedded = pic.Picture
				}
			}
		}
		if fl.title == "" {
			fl.title = id3tag.Title()
		}
	}

	duration := mp3FrameScanDuration(path)
	if genericErr != nil && !hasID3Frames && duration == nil {
		return Result{}, apperr.New(apperr.Unsupported, "no tags or decodable frames in mp3 file")
	}
	rec := toSongRecord(fl, path, "", duration, len(embedded) > 0)
	return Result{Record: rec, EmbeddedPicture: embedded}, nil
}

// applyID3v2Frames layers frame-level ID3v2 data over the generic-tag
// fields: multi-valued artist/composer/lyricist frames (TPE1/TCOM/TEXT can
// repeat) and the TDOR-over-TYER/TDRC year preference.
func applyID3v2Frames(id3tag *id3v2.Tag, fl *fields) {
	if v := textFrameValues(id3tag, "TPE1"); len(v) > 0 {
		fl.artists = v
	}
	if v := textFrameValues(id3tag, "TPE2"); len(v) > 0 {
		fl.albumArtists = v
	} else if fl.albumArtists == nil {
		fl.albumArtists = fl.artists
	}
	if v := textFrameValues(id3tag, "TCOM"); len(v) > 0 {
		fl.composers = v
	}
	if v := textFrameValues(id3tag, "TEXT"); len(v) > 0 {
		fl.lyricists = v
	}
	if v := textFrameValues(id3tag, "TCON"); len(v) > 0 {
		fl.genres = v
	}
	if v := textFrameValues(id3tag, "TPUB"); len(v) > 0 {
		fl.labels = v
	}

	// TDOR (Original Date Released) is preferred over TYER/TDRC when present.
	if y := firstFrameYear(id3tag, "TDOR"); y != nil {
		fl.year = y
	} else if y := firstFrameYear(id3tag, "TDRC"); y != nil {
		fl.year = y
	} else if y := firstFrameYear(id3tag, "TYER"); y != nil {
		fl.year = y
	}
}

func textFrameValues(id3tag *id3v2.Tag, frameID string) []string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return nil
	}
	var out []string
	for _, frame := range frames {
		if tf, ok := frame.(id3v2.TextFrame); ok && tf.Text != "" {
			out = append(out, tf.Text)
		}
	}
	return out
}

func firstFrameYear(id3tag *id3v2.Tag, frameID string) *int {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return nil
	}
	tf, ok := frames[0].(id3v2.TextFrame)
	if !ok || len(tf.Text) < 4 {
		return nil
	}
	return atoiPtr(tf.Text[:4])
}

// mp3FrameScanDuration computes duration by decoding every MPEG frame,
// since go-mp3 exposes sample count and rate but MP3 containers carry no
// duration header of their own. A scan failure yields nil rather than
// aborting the file's read.
func mp3FrameScanDuration(path string) *int {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	dec, err := mp3dec.NewDecoder(f)
	if err != nil {
		return nil
	}
	sampleRate := dec.SampleRate()
	if sampleRate <= 0 {
		return nil
	}
	samples := dec.Length() / 4 // go-mp3 always decodes to 16-bit stereo (4 bytes/sample-pair)
	seconds := int(samples / int64(sampleRate))
	return &seconds
}
