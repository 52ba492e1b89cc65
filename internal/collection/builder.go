package collection

import (
	"sort"
	"time"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/search"
	"github.com/agersant/polaris/internal/vpath"
)

// Builder is the mutable staging structure a single scan fills in (C3). It
// is not safe for concurrent use; the orchestrator owns exactly one
// builder per scan and calls Finish once the scan stream is exhausted.
type Builder struct {
	mounts *vpath.Table
	now    func() int64

	prevDateAdded map[string]int64 // real_path -> date_added, carried from the prior snapshot

	songRecords []SongRecord
	dirRecords  []DirectoryRecord
}

// NewBuilder starts a fresh staging structure. prev is the collection's
// current snapshot (nil on first scan); its songs seed the date_added
// carry-forward so unchanged files keep their original date_added.
func NewBuilder(mounts *vpath.Table, prev *Snapshot) *Builder {
	prevDates := make(map[string]int64)
	if prev != nil {
		for _, s := range prev.Songs {
			prevDates[s.RealPath] = s.DateAdded
		}
	}
	return &Builder{
		mounts:        mounts,
		now:           func() int64 { return time.Now().Unix() },
		prevDateAdded: prevDates,
	}
}

// AddSong stages one scanned file. Order of calls becomes the tie-break
// for id assignment; it carries no other semantic weight.
func (b *Builder) AddSong(rec SongRecord) {
	b.songRecords = append(b.songRecords, rec)
}

// AddDirectory stages one traversed directory.
func (b *Builder) AddDirectory(rec DirectoryRecord) {
	b.dirRecords = append(b.dirRecords, rec)
}

// Finish freezes the staged records into an immutable Snapshot. Songs
// staged under a real path with no matching mount are rejected with an
// Internal error — the scanner should never produce one.
func (b *Builder) Finish(version uint64) (*Snapshot, error) {
	snap := &Snapshot{
		Version:      version,
		BuiltAt:      time.Now(),
		directories:  make(map[string]*Directory),
		dirChildren:  make(map[string][]string),
		albums:       make(map[AlbumKey]*Album),
		artists:      make(map[string]*Artist),
		genres:       make(map[string]*Genre),
		pathToSongID: make(map[string]SongID),
		textIndex:    search.NewIndex(),
	}

	if err := b.buildSongs(snap); err != nil {
		return nil, err
	}
	if err := b.buildDirectories(snap); err != nil {
		return nil, err
	}
	b.buildAlbums(snap)
	b.buildArtistsAndGenres(snap)
	b.buildTextIndex(snap)
	return snap, nil
}

func (b *Builder) virtualPath(realPath string) (string, error) {
	mount, ok := b.mounts.MountFor(realPath)
	if !ok {
		return "", apperr.New(apperr.Internal, "real path not under any configured mount: "+realPath)
	}
	return vpath.ToVirtual(mount, realPath)
}

func (b *Builder) buildSongs(snap *Snapshot) error {
	snap.Songs = make([]Song, 0, len(b.songRecords))
	for _, rec := range b.songRecords {
		vp, err := b.virtualPath(rec.RealPath)
		if err != nil {
			return err
		}
		parentVP, err := b.virtualPath(rec.ParentRealPath)
		if err != nil {
			return err
		}

		dateAdded, known := b.prevDateAdded[rec.RealPath]
		if !known {
			dateAdded = b.now()
		}

		song := Song{
			ID:                SongID(len(snap.Songs)),
			VirtualPath:       vp,
			RealPath:          rec.RealPath,
			ParentVirtualPath: parentVP,
			TrackNumber:       rec.TrackNumber,
			DiscNumber:        rec.DiscNumber,
			Year:              rec.Year,
			DurationSeconds:   rec.DurationSeconds,
			Title:             rec.Title,
			Album:             rec.Album,
			Artists:           dedupeStrings(rec.Artists),
			AlbumArtists:      dedupeStrings(rec.AlbumArtists),
			Composers:         dedupeStrings(rec.Composers),
			Lyricists:         dedupeStrings(rec.Lyricists),
			Genres:            dedupeStrings(rec.Genres),
			Labels:            dedupeStrings(rec.Labels),
			DateAdded:         dateAdded,
		}
		if rec.EmbeddedArtwork {
			song.Artwork = "embedded:" + vp
		}

		snap.Songs = append(snap.Songs, song)
		snap.pathToSongID[vp] = song.ID
		snap.dirChildren[parentVP] = append(snap.dirChildren[parentVP], vp)
	}
	return nil
}

func (b *Builder) buildDirectories(snap *Snapshot) error {
	adjacentArtByDirVP := make(map[string]string)
	for _, rec := range b.dirRecords {
		vp, err := b.virtualPath(rec.RealPath)
		if err != nil {
			return err
		}
		if rec.ParentRealPath != "" {
			parentVP, err := b.virtualPath(rec.ParentRealPath)
			if err != nil {
				return err
			}
			snap.dirChildren[parentVP] = append(snap.dirChildren[parentVP], vp)
		}
		if rec.AdjacentArtRealPath != "" {
			artVP, err := b.virtualPath(rec.AdjacentArtRealPath)
			if err != nil {
				return err
			}
			adjacentArtByDirVP[vp] = artVP
		}
	}

	// Apply adjacent art to every song in the directory: adjacent wins
	// over embedded when a match exists, per the resolution order songs
	// in the same directory share one cover.
	for i := range snap.Songs {
		if artVP, ok := adjacentArtByDirVP[snap.Songs[i].ParentVirtualPath]; ok {
			snap.Songs[i].Artwork = artVP
		}
	}

	for _, rec := range b.dirRecords {
		vp, _ := b.virtualPath(rec.RealPath)
		parentVP := ""
		if rec.ParentRealPath != "" {
			parentVP, _ = b.virtualPath(rec.ParentRealPath)
		}

		var albums, artistLists []string
		var years []*int
		var dateAdded int64 = -1
		for _, childVP := range snap.dirChildren[vp] {
			songID, ok := snap.pathToSongID[childVP]
			if !ok {
				continue
			}
			song := snap.Songs[songID]
			albums = append(albums, song.Album)
			artistLists = append(artistLists, song.Artists...)
			years = append(years, song.Year)
			if dateAdded == -1 {
				dateAdded = song.DateAdded
			} else {
				dateAdded = minInt64(dateAdded, song.DateAdded)
			}
		}
		if dateAdded == -1 {
			dateAdded = b.now()
		}

		artwork := adjacentArtByDirVP[vp]
		if artwork == "" {
			artwork = majorityArtwork(snap, snap.dirChildren[vp])
		}

		snap.directories[vp] = &Directory{
			VirtualPath:       vp,
			RealPath:          rec.RealPath,
			ParentVirtualPath: parentVP,
			Album:             majorityString(albums),
			Year:              majorityInt(years),
			Artists:           unionStrings([][]string{artistLists}),
			Artwork:           artwork,
			DateAdded:         dateAdded,
		}
	}
	return nil
}

func majorityArtwork(snap *Snapshot, childVPs []string) string {
	var artworks []string
	for _, vp := range childVPs {
		if id, ok := snap.pathToSongID[vp]; ok {
			if a := snap.Songs[id].Artwork; a != "" {
				artworks = append(artworks, a)
			}
		}
	}
	return majorityString(artworks)
}

func (b *Builder) buildAlbums(snap *Snapshot) {
	order := make([]AlbumKey, 0)
	for i := range snap.Songs {
		song := &snap.Songs[i]
		key := AlbumKey{
			NormalizedTitle:        normalizeKey(song.Album),
			NormalizedAlbumArtists: normalizeJoinedKey(song.AlbumArtists),
		}
		album, ok := snap.albums[key]
		if !ok {
			album = &Album{Key: key, Title: song.Album, AlbumArtists: song.AlbumArtists, DateAdded: song.DateAdded}
			snap.albums[key] = album
			order = append(order, key)
		}
		album.SongIDs = append(album.SongIDs, song.ID)
		if song.DateAdded < album.DateAdded {
			album.DateAdded = song.DateAdded
		}
	}
	snap.albumOrder = order

	for _, key := range order {
		album := snap.albums[key]
		var years []*int
		var artworks []string
		for _, id := range album.SongIDs {
			song := &snap.Songs[id]
			years = append(years, song.Year)
			if song.Artwork != "" {
				artworks = append(artworks, song.Artwork)
			}
		}
		album.Year = majorityInt(years)
		album.Artwork = majorityString(artworks)

		sort.Slice(album.SongIDs, func(i, j int) bool {
			return songOrderLess(&snap.Songs[album.SongIDs[i]], &snap.Songs[album.SongIDs[j]])
		})
	}
}

// songOrderLess orders songs by (disc_number ?? 1, track_number ?? ∞,
// virtual_path), the order an album's song_list is presented in.
func songOrderLess(a, b *Song) bool {
	da, db := discOf(a), discOf(b)
	if da != db {
		return da < db
	}
	ta, tb := trackOf(a), trackOf(b)
	if ta != tb {
		return ta < tb
	}
	return a.VirtualPath < b.VirtualPath
}

func discOf(s *Song) int {
	if s.DiscNumber != nil {
		return *s.DiscNumber
	}
	return 1
}

func trackOf(s *Song) int {
	if s.TrackNumber != nil {
		return *s.TrackNumber
	}
	return int(^uint(0) >> 1) // max int, sorts last
}

func (b *Builder) buildArtistsAndGenres(snap *Snapshot) {
	type roleSet struct {
		name                 string
		main, albumArtist    bool
		composer, lyricist   bool
	}
	roles := make(map[string]*roleSet)
	addRole := func(name string, set func(*roleSet)) {
		if name == "" {
			return
		}
		key := normalizeKey(name)
		r, ok := roles[key]
		if !ok {
			r = &roleSet{name: name}
			roles[key] = r
		}
		set(r)
	}

	genreNames := make(map[string]string)
	for i := range snap.Songs {
		song := &snap.Songs[i]
		for _, a := range song.Artists {
			addRole(a, func(r *roleSet) { r.main = true })
		}
		for _, a := range song.AlbumArtists {
			addRole(a, func(r *roleSet) { r.albumArtist = true })
		}
		for _, a := range song.Composers {
			addRole(a, func(r *roleSet) { r.composer = true })
		}
		for _, a := range song.Lyricists {
			addRole(a, func(r *roleSet) { r.lyricist = true })
		}
		for _, g := range song.Genres {
			genreNames[normalizeKey(g)] = g
		}
	}

	for key, r := range roles {
		snap.artists[key] = &Artist{
			NormalizedName:       key,
			Name:                 r.name,
			AppearsAsMain:        r.main,
			AppearsAsAlbumArtist: r.albumArtist,
			AppearsAsComposer:    r.composer,
			AppearsAsLyricist:    r.lyricist,
		}
	}
	for key, name := range genreNames {
		snap.genres[key] = &Genre{NormalizedName: key, Name: name}
	}
}

func (b *Builder) buildTextIndex(snap *Snapshot) {
	for i := range snap.Songs {
		song := &snap.Songs[i]
		fields := map[string][]string{
			"title":        {song.Title},
			"album":        {song.Album},
			"artist":       song.Artists,
			"album_artist": song.AlbumArtists,
			"composer":     song.Composers,
			"lyricist":     song.Lyricists,
			"genre":        song.Genres,
			"label":        song.Labels,
			"path":         {song.VirtualPath},
		}
		snap.textIndex.AddDocument(search.DocID(song.ID), fields)
		if song.Year != nil {
			snap.textIndex.SetYear(search.DocID(song.ID), *song.Year)
		}
	}
}
