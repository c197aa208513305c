package composer

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"Tunebox/core/query"
	"Tunebox/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func TestBrowseCategoryCountsOnlyPlaylistsWithSongs(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Ballad")
	p1 := f.playlist(t, "P1", owner, cat, 0)
	f.playlist(t, "P2", owner, cat, 0)
	p3 := f.playlist(t, "P3", owner, cat, 0)
	f.song(t, "s1", owner, p1, 0)
	f.song(t, "s2", owner, p1, 0)
	f.song(t, "s3", owner, p3, 0)

	res, err := f.c.BrowseCategory(f.ctx, cat, Request{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("BrowseCategory() error = %v", err)
	}
	if got := playlistNames(res.Playlists); !reflect.DeepEqual(got, []string{"P1", "P3"}) {
		t.Errorf("expected [P1 P3], got %v", got)
	}
	want := Pagination{Page: 1, Limit: 2, TotalRows: 2}
	if res.Pagination != want {
		t.Errorf("expected pagination %+v, got %+v", want, res.Pagination)
	}
	if res.Category.ID != cat || res.Category.Name != "Ballad" {
		t.Errorf("unexpected category %+v", res.Category)
	}
	if res.Playlists[0].CountSong != 2 || res.Playlists[1].CountSong != 1 {
		t.Errorf("unexpected song counts: %d, %d", res.Playlists[0].CountSong, res.Playlists[1].CountSong)
	}
	if res.Playlists[0].ArtistName == nil || *res.Playlists[0].ArtistName != "Owner Official" {
		t.Errorf("expected artistName through owner join, got %v", res.Playlists[0].ArtistName)
	}
}

func TestBrowseCategoryEmptyWindowKeepsPredicateCount(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Empty")
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		f.playlist(t, name, owner, cat, 0)
	}

	res, err := f.c.BrowseCategory(f.ctx, cat, Request{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("BrowseCategory() error = %v", err)
	}
	if len(res.Playlists) != 0 {
		t.Errorf("expected no playlists, got %v", playlistNames(res.Playlists))
	}
	if res.Playlists == nil {
		t.Errorf("expected an empty slice, got nil")
	}
	if res.Pagination.TotalRows != 5 {
		t.Errorf("expected totalRows 5, got %d", res.Pagination.TotalRows)
	}
}

func TestBrowseCategoryErrors(t *testing.T) {
	f := newFixture(t)

	if _, err := f.c.BrowseCategory(f.ctx, "not-a-uuid", Request{}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if _, err := f.c.BrowseCategory(f.ctx, uuid.NewString(), Request{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBrowseCategorySearch(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	a := f.playlist(t, "Mùa Hè", owner, cat, 0)
	b := f.playlist(t, "Mưa Đêm", owner, cat, 0)
	f.song(t, "x", owner, a, 0)
	f.song(t, "y", owner, b, 0)

	res, err := f.c.BrowseCategory(f.ctx, cat, Request{Search: "mua"})
	if err != nil {
		t.Fatalf("BrowseCategory() error = %v", err)
	}
	if got := playlistNames(res.Playlists); !reflect.DeepEqual(got, []string{"Mùa Hè", "Mưa Đêm"}) {
		t.Errorf("unexpected playlists %v", got)
	}
	if res.Pagination.Limit != 2 || res.Pagination.TotalRows != 2 {
		t.Errorf("unexpected pagination %+v", res.Pagination)
	}
}

func TestJoinDropVersusPreserve(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Rock")
	dangling := f.playlist(t, "Dangling", owner, uuid.NewString(), 0)
	f.song(t, "s", owner, dangling, 0)

	byOwner, err := f.c.ListPlaylistsByOwner(f.ctx, owner, Request{})
	if err != nil {
		t.Fatalf("ListPlaylistsByOwner() error = %v", err)
	}
	if got := playlistNames(byOwner.Items); !reflect.DeepEqual(got, []string{"Dangling"}) {
		t.Errorf("owner listing should keep playlist with missing category, got %v", got)
	}

	browse, err := f.c.BrowseCategory(f.ctx, cat, Request{})
	if err != nil {
		t.Fatalf("BrowseCategory() error = %v", err)
	}
	if len(browse.Playlists) != 0 {
		t.Errorf("category browse should not include dangling playlist, got %v", playlistNames(browse.Playlists))
	}

	mine, err := f.c.ListOwnerPlaylistsWithCategory(f.ctx, owner, Request{})
	if err != nil {
		t.Fatalf("ListOwnerPlaylistsWithCategory() error = %v", err)
	}
	if len(mine.Items) != 0 {
		t.Errorf("category-flattening listing should drop dangling playlist, got %v", playlistNames(mine.Items))
	}

	sections, err := f.c.CategorySections(f.ctx, "")
	if err != nil {
		t.Fatalf("CategorySections() error = %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("expected no sections, got %+v", sections)
	}
}

func TestListWithoutLimitReturnsEverything(t *testing.T) {
	f := newFixture(t)
	f.artist(t, "Charlie", 1)
	f.artist(t, "Alice", 5)
	f.artist(t, "Bob", 3)

	res, err := f.c.ListArtists(f.ctx, Request{Page: 3})
	if err != nil {
		t.Fatalf("ListArtists() error = %v", err)
	}
	if got := artistNames(res.Items); !reflect.DeepEqual(got, []string{"Alice", "Bob", "Charlie"}) {
		t.Errorf("unexpected order %v", got)
	}
	want := Pagination{Page: 1, Limit: 3, TotalRows: 3}
	if res.Pagination != want {
		t.Errorf("expected %+v, got %+v", want, res.Pagination)
	}
}

func TestListArtistsExcludesAdmins(t *testing.T) {
	f := newFixture(t)
	f.artist(t, "Visible", 0)
	admin := f.artist(t, "Admin", 0)
	if err := f.store.Update(f.ctx, model.CollArtists, admin, map[string]any{"role": "admin"}); err != nil {
		t.Fatalf("update role: %v", err)
	}

	res, err := f.c.ListArtists(f.ctx, Request{Limit: 10})
	if err != nil {
		t.Fatalf("ListArtists() error = %v", err)
	}
	if got := artistNames(res.Items); !reflect.DeepEqual(got, []string{"Visible"}) {
		t.Errorf("expected only Visible, got %v", got)
	}
	if res.Pagination.TotalRows != 1 {
		t.Errorf("expected totalRows 1, got %d", res.Pagination.TotalRows)
	}
}

func TestPaginationWindows(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"E", "D", "C", "B", "A"} {
		f.artist(t, name, 0)
	}

	tests := []struct {
		page  int
		names []string
	}{
		{1, []string{"A", "B"}},
		{2, []string{"C", "D"}},
		{3, []string{"E"}},
		{4, []string{}},
	}
	for _, tt := range tests {
		res, err := f.c.ListArtists(f.ctx, Request{Page: tt.page, Limit: 2})
		if err != nil {
			t.Fatalf("page %d: %v", tt.page, err)
		}
		if got := artistNames(res.Items); !reflect.DeepEqual(got, tt.names) {
			t.Errorf("page %d: expected %v, got %v", tt.page, tt.names, got)
		}
		want := Pagination{Page: tt.page, Limit: 2, TotalRows: 5}
		if res.Pagination != want {
			t.Errorf("page %d: expected %+v, got %+v", tt.page, want, res.Pagination)
		}
	}
}

func TestPageBeyondInt64OffsetIsEmpty(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	f.song(t, "One", owner, pl, 0)
	f.song(t, "Two", owner, pl, 0)

	tests := []struct {
		name  string
		page  int
		limit int
	}{
		{"max page", math.MaxInt64, 10},
		{"just past the limit", math.MaxInt64/10 + 2, 10},
		{"max limit second page", 2, math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.c.ListSongs(f.ctx, Request{Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("ListSongs() error = %v", err)
			}
			if len(res.Items) != 0 {
				t.Errorf("expected empty page, got %v", songNames(res.Items))
			}
			if res.Pagination.Page != tt.page || res.Pagination.TotalRows != 2 {
				t.Errorf("expected page %d with totalRows 2, got %+v", tt.page, res.Pagination)
			}
		})
	}
}

func TestSearchUsesSearchKey(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	f.song(t, "Mưa", owner, pl, 0)
	f.song(t, "Nắng", owner, pl, 0)

	res, err := f.c.ListSongs(f.ctx, Request{Search: "mua"})
	if err != nil {
		t.Fatalf("ListSongs() error = %v", err)
	}
	if got := songNames(res.Items); !reflect.DeepEqual(got, []string{"Mưa"}) {
		t.Errorf("expected [Mưa], got %v", got)
	}

	rawName := SongDescriptor
	rawName.SearchField = "name"
	raw, err := list[model.SongView](f.ctx, f.c, "test", &rawName, nil, Request{Search: "mua"})
	if err != nil {
		t.Fatalf("list on raw name error = %v", err)
	}
	if len(raw.Items) != 0 {
		t.Errorf("raw name should not match unaccented needle, got %v", songNames(raw.Items))
	}
}

func TestSearchIgnoresAccentsInQuery(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	f.song(t, "Mưa Rơi", owner, pl, 0)
	f.song(t, "Nắng", owner, pl, 0)

	tests := []struct {
		query string
		want  []string
	}{
		{"mua", []string{"Mưa Rơi"}},
		{"Mưa", []string{"Mưa Rơi"}},
		{"mưa rơi", []string{"Mưa Rơi"}},
		{"MƯA   RƠI", []string{"Mưa Rơi"}},
		{"rơi", []string{"Mưa Rơi"}},
		{"nắng", []string{"Nắng"}},
		{"mưa nắng", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := f.c.ListSongs(f.ctx, Request{Search: tt.query, Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("ListSongs() error = %v", err)
			}
			if got := songNames(res.Items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if res.Pagination.TotalRows != int64(len(tt.want)) {
				t.Errorf("expected totalRows %d, got %d", len(tt.want), res.Pagination.TotalRows)
			}
		})
	}
}

func TestSearchTreatsInputLiterally(t *testing.T) {
	f := newFixture(t)
	f.artist(t, "a.b", 0)
	f.artist(t, "axb", 0)

	res, err := f.c.ListArtists(f.ctx, Request{Search: "a.b"})
	if err != nil {
		t.Fatalf("ListArtists() error = %v", err)
	}
	if got := artistNames(res.Items); !reflect.DeepEqual(got, []string{"a.b"}) {
		t.Errorf("expected literal match only, got %v", got)
	}
}

func TestPopularSortBreaksTiesByName(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	f.song(t, "Zeta", owner, pl, 7)
	f.song(t, "Beta", owner, pl, 7)
	f.song(t, "Alpha", owner, pl, 2)
	f.song(t, "Top", owner, pl, 9)

	for i := 0; i < 3; i++ {
		res, err := f.c.ListSongs(f.ctx, Request{Sort: SortPopular, Limit: 10})
		if err != nil {
			t.Fatalf("ListSongs() error = %v", err)
		}
		if got := songNames(res.Items); !reflect.DeepEqual(got, []string{"Top", "Beta", "Zeta", "Alpha"}) {
			t.Errorf("run %d: unexpected order %v", i, got)
		}
	}

	asc, err := f.c.ListSongs(f.ctx, Request{Sort: SortLeastPopular})
	if err != nil {
		t.Fatalf("ListSongs() error = %v", err)
	}
	if got := songNames(asc.Items); !reflect.DeepEqual(got, []string{"Alpha", "Beta", "Zeta", "Top"}) {
		t.Errorf("unexpected ascending order %v", got)
	}
}

func TestRepeatedReadsAreIdentical(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	for _, name := range []string{"same", "same", "same", "other"} {
		f.song(t, name, owner, pl, 1)
	}

	var first []byte
	for i := 0; i < 5; i++ {
		res, err := f.c.ListSongs(f.ctx, Request{Sort: SortPopular, Page: 1, Limit: 3})
		if err != nil {
			t.Fatalf("ListSongs() error = %v", err)
		}
		b, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if i == 0 {
			first = b
			continue
		}
		if string(b) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, b)
		}
	}
}

func TestListSongsDropsUnresolvedReferences(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	f.song(t, "Kept", owner, pl, 0)
	f.song(t, "Orphan", owner, uuid.NewString(), 0)

	res, err := f.c.ListSongs(f.ctx, Request{Limit: 10})
	if err != nil {
		t.Fatalf("ListSongs() error = %v", err)
	}
	if got := songNames(res.Items); !reflect.DeepEqual(got, []string{"Kept"}) {
		t.Errorf("expected [Kept], got %v", got)
	}
	// totalRows counts the predicate, not the joined set
	if res.Pagination.TotalRows != 2 {
		t.Errorf("expected totalRows 2, got %d", res.Pagination.TotalRows)
	}
	s := res.Items[0]
	if s.PlaylistName == nil || *s.PlaylistName != "List" || s.ArtistName == nil || *s.ArtistName != "Owner Official" {
		t.Errorf("unexpected joined fields: %+v", s)
	}
}

func TestListSongsInPlaylist(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	other := f.artist(t, "Other", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	f.song(t, "b", owner, pl, 0)
	f.song(t, "a", owner, pl, 0)

	res, err := f.c.ListSongsInPlaylist(f.ctx, pl, "", Request{Limit: 1, Page: 2})
	if err != nil {
		t.Fatalf("ListSongsInPlaylist() error = %v", err)
	}
	if res.Playlist == nil || res.Playlist.ID != pl || res.Playlist.CountSong != 2 {
		t.Fatalf("unexpected playlist %+v", res.Playlist)
	}
	if got := songNames(res.Songs); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
	if want := (Pagination{Page: 2, Limit: 1, TotalRows: 2}); res.Pagination != want {
		t.Errorf("expected %+v, got %+v", want, res.Pagination)
	}

	cases := map[string]struct{ playlist, owner string }{
		"malformed id":  {"nope", ""},
		"unknown id":    {uuid.NewString(), ""},
		"foreign owner": {pl, other},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := f.c.ListSongsInPlaylist(f.ctx, tc.playlist, tc.owner, Request{Limit: 5})
			if err != nil {
				t.Fatalf("expected scoped-empty result, got error %v", err)
			}
			if res.Playlist != nil || len(res.Songs) != 0 {
				t.Errorf("expected empty result, got %+v", res)
			}
			if want := (Pagination{Page: 1}); res.Pagination != want {
				t.Errorf("expected zeroed pagination, got %+v", res.Pagination)
			}
		})
	}
}

func TestPopularSongsByOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	for i := 0; i < 12; i++ {
		f.song(t, string(rune('a'+i)), owner, pl, int64(i%3))
	}

	songs, err := f.c.PopularSongsByOwner(f.ctx, owner, 0)
	if err != nil {
		t.Fatalf("PopularSongsByOwner() error = %v", err)
	}
	if len(songs) != PopularSongsLimit {
		t.Fatalf("expected %d songs, got %d", PopularSongsLimit, len(songs))
	}
	// likeCount desc, then newest first
	if got := songNames(songs[:4]); !reflect.DeepEqual(got, []string{"l", "i", "f", "c"}) {
		t.Errorf("unexpected head %v", got)
	}

	// the owner join is left-outer: a removed owner leaves artistName absent
	if err := f.store.Delete(f.ctx, model.CollArtists, owner); err != nil {
		t.Fatalf("delete owner: %v", err)
	}
	songs, err = f.c.PopularSongsByOwner(f.ctx, owner, 3)
	if err != nil {
		t.Fatalf("PopularSongsByOwner() error = %v", err)
	}
	if len(songs) != 3 || songs[0].ArtistName != nil {
		t.Errorf("expected 3 songs without artistName, got %+v", songs)
	}

	none, err := f.c.PopularSongsByOwner(f.ctx, "bad", 3)
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty result for malformed owner, got %v, %v", none, err)
	}
}

func TestCategorySections(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	rock := f.category(t, "Rock")
	jazz := f.category(t, "Jazz")
	f.category(t, "Unused")
	r1 := f.playlist(t, "R1", owner, rock, 0)
	f.playlist(t, "R2", owner, rock, 0)
	j1 := f.playlist(t, "J1", owner, jazz, 0)
	f.song(t, "s1", owner, r1, 0)
	f.song(t, "s2", owner, j1, 0)

	sections, err := f.c.CategorySections(f.ctx, "")
	if err != nil {
		t.Fatalf("CategorySections() error = %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %+v", sections)
	}
	if sections[0].Name != "Jazz" || sections[1].Name != "Rock" {
		t.Errorf("expected Jazz then Rock, got %s then %s", sections[0].Name, sections[1].Name)
	}
	if got := playlistNames(sections[1].Playlists); !reflect.DeepEqual(got, []string{"R1"}) {
		t.Errorf("expected [R1], got %v", got)
	}
	if cn := sections[1].Playlists[0].CategoryName; cn == nil || *cn != "Rock" {
		t.Errorf("expected categoryName Rock, got %v", cn)
	}
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 4)
	cat := f.category(t, "Pop")
	pl := f.playlist(t, "List", owner, cat, 0)
	song := f.song(t, "Song", owner, pl, 0)

	a, err := f.c.GetArtist(f.ctx, owner)
	if err != nil || a.Name != "Owner" || a.LikeCount != 4 {
		t.Errorf("GetArtist() = %+v, %v", a, err)
	}
	p, err := f.c.GetPlaylist(f.ctx, pl)
	if err != nil || p.CountSong != 1 || p.UserID != owner {
		t.Errorf("GetPlaylist() = %+v, %v", p, err)
	}
	s, err := f.c.GetSong(f.ctx, song)
	if err != nil || s.Name != "Song" || s.Year != 2024 {
		t.Errorf("GetSong() = %+v, %v", s, err)
	}
	c, err := f.c.GetCategory(f.ctx, cat)
	if err != nil || c.Name != "Pop" {
		t.Errorf("GetCategory() = %+v, %v", c, err)
	}

	tests := []struct {
		name string
		call func(id string) error
	}{
		{"artist", func(id string) error { _, err := f.c.GetArtist(f.ctx, id); return err }},
		{"playlist", func(id string) error { _, err := f.c.GetPlaylist(f.ctx, id); return err }},
		{"song", func(id string) error { _, err := f.c.GetSong(f.ctx, id); return err }},
		{"category", func(id string) error { _, err := f.c.GetCategory(f.ctx, id); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call("123"); !errors.Is(err, ErrInvalidID) {
				t.Errorf("expected ErrInvalidID, got %v", err)
			}
			if err := tt.call(uuid.NewString()); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestListPlaylistsByUnknownOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.artist(t, "Owner", 0)
	cat := f.category(t, "Pop")
	f.playlist(t, "Orphaned", uuid.NewString(), cat, 0)
	f.playlist(t, "Mine", owner, cat, 0)

	for _, id := range []string{"junk", uuid.NewString()} {
		res, err := f.c.ListPlaylistsByOwner(f.ctx, id, Request{Limit: 5})
		if err != nil {
			t.Fatalf("ListPlaylistsByOwner(%q) error = %v", id, err)
		}
		if len(res.Items) != 0 || res.Pagination != (Pagination{Page: 1}) {
			t.Errorf("expected empty page for %q, got %+v", id, res)
		}
	}
}

func TestListCategoriesSorted(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Rock")
	f.category(t, "Acoustic")

	cats, err := f.c.ListCategories(f.ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Acoustic" {
		t.Errorf("unexpected categories %+v", cats)
	}
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.c.ListArtists(ctx, Request{Limit: 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseSortMode(t *testing.T) {
	tests := map[string]SortMode{
		"":     SortByName,
		"asc":  SortLeastPopular,
		"ASC":  SortLeastPopular,
		"desc": SortPopular,
		"1":    SortPopular,
	}
	for in, want := range tests {
		if got := ParseSortMode(in); got != want {
			t.Errorf("ParseSortMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDescriptorValidate(t *testing.T) {
	schemas := Schemas()
	for _, d := range Descriptors() {
		if err := d.Validate(schemas); err != nil {
			t.Errorf("%s: %v", d.Name, err)
		}
	}

	broken := []struct {
		name   string
		mutate func(d *Descriptor)
	}{
		{"unknown collection", func(d *Descriptor) { d.Collection = "nope" }},
		{"unknown source", func(d *Descriptor) { d.Projection = []query.Field{query.From("x", "missing")} }},
		{"joined source on to-many", func(d *Descriptor) { d.Projection = []query.Field{query.From("x", "songs.name")} }},
		{"size of to-one", func(d *Descriptor) { d.Projection = []query.Field{query.Size("x", "owner")} }},
		{"duplicate output", func(d *Descriptor) {
			d.Projection = []query.Field{query.From("x", "name"), query.From("x", "slug")}
		}},
		{"both source and size", func(d *Descriptor) {
			d.Projection = []query.Field{{Out: "x", Source: "name", SizeOf: "songs"}}
		}},
		{"bad join field", func(d *Descriptor) { d.Joins = []Join{{From: "users", LocalField: "nope", ForeignField: "_id", As: "o"}} }},
		{"bad search field", func(d *Descriptor) { d.SearchField = "nope" }},
		{"require to-one", func(d *Descriptor) { d.RequireChildren = "owner" }},
		{"empty projection", func(d *Descriptor) { d.Projection = nil }},
	}
	for _, tt := range broken {
		t.Run(tt.name, func(t *testing.T) {
			d := PlaylistDescriptor
			d.Joins = append([]Join(nil), PlaylistDescriptor.Joins...)
			tt.mutate(&d)
			if err := d.Validate(schemas); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
