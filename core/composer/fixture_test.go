package composer

import (
	"context"
	"testing"
	"time"

	"Tunebox/core/slug"
	"Tunebox/db"
	"Tunebox/model"

	"github.com/google/uuid"
)

// fixture 基于内存存储的测试数据
type fixture struct {
	ctx   context.Context
	store *db.MemoryStore
	c     *Composer
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemoryStore()
	c, err := New(store, 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{
		ctx:   context.Background(),
		store: store,
		c:     c,
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) insert(t *testing.T, coll string, doc any) {
	t.Helper()
	if err := f.store.Insert(f.ctx, coll, doc); err != nil {
		t.Fatalf("insert into %s: %v", coll, err)
	}
}

func (f *fixture) artist(t *testing.T, name string, likes int64) string {
	t.Helper()
	id := uuid.NewString()
	now := f.tick()
	f.insert(t, model.CollArtists, &model.Artist{
		ID:            id,
		Name:          name,
		Slug:          slug.Slug(name),
		Search:        slug.SearchKey(name),
		ArtistName:    name + " Official",
		ArtistNameRef: slug.Slug(name + " Official"),
		LikeCount:     likes,
		Username:      slug.Slug(name) + "-" + id[:8],
		Status:        model.StatusActive,
		Role:          model.RoleUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return id
}

func (f *fixture) category(t *testing.T, name string) string {
	t.Helper()
	id := uuid.NewString()
	now := f.tick()
	f.insert(t, model.CollCategories, &model.Category{ID: id, Name: name, CreatedAt: now, UpdatedAt: now})
	return id
}

func (f *fixture) playlist(t *testing.T, name, owner, category string, likes int64) string {
	t.Helper()
	id := uuid.NewString()
	now := f.tick()
	f.insert(t, model.CollPlaylists, &model.Playlist{
		ID:         id,
		Name:       name,
		Slug:       slug.Slug(name),
		Search:     slug.SearchKey(name),
		LikeCount:  likes,
		UserID:     owner,
		CategoryID: category,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return id
}

func (f *fixture) song(t *testing.T, name, owner, playlist string, likes int64) string {
	t.Helper()
	id := uuid.NewString()
	now := f.tick()
	f.insert(t, model.CollSongs, &model.Song{
		ID:         id,
		Name:       name,
		Slug:       slug.Slug(name),
		Search:     slug.SearchKey(name),
		Singer:     "singer",
		Year:       2024,
		Mp3:        "https://media.example/" + id + ".mp3",
		LikeCount:  likes,
		UserID:     owner,
		PlaylistID: playlist,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return id
}

func playlistNames(items []model.PlaylistView) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func songNames(items []model.SongView) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.Name
	}
	return out
}

func artistNames(items []model.ArtistView) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Name
	}
	return out
}
