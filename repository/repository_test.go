package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"Tunebox/core/auth"
	"Tunebox/db"
	"Tunebox/model"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type repos struct {
	store      *db.MemoryStore
	artists    *storeArtistRepository
	playlists  *storePlaylistRepository
	songs      *storeSongRepository
	categories *storeCategoryRepository
	accounts   *storeAccountRepository
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	store := db.NewMemoryStore()
	r := &repos{
		store:      store,
		artists:    NewArtistRepository(store).(*storeArtistRepository),
		playlists:  NewPlaylistRepository(store).(*storePlaylistRepository),
		songs:      NewSongRepository(store).(*storeSongRepository),
		categories: NewCategoryRepository(store).(*storeCategoryRepository),
		accounts:   NewAccountRepository(store).(*storeAccountRepository),
	}
	r.artists.now = fixedClock
	r.playlists.now = fixedClock
	r.songs.now = fixedClock
	r.categories.now = fixedClock
	r.accounts.now = fixedClock
	return r
}

func (r *repos) register(t *testing.T, name, username string) *model.Artist {
	t.Helper()
	a, err := r.artists.Register(context.Background(), NewArtist{
		Name:       name,
		ArtistName: name + " Official",
		Username:   username,
		Password:   "secret123",
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return a
}

func TestRegisterArtist(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	first := r.register(t, "Mưa Rơi", "mua1")
	second := r.register(t, "Mưa Rơi", "mua2")

	if first.Slug != "mua-roi-0" || second.Slug != "mua-roi-1" {
		t.Errorf("expected slugs mua-roi-0 and mua-roi-1, got %q and %q", first.Slug, second.Slug)
	}
	if first.Search != "mua roi" {
		t.Errorf("expected search key %q, got %q", "mua roi", first.Search)
	}
	if first.ArtistNameRef != "mua-roi-official" {
		t.Errorf("expected artistNameRef mua-roi-official, got %q", first.ArtistNameRef)
	}
	if first.Status != model.StatusActive || first.Role != model.RoleUser {
		t.Errorf("expected active user, got %s/%s", first.Status, first.Role)
	}
	if first.Password == "secret123" || !auth.CheckPasswordHash("secret123", first.Password) {
		t.Error("expected password to be stored as a bcrypt hash")
	}

	_, err := r.artists.Register(ctx, NewArtist{Name: "X", ArtistName: "X", Username: "mua1", Password: "secret123"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticateArtist(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := r.register(t, "Alpha", "alpha")

	if got, err := r.artists.Authenticate(ctx, "alpha", "secret123"); err != nil || got.ID != a.ID {
		t.Fatalf("Authenticate() = %v, %v", got, err)
	}

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"unknown user", "nobody", "secret123", ErrInvalidCredentials},
		{"wrong password", "alpha", "nope", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.artists.Authenticate(ctx, tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := r.artists.ToggleStatus(ctx, a.ID); err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	if _, err := r.artists.Authenticate(ctx, "alpha", "secret123"); !errors.Is(err, ErrInactive) {
		t.Errorf("expected ErrInactive, got %v", err)
	}
}

func TestUpdateProfileResyncsSlug(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := r.register(t, "Alpha", "alpha")

	name := "Đêm Trắng"
	desc := "new bio"
	updated, err := r.artists.UpdateProfile(ctx, a.ID, ProfileUpdate{Name: &name, Description: &desc})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Slug != "dem-trang-0" || updated.Search != "dem trang" {
		t.Errorf("expected slug/search to follow name, got %q / %q", updated.Slug, updated.Search)
	}
	if updated.Description != "new bio" || updated.ArtistName != "Alpha Official" {
		t.Errorf("unexpected profile %+v", updated)
	}

	if _, err := r.artists.UpdateProfile(ctx, "missing", ProfileUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChangePasswordReportsEveryRule(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := r.register(t, "Alpha", "alpha")

	err := r.artists.ChangePassword(ctx, a.ID, "wrong", "wrong")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("expected 3 problems, got %v", verr.Problems)
	}

	if err := r.artists.ChangePassword(ctx, a.ID, "secret123", "another1"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := r.artists.Authenticate(ctx, "alpha", "another1"); err != nil {
		t.Errorf("expected new password to work, got %v", err)
	}
}

func TestAdminArtistOperations(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := r.register(t, "Alpha", "alpha")
	r.register(t, "Beta", "beta")

	promoted, err := r.artists.ToggleRole(ctx, a.ID, "admin")
	if err != nil || promoted.Role != "admin" {
		t.Fatalf("ToggleRole() = %v, %v", promoted, err)
	}

	all, err := r.artists.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 || all[0].Username != "alpha" || all[1].Username != "beta" {
		t.Errorf("expected admin first then user, got %+v", all)
	}

	demoted, err := r.artists.ToggleRole(ctx, a.ID, "admin")
	if err != nil || demoted.Role != model.RoleUser {
		t.Errorf("expected role user after second toggle, got %v, %v", demoted, err)
	}

	if err := r.artists.ResetPassword(ctx, a.ID, "reset99"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err := r.artists.Authenticate(ctx, "alpha", "reset99"); err != nil {
		t.Errorf("expected reset password to work, got %v", err)
	}

	n, err := r.artists.Like(ctx, a.ID)
	if err != nil || n != 1 {
		t.Errorf("Like() = %d, %v; want 1", n, err)
	}

	deleted, err := r.artists.Delete(ctx, a.ID)
	if err != nil || deleted.ID != a.ID {
		t.Fatalf("Delete() = %v, %v", deleted, err)
	}
	if _, err := r.artists.GetByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := r.artists.Like(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound liking a deleted artist, got %v", err)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	owner := r.register(t, "Alpha", "alpha")
	other := r.register(t, "Beta", "beta")
	cat, err := r.categories.Create(ctx, "Pop")
	if err != nil {
		t.Fatalf("Create category error = %v", err)
	}

	if _, err := r.playlists.Create(ctx, owner.ID, NewPlaylist{Name: "X", CategoryID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown category, got %v", err)
	}

	p, err := r.playlists.Create(ctx, owner.ID, NewPlaylist{Name: "Chill Hits", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Slug != "chill-hits" || p.Search != "chill hits" || p.UserID != owner.ID {
		t.Errorf("unexpected playlist %+v", p)
	}

	name := "Late Night"
	if _, err := r.playlists.Update(ctx, p.ID, other.ID, PlaylistUpdate{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	updated, err := r.playlists.Update(ctx, p.ID, owner.ID, PlaylistUpdate{Name: &name})
	if err != nil || updated.Slug != "late-night" {
		t.Fatalf("Update() = %v, %v", updated, err)
	}

	liked, err := r.playlists.Like(ctx, p.ID)
	if err != nil || liked.LikeCount != 1 || liked.CategoryID != cat.ID {
		t.Errorf("Like() = %+v, %v", liked, err)
	}

	song, err := r.songs.Create(ctx, owner, NewSong{Name: "Track", PlaylistID: p.ID, Mp3: "https://cdn/x.mp3"})
	if err != nil {
		t.Fatalf("Create song error = %v", err)
	}
	if _, err := r.playlists.Delete(ctx, p.ID, owner.ID); !errors.Is(err, ErrPlaylistNotEmpty) {
		t.Errorf("expected ErrPlaylistNotEmpty, got %v", err)
	}
	if _, err := r.songs.Delete(ctx, song.ID, owner.ID); err != nil {
		t.Fatalf("Delete song error = %v", err)
	}
	if _, err := r.playlists.Delete(ctx, p.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := r.playlists.Delete(ctx, p.ID, owner.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestSongLifecycle(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	owner := r.register(t, "Alpha", "alpha")
	other := r.register(t, "Beta", "beta")
	cat, _ := r.categories.Create(ctx, "Pop")
	p, err := r.playlists.Create(ctx, owner.ID, NewPlaylist{Name: "Mine", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("Create playlist error = %v", err)
	}

	if _, err := r.songs.Create(ctx, other, NewSong{Name: "Steal", PlaylistID: p.ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for someone else's playlist, got %v", err)
	}
	if _, err := r.songs.Create(ctx, owner, NewSong{Name: "Lost", PlaylistID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown playlist, got %v", err)
	}

	s, err := r.songs.Create(ctx, owner, NewSong{Name: "Bài Hát", PlaylistID: p.ID, Mp3: "m", Mp3AssetID: "alpha/song/mp3/x"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.Year != 2024 || s.Singer != "Alpha Official" || s.Slug != "bai-hat" {
		t.Errorf("unexpected song %+v", s)
	}

	mp3 := "m2"
	updated, err := r.songs.Update(ctx, s.ID, owner.ID, SongUpdate{Mp3: &mp3})
	if err != nil || updated.Mp3 != "m2" || updated.Name != "Bài Hát" {
		t.Errorf("Update() = %+v, %v", updated, err)
	}
	if _, err := r.songs.Update(ctx, s.ID, other.ID, SongUpdate{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	for i := 1; i <= 3; i++ {
		n, err := r.songs.Like(ctx, s.ID)
		if err != nil || n != int64(i) {
			t.Errorf("Like() #%d = %d, %v", i, n, err)
		}
	}

	deleted, err := r.songs.Delete(ctx, s.ID, owner.ID)
	if err != nil || deleted.Mp3AssetID != "alpha/song/mp3/x" {
		t.Errorf("Delete() = %+v, %v", deleted, err)
	}
	if _, err := r.songs.GetByID(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoriesSortedByName(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	for _, name := range []string{"Rock", "Jazz", "Pop"} {
		if _, err := r.categories.Create(ctx, name); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
	list, err := r.categories.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	if len(names) != 3 || names[0] != "Jazz" || names[1] != "Pop" || names[2] != "Rock" {
		t.Errorf("expected [Jazz Pop Rock], got %v", names)
	}
}

func TestAccounts(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	acc, err := r.accounts.Register(ctx, "ops", "secret123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := r.accounts.Register(ctx, "ops", "secret123", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := r.accounts.Register(ctx, "audit", "secret123", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := r.accounts.Authenticate(ctx, "ops", "bad"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := r.accounts.UpdateUsername(ctx, acc.ID, "audit"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	renamed, err := r.accounts.UpdateUsername(ctx, acc.ID, "root")
	if err != nil || renamed.Username != "root" {
		t.Fatalf("UpdateUsername() = %v, %v", renamed, err)
	}

	role, err := r.accounts.ChangeRole(ctx, acc.ID, "admin")
	if err != nil || role.Role != "admin" {
		t.Errorf("ChangeRole() = %v, %v", role, err)
	}
	status, err := r.accounts.ToggleStatus(ctx, acc.ID)
	if err != nil || status.Status != model.StatusInactive {
		t.Errorf("ToggleStatus() = %v, %v", status, err)
	}
	if _, err := r.accounts.Authenticate(ctx, "root", "secret123"); !errors.Is(err, ErrInactive) {
		t.Errorf("expected ErrInactive, got %v", err)
	}

	list, err := r.accounts.List(ctx)
	if err != nil || len(list) != 2 || list[0].Username != "audit" {
		t.Errorf("List() = %+v, %v", list, err)
	}

	if _, err := r.accounts.Delete(ctx, acc.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := r.accounts.Delete(ctx, acc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
