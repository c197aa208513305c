//go:build integration

package db

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"testing"
	"time"

	"Tunebox/config"
	"Tunebox/core/query"
	"Tunebox/model"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipIfNoDocker Docker 不可用时跳过
func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startContainer 启动容器并返回唯一暴露端口的 host:port
func startContainer(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest) string {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})
	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("container endpoint: %v", err)
	}
	return endpoint
}

func newMongoStore(t *testing.T, ctx context.Context) Store {
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
	})
	s, err := ConnectMongo(ctx, "mongodb://"+addr, "tunebox_test")
	if err != nil {
		t.Fatalf("ConnectMongo() error = %v", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	return s
}

func newMySQLStore(t *testing.T, ctx context.Context) Store {
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret",
			"MYSQL_DATABASE":      "tunebox",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(3 * time.Minute),
	})

	cfg := &config.Config{Env: "production", DBUser: "root", DBPassword: "secret", DBName: "tunebox"}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split %q: %v", addr, err)
	}
	cfg.DBHost, cfg.DBPort = host, port
	s, err := ConnectGorm(cfg)
	if err != nil {
		t.Fatalf("ConnectGorm() error = %v", err)
	}
	if err := s.AutoMigrate(ctx); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	return s
}

func TestStoresAgree(t *testing.T) {
	skipIfNoDocker(t)
	ctx := context.Background()

	stores := map[string]func(*testing.T, context.Context) Store{
		"mongo": newMongoStore,
		"mysql": newMySQLStore,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t, ctx)
			defer s.Close(ctx)
			seedStore(t, ctx, s)
			exerciseStore(t, ctx, s)
		})
	}
}

func exerciseStore(t *testing.T, ctx context.Context, s Store) {
	t.Helper()

	dup := &model.Artist{ID: "a9", Username: "alpha", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.Insert(ctx, model.CollArtists, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	n, err := s.Increment(ctx, model.CollArtists, "a2", "likeCount", 4)
	if err != nil || n != 5 {
		t.Errorf("Increment() = %d, %v; want 5", n, err)
	}
	if _, err := s.Increment(ctx, model.CollArtists, "missing", "likeCount", 1); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}

	// 值未变化的更新依然算命中
	if err := s.Update(ctx, model.CollArtists, "a1", map[string]any{"name": "Alpha"}); err != nil {
		t.Errorf("no-op Update() error = %v", err)
	}

	total, err := s.Count(ctx, model.CollPlaylists, []query.Cond{query.Contains("name", "ULL")})
	if err != nil || total != 1 {
		t.Errorf("Count() = %d, %v; want 1", total, err)
	}

	p := query.Pipeline{
		query.Lookup{From: model.CollArtists, LocalField: "userId", ForeignField: "_id", As: "owner"},
		query.Unwind{Path: "owner", PreserveEmpty: true},
		query.Lookup{From: model.CollSongs, LocalField: "_id", ForeignField: "playlistId", As: "songs"},
		query.Project{Fields: []query.Field{
			query.From("id", "_id"),
			query.From("owner", "owner.name"),
			query.Size("countSong", "songs"),
		}},
		query.Sort{Keys: []query.SortKey{query.Desc("countSong"), query.Asc("id")}},
	}
	var rows []playlistRow
	if err := s.Aggregate(ctx, model.CollPlaylists, p, &rows); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(rows) != 3 || rows[0].ID != "p1" || rows[0].CountSong != 2 || rows[2].ID != "p3" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[2].Owner != nil {
		t.Errorf("expected no owner for p3, got %q", *rows[2].Owner)
	}

	windowed := p.With(query.Skip{N: 1}, query.Limit{N: 1})
	cnt, err := s.AggregateCount(ctx, model.CollPlaylists, windowed)
	if err != nil || cnt != 1 {
		t.Errorf("AggregateCount(window) = %d, %v; want 1", cnt, err)
	}
	inner := query.Pipeline{
		query.Lookup{From: model.CollArtists, LocalField: "userId", ForeignField: "_id", As: "owner"},
		query.Unwind{Path: "owner"},
		query.Lookup{From: model.CollSongs, LocalField: "_id", ForeignField: "playlistId", As: "songs"},
		query.Match{Conds: []query.Cond{query.NonEmpty("songs")}},
	}
	cnt, err = s.AggregateCount(ctx, model.CollPlaylists, inner)
	if err != nil || cnt != 1 {
		t.Errorf("AggregateCount(joined) = %d, %v; want 1", cnt, err)
	}

	if err := s.Delete(ctx, model.CollSongs, "s1"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, model.CollSongs, "s1"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}
