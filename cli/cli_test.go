package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/appser/appser-store/cli/config"
	"github.com/appser/appser-store/internal/auth"
	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/middleware"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/storefront"
	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/models"
	"github.com/appser/appser-store/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cli-secret"

func startStore(t *testing.T) (*httptest.Server, *listing.MemoryRepository, *atomic.Int32) {
	t.Helper()
	logger.Init(logger.ERROR, false, nil)
	gin.SetMode(gin.TestMode)

	repo := listing.NewMemoryRepository()
	require.NoError(t, repo.UpsertApp(context.Background(), &models.App{
		ID:        "vlc",
		Name:      "VLC",
		Category:  "Video",
		APKURL:    "https://files.example.com/vlc.apk",
		Downloads: 1234567,
	}))

	renderer := render.New(render.Options{Locale: "es-ES"})
	router, err := storefront.NewRouter(storefront.RouterConfig{
		Handler: storefront.NewHandler(listing.NewService(repo, nil), renderer, middleware.NewCooldown(0)),
		Auth:    auth.NewHandler(testSecret, "admin-key"),
	})
	require.NoError(t, err)

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, repo, &requests
}

func TestLikeIsSentOnce(t *testing.T) {
	srv, repo, _ := startStore(t)
	votesPath := filepath.Join(t.TempDir(), "votes.yaml")
	client := newAPIClient(srv.URL, "")
	var out bytes.Buffer

	sent, err := likeApp(client, votesPath, "vlc", &out)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = likeApp(client, votesPath, "vlc", &out)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Contains(t, out.String(), "already liked")

	app, err := repo.GetApp(context.Background(), "vlc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), app.Likes)

	book, err := votes.Load(votesPath)
	require.NoError(t, err)
	assert.True(t, book.Liked("vlc"))
}

func TestLikeUnknownAppKeepsBookClean(t *testing.T) {
	srv, _, _ := startStore(t)
	votesPath := filepath.Join(t.TempDir(), "votes.yaml")

	_, err := likeApp(newAPIClient(srv.URL, ""), votesPath, "ghost", &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, render.MsgNotFound, err.Error())

	book, err := votes.Load(votesPath)
	require.NoError(t, err)
	assert.False(t, book.Liked("ghost"))
}

func TestInvalidReviewNeverLeaves(t *testing.T) {
	srv, _, requests := startStore(t)
	votesPath := filepath.Join(t.TempDir(), "votes.yaml")
	client := newAPIClient(srv.URL, "")

	err := addReview(client, votesPath, "vlc", models.SubmitReviewRequest{Stars: 5, Comment: "ok"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, listing.ErrCommentTooShort)
	assert.Zero(t, requests.Load())

	var out bytes.Buffer
	err = addReview(client, votesPath, "vlc", models.SubmitReviewRequest{Stars: 4, Comment: "  Plays everything  "}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Rating: 4.0 (1 votes)")

	out.Reset()
	require.NoError(t, listReviews(client, "vlc", &out))
	assert.Contains(t, out.String(), "★★★★☆")
	assert.Contains(t, out.String(), "Plays everything")
}

func TestImportThenShow(t *testing.T) {
	srv, _, _ := startStore(t)
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apps:
  - id: kodi
    name: Kodi
    category: Video
    downloads: 2500000
    internet: offline
    playstore_url: https://play.example.com/kodi
`), 0o644))

	_, err := importApps(newAPIClient(srv.URL, ""), path, &bytes.Buffer{})
	require.Error(t, err, "import needs an admin token")

	token, err := utils.GenerateJWT("cli", utils.RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)
	n, err := importApps(newAPIClient(srv.URL, token), path, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var out bytes.Buffer
	renderer := render.New(render.Options{Locale: "es-ES"})
	require.NoError(t, showApp(newAPIClient(srv.URL, ""), renderer, votes.Book{}, "kodi", &out))
	assert.Contains(t, out.String(), "Kodi (Video)")
	assert.Contains(t, out.String(), "2.500.000")
	assert.Contains(t, out.String(), "Works without Internet")
	assert.Contains(t, out.String(), "Play Store: https://play.example.com/kodi")
	assert.Contains(t, out.String(), render.MsgNoReviews)
	assert.Contains(t, out.String(), "Download: "+render.MsgNoFile)
}

func TestLoadImportFileRequiresName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps:\n  - id: nameless\n"), 0o644))

	_, err := loadImportFile(path)
	assert.ErrorContains(t, err, "entry 1")
}

func TestDownloadAndShare(t *testing.T) {
	srv, _, _ := startStore(t)
	client := newAPIClient(srv.URL, "")

	var out bytes.Buffer
	require.NoError(t, downloadApp(client, "vlc", &out))
	assert.Equal(t, "https://files.example.com/vlc.apk\n", out.String())

	out.Reset()
	require.NoError(t, shareApp(client, "vlc", &out))
	assert.Contains(t, out.String(), "/app?id=vlc")
}

func TestSetConfigValue(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	cfg, err := config.Init()
	require.NoError(t, err)

	require.NoError(t, setConfigValue(cfg, "server.host", "store.example.com"))
	require.NoError(t, setConfigValue(cfg, "server.http_port", "9000"))
	assert.Equal(t, "http://store.example.com:9000", cfg.ServerURL())

	assert.Error(t, setConfigValue(cfg, "server.http_port", "99999"))
	assert.Error(t, setConfigValue(cfg, "server.scheme", "ftp"))
	assert.Error(t, setConfigValue(cfg, "nope", "x"))
	assert.Error(t, setConfigValue(cfg, "sync.auto_sync", "true"))
}
