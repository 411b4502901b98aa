package scaffold

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirayu/pagenerator/internal/builder"
	"github.com/shirayu/pagenerator/internal/config"
	"github.com/shirayu/pagenerator/internal/meta"
)

func TestCreateNewSite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mysite")
	var out bytes.Buffer
	require.NoError(t, CreateNewSite(&out, dir))
	assert.Contains(t, out.String(), "pagenerator build")

	for _, name := range []string{config.DefaultFile, "template.html", "content/index.md", "content/docs/index.md"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(name)))
	}

	err := CreateNewSite(io.Discard, dir)
	require.ErrorIs(t, err, ErrExists)
}

// The scaffolded site must build as is.
func TestCreateNewSite_Builds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CreateNewSite(io.Discard, dir))
	testChdir(t, dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Recursive)

	var stdout, stderr bytes.Buffer
	b, err := builder.New(builder.Options{Dict: cfg.Dict, Breads: cfg.Breads},
		builder.WithOutput(&stdout, &stderr),
		builder.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	n, err := b.Walk(cfg.Input, cfg.Template, cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, stderr.String())

	index, err := os.ReadFile(filepath.Join(cfg.Output, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "<title>Home | My Site</title>")
	assert.Contains(t, string(index), `content="The front page."`)
	assert.Contains(t, string(index), `<a href="index.html">home</a>`)

	page, err := os.ReadFile(filepath.Join(cfg.Output, "docs", "getting-started.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `<span itemprop="name">Documentation</span>`)
	assert.Contains(t, string(page), `content="A site built with pagenerator."`)
	assert.Contains(t, string(page), `<a href="../index.html">home</a>`)
}

func TestCreateNewPage(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateNewPage(io.Discard, filepath.Join(dir, "blog", "first"), "First Post")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "blog", "first.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "First Post", meta.Title(string(data)))
	assert.Equal(t, "First Post", meta.OGDescription(string(data)))

	_, err = CreateNewPage(io.Discard, path, "Again")
	require.ErrorIs(t, err, ErrExists)
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatal(err)
		}
	})
}
