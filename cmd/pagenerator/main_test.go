package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirayu/pagenerator/internal/config"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := NewMain().Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestMain_Run_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"help"}, {"build", "-h"}} {
		stdout, _, err := run(t, args...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Usage:")
	}

	stdout, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, cmd := range []string{"build", "serve", "new", "story"} {
		assert.Contains(t, stdout, cmd, "help should mention %s", cmd)
	}
}

func TestBuild_SingleFile(t *testing.T) {
	testChdir(t, t.TempDir())
	write(t, "page.md", "# Hello\n\n<!-- og:description: Greeting -->\n\nbody\n")
	write(t, "template.html", "<title>$title</title><meta content=\"$og_description\">$content")

	_, _, err := run(t, "-i", "page.md", "-t", "template.html", "-o", "out/page.html")
	require.NoError(t, err)

	got := read(t, filepath.Join("out", "page.html"))
	assert.True(t, strings.HasPrefix(got, `<title>Hello</title><meta content="Greeting">`))
	assert.Contains(t, got, "<p>body</p>")
}

func TestBuild_Stdout(t *testing.T) {
	testChdir(t, t.TempDir())
	write(t, "page.md", "# Hello\n")
	write(t, "template.html", "[$title|$og_description]")

	stdout, _, err := run(t, "build", "-i", "page.md", "-t", "template.html", "-o", "-",
		"--dict", `{"og_description": "default"}`)
	require.NoError(t, err)
	assert.Equal(t, "[Hello|default]", stdout)
}

func TestBuild_Recursive(t *testing.T) {
	testChdir(t, t.TempDir())
	write(t, "src/index.md", "# Home\n")
	write(t, "src/docs/index.md", "# Docs\n")
	write(t, "src/docs/a.md", "# A\n")
	write(t, "template.html", "$bread<h1>$title</h1>$site")

	stdout, _, err := run(t, "-R", "-i", "src", "-o", "public", "-t", "template.html",
		"--breads", "docs", "--dict", `{"site": "S", "src/docs:site": "D"}`)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, filepath.Join("src", "index.md")+" "+filepath.Join("public", "index.html")+" Home", lines[0])

	assert.Equal(t, "<h1>Home</h1>S", read(t, filepath.Join("public", "index.html")))
	page := read(t, filepath.Join("public", "docs", "a.html"))
	assert.Contains(t, page, `<span itemprop="name">Docs</span>`)
	assert.True(t, strings.HasSuffix(page, "<h1>A</h1>D"))
}

func TestBuild_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	testChdir(t, dir)
	write(t, "content/index.md", "# Home\n")
	write(t, "template.html", "$title:$og_description")
	write(t, config.DefaultFile, "input: content\noutput: public\ntemplate: template.html\nrecursive: true\ndict:\n  og_description: From config\n")

	_, _, err := run(t)
	require.NoError(t, err)
	assert.Equal(t, "Home:From config", read(t, filepath.Join("public", "index.html")))

	t.Run("flags override the file", func(t *testing.T) {
		_, _, err := run(t, "-o", "other", "--dict", `{"og_description": "From flag"}`)
		require.NoError(t, err)
		assert.Equal(t, "Home:From flag", read(t, filepath.Join("other", "index.html")))
	})

	t.Run("explicit config file", func(t *testing.T) {
		write(t, "alt.yaml", "input: content\noutput: alt\ntemplate: template.html\nrecursive: true\n")
		_, _, err := run(t, "-c", "alt.yaml")
		require.NoError(t, err)
		assert.Equal(t, "Home:", read(t, filepath.Join("alt", "index.html")))
	})
}

func TestBuild_Errors(t *testing.T) {
	testChdir(t, t.TempDir())
	write(t, "page.md", "# T\n")
	write(t, "template.html", "$title $unknown")

	t.Run("missing settings", func(t *testing.T) {
		_, _, err := run(t, "build")
		require.ErrorContains(t, err, "missing input")
		require.ErrorContains(t, err, "missing template")
	})

	t.Run("stdout with a tree", func(t *testing.T) {
		_, _, err := run(t, "-R", "-i", ".", "-o", "-", "-t", "template.html")
		require.ErrorContains(t, err, "only allowed for single files")
	})

	t.Run("bad dictionary", func(t *testing.T) {
		_, _, err := run(t, "-i", "page.md", "-o", "-", "-t", "template.html", "--dict", "[1]")
		require.ErrorContains(t, err, "keyword dictionary")
	})

	t.Run("missing placeholder", func(t *testing.T) {
		_, _, err := run(t, "-i", "page.md", "-o", "-", "-t", "template.html")
		require.ErrorContains(t, err, "unknown")
	})

	t.Run("missing explicit config", func(t *testing.T) {
		_, _, err := run(t, "-c", "nope.yaml", "-i", "page.md", "-o", "-", "-t", "template.html")
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	testChdir(t, dir)

	stdout, _, err := run(t, "new", "site", "site")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Site scaffolded")
	assert.FileExists(t, filepath.Join("site", config.DefaultFile))

	_, _, err = run(t, "new", "page", filepath.Join("site", "content", "docs", "intro"), "Introduction")
	require.NoError(t, err)
	assert.Contains(t, read(t, filepath.Join("site", "content", "docs", "intro.md")), "# Introduction")

	testChdir(t, filepath.Join(dir, "site"))
	_, _, err = run(t)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("public", "docs", "intro.html"))
}

func TestStoryDest(t *testing.T) {
	got, err := storyDest("story.biff", "", "content")
	require.NoError(t, err)
	assert.Equal(t, "content", got)

	got, err = storyDest(filepath.Join("stories", "garden.biff"), "", "content")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("content", "garden"), got)

	got, err = storyDest("garden.biff", "pages", "")
	require.NoError(t, err)
	assert.Equal(t, "pages", got)

	_, err = storyDest("garden.biff", "", "")
	require.Error(t, err)
}

func TestStory_MissingFile(t *testing.T) {
	testChdir(t, t.TempDir())
	_, _, err := run(t, "story", "nope.biff", "-i", "content", "--content-only")
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorContains(t, err, "not found")
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
