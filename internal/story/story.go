// Package story compiles a .biff interactive story into a Markdown tree that
// the builder can convert: one page per knot state, with a title heading, an
// og:description comment and links to the follow-up pages.
package story

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/verkaro/bigif/bigif"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/shirayu/pagenerator/internal/builder"
	"github.com/shirayu/pagenerator/internal/util"
)

var (
	knotRe     = regexp.MustCompile(`^\s*===\s*([\w-]+)\s*===\s*$`)
	unsafeRe   = regexp.MustCompile(`[^\w- ]+`)
	dashRunRe  = regexp.MustCompile(`-+`)
	titleCaser = cases.Title(language.Und)
)

type compiled struct {
	Metadata map[string]string `json:"metadata"`
	Graph    struct {
		Nodes map[string]*bigif.StoryNode `json:"nodes"`
	} `json:"graph"`
}

// Compile reads the story at biffPath and writes its pages below contentDir.
// It returns the number of pages written.
func Compile(biffPath, contentDir string) (int, error) {
	biffData, err := os.ReadFile(biffPath)
	if err != nil {
		return 0, err
	}

	knotMeta, err := parseKnotMeta(biffData)
	if err != nil {
		return 0, fmt.Errorf("failed to pre-parse knot metadata: %w", err)
	}

	jsonBytes, err := bigif.Compile(string(biffData))
	if err != nil {
		return 0, fmt.Errorf("biff syntax error: %w", err)
	}
	var story compiled
	if err := json.Unmarshal(jsonBytes, &story); err != nil {
		return 0, fmt.Errorf("failed to decode compiled story: %w", err)
	}

	nodes := story.Graph.Nodes
	paths := buildPaths(nodes, contentDir)
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	written := 0
	for _, id := range ids {
		node := nodes[id]
		target := paths[id]
		page, err := renderKnot(node, target, paths, story.Metadata, knotMeta[node.KnotName])
		if err != nil {
			return written, fmt.Errorf("failed to render knot %s: %w", node.KnotName, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", target, err)
		}
		if err := os.WriteFile(target, page, 0644); err != nil {
			return written, fmt.Errorf("failed to write story page %s: %w", target, err)
		}
		written++
	}
	return written, nil
}

// renderKnot produces the Markdown page for node, which is written to target.
func renderKnot(node *bigif.StoryNode, target string, paths map[string]string, storyMeta, knotMeta map[string]string) ([]byte, error) {
	title, body := extractTitleAndContent(node.KnotName, node.Content, knotMeta)
	clean, err := builder.CleanEditML(body)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := writeFrontMatter(&b, storyMeta, knotMeta); err != nil {
		return nil, err
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if desc := knotMeta["description"]; desc != "" {
		fmt.Fprintf(&b, "<!-- og:description: %s -->\n\n", commentSafe(desc))
	}
	if clean = strings.TrimSpace(clean); clean != "" {
		b.WriteString(clean)
		b.WriteString("\n\n")
	}
	for _, edge := range node.Edges {
		dest, ok := paths[edge.TargetNodeID]
		if !ok {
			return nil, fmt.Errorf("choice %q points to unknown node %s", edge.Text, edge.TargetNodeID)
		}
		rel, err := util.SlashRel(filepath.Dir(target), dest)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "* [%s](%s)\n", edge.Text, rel)
	}
	return b.Bytes(), nil
}

// commentSafe escapes the dashes of every "--" in s, so s cannot close the
// HTML comment it is placed in. The entities decode back to dashes in the
// attribute values the description ends up in.
func commentSafe(s string) string {
	return strings.ReplaceAll(s, "--", "&#45;&#45;")
}

// writeFrontMatter writes the story-wide title and author plus the extra
// knot comments as YAML front matter. Nothing is written when there is
// nothing to say.
func writeFrontMatter(b *bytes.Buffer, storyMeta, knotMeta map[string]string) error {
	fm := make(map[string]string)
	if st, ok := storyMeta["title"]; ok {
		fm["story_title"] = st
	}
	if sa, ok := storyMeta["author"]; ok {
		fm["story_author"] = sa
	}
	for key, value := range knotMeta {
		if key != "title" && key != "description" {
			fm[key] = value
		}
	}
	if len(fm) == 0 {
		return nil
	}

	data, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("failed to encode front matter: %w", err)
	}
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n")
	return nil
}

// parseKnotMeta collects the "// key: value" comments that follow each
// "=== knot ===" header. Keys are lower-cased.
func parseKnotMeta(biffData []byte) (map[string]map[string]string, error) {
	data := make(map[string]map[string]string)
	var current string

	scanner := bufio.NewScanner(bytes.NewReader(biffData))
	for scanner.Scan() {
		line := strings.TrimFunc(scanner.Text(), unicode.IsSpace)

		if m := knotRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			if data[current] == nil {
				data[current] = make(map[string]string)
			}
			continue
		}
		if current == "" || !strings.HasPrefix(line, "//") {
			continue
		}
		comment := strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if key, value, ok := strings.Cut(comment, ":"); ok {
			data[current][strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// extractTitleAndContent picks the page title (knot comment, then the first
// "# " heading in the knot, then the knot name) and removes "# " headings
// from the body.
func extractTitleAndContent(knotName, content string, knotMeta map[string]string) (string, string) {
	title := knotMeta["title"]
	var heading string
	var lines []string

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimFunc(line, unicode.IsSpace)
		if strings.HasPrefix(trimmed, "# ") {
			if heading == "" {
				heading = strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			}
			continue
		}
		lines = append(lines, line)
	}

	if title == "" {
		title = heading
	}
	if title == "" {
		title = titleCaser.String(strings.ReplaceAll(knotName, "_", " "))
	}
	return title, strings.TrimSpace(strings.Join(lines, "\n"))
}

// buildPaths assigns every node a Markdown file below outDir: the scene
// becomes a directory, the knot name and the sorted set of true states the
// file name.
func buildPaths(nodes map[string]*bigif.StoryNode, outDir string) map[string]string {
	paths := make(map[string]string, len(nodes))
	for id, node := range nodes {
		dirs := []string{outDir}
		if node.Scene != "" {
			for _, seg := range strings.Split(node.Scene, "/") {
				dirs = append(dirs, sanitize(seg))
			}
		}
		parts := []string{sanitize(node.KnotName)}
		var flags []string
		for k, v := range node.State {
			if v {
				flags = append(flags, sanitize(k))
			}
		}
		sort.Strings(flags)
		parts = append(parts, flags...)
		paths[id] = filepath.Join(append(dirs, strings.Join(parts, "-")+".md")...)
	}
	return paths
}

// sanitize turns s into a lower-case file name segment.
func sanitize(s string) string {
	s = strings.ToLower(s)
	s = unsafeRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	return dashRunRe.ReplaceAllString(s, "-")
}
