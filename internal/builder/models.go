package builder

// TitleRegistry maps a cleaned, slash-separated output path such as
// "docs/api" to the title of the page at that path.
type TitleRegistry map[string]string

// Page holds what the converter extracts from one input document.
type Page struct {
	Title         string
	OGDescription string
	// FrontMatter is only filled when front matter parsing is enabled.
	FrontMatter map[string]string
	// Body is the document text without front matter.
	Body string
}

// Placeholders assembles the substitution mapping for p. The scoped keyword
// dictionary overrides the computed values and front matter overrides the
// dictionary. og_description is always set: the document comment wins, then
// front matter, then the dictionary.
func (p Page) Placeholders(content, bread, baseHref string, dict map[string]string) map[string]string {
	m := map[string]string{
		"content":   content,
		"title":     p.Title,
		"bread":     bread,
		"base_href": baseHref,
	}
	for k, v := range dict {
		m[k] = v
	}
	for k, v := range p.FrontMatter {
		m[k] = v
	}

	og := p.OGDescription
	if og == "" {
		og = p.FrontMatter["og_description"]
	}
	if og == "" {
		og = dict["og_description"]
	}
	m["og_description"] = og
	return m
}

// job describes one conversion.
type job struct {
	input    string
	template string
	output   string
	bread    string
	baseHref string
}

type result struct {
	title   string
	skipped bool
}
