package builder

import (
	"fmt"
	"strings"
)

const (
	breadItem = "\n<li class=\"bread\" itemprop=\"itemListElement\"  " +
		"itemscope=\"\" itemtype=\"https://schema.org/ListItem\">\n" +
		"<meta itemprop=\"position\" content=\"%d\" />\n" +
		"<a href=\"/%s\" itemprop=\"item\"><span itemprop=\"name\">%s</span></a></li>"
	breadCurrent = `<li class="bread" itemprop="title">%s</li>`
	breadList    = `<ul id="breadCrumb" itemscope="" itemtype="https://schema.org/BreadcrumbList">%s</ul>`
)

// Bread renders one schema.org ListItem for every proper ancestor of
// pathRoot, nearest the root first. Every ancestor must already have a title
// in titles. A path without ancestors yields "".
func Bread(pathRoot string, titles TitleRegistry) (string, error) {
	parts := strings.Split(pathRoot, "/")
	var b strings.Builder
	for i := 1; i < len(parts); i++ {
		key := strings.Join(parts[:i], "/")
		title, ok := titles[key]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingAncestor, key)
		}
		fmt.Fprintf(&b, breadItem, i, key, title)
	}
	return b.String(), nil
}

// wrapBread closes a non-empty ancestor list with the current page and wraps
// it in a BreadcrumbList.
func wrapBread(bread, title string) string {
	if bread == "" {
		return ""
	}
	return fmt.Sprintf(breadList, bread+fmt.Sprintf(breadCurrent, title))
}

// CleanPath maps an output path root onto its title registry key: one
// trailing "/" is dropped, otherwise a trailing "/index" segment is.
func CleanPath(p string) string {
	if strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	return strings.TrimSuffix(p, "/index")
}
