package server

import (
	"fmt"
	"sort"
	"strings"

	"newscurator/internal/database"
)

// BuildDigest renders stored items as a markdown digest grouped by tag. An
// item with several tags appears under its first tag only, so the digest
// stays one-entry-per-item. Untagged items land in an "untagged" section.
func BuildDigest(items []database.StoredItem) string {
	if len(items) == 0 {
		return "No items curated yet."
	}

	byTag := make(map[string][]database.StoredItem)
	for _, item := range items {
		tag := "untagged"
		if len(item.Tags) > 0 {
			tag = item.Tags[0]
		}
		byTag[tag] = append(byTag[tag], item)
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder
	for _, tag := range tags {
		fmt.Fprintf(&b, "## %s\n\n", tag)
		for _, item := range byTag[tag] {
			if item.URL != "" {
				fmt.Fprintf(&b, "- [%s](%s)", item.Title, item.URL)
			} else {
				fmt.Fprintf(&b, "- %s", item.Title)
			}
			if item.SourceID != "" {
				fmt.Fprintf(&b, " *(%s)*", item.SourceID)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
