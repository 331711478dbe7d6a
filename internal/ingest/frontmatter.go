package ingest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// Frontmatter holds the YAML metadata at the top of a markdown post.
type Frontmatter struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
}

// ParseFrontmatter splits a markdown document into its YAML frontmatter and
// body. The document must start with a "---" delimited block.
func ParseFrontmatter(raw string) (Frontmatter, string, error) {
	var fm Frontmatter

	trimmed := strings.TrimLeft(raw, "\r\n \t")
	if !strings.HasPrefix(trimmed, frontmatterDelimiter) {
		return fm, "", fmt.Errorf("missing frontmatter block")
	}

	rest := trimmed[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx < 0 {
		return fm, "", fmt.Errorf("unterminated frontmatter block")
	}

	block := rest[:idx]
	body := rest[idx+len("\n"+frontmatterDelimiter):]
	// Drop the remainder of the closing delimiter line.
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, "", fmt.Errorf("invalid frontmatter: %w", err)
	}

	if fm.Slug == "" {
		return fm, "", fmt.Errorf("frontmatter missing slug")
	}
	if fm.Title == "" {
		return fm, "", fmt.Errorf("frontmatter missing title")
	}

	return fm, strings.TrimSpace(body), nil
}
