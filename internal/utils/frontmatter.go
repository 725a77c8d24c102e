package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PageMetadata is the YAML frontmatter of a markdown page file
type PageMetadata struct {
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`     // Actor ID; empty means the importing actor
	Categories  []string `yaml:"categories"` // Category names, created on demand
	Protected   bool     `yaml:"protected"`
	EditSummary string   `yaml:"summary"`
}

// ParseFrontmatter splits a page file into its metadata and markdown body.
// Expected format:
// ---
// title: Server:Minecraft Hub
// categories: [Servers]
// ---
// # Markdown content here
func ParseFrontmatter(content []byte) (*PageMetadata, string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return nil, "", errors.New("missing frontmatter: file must start with '---'")
	}

	lines := bytes.Split(content, []byte("\n"))

	// Skip the opening "---" line
	closingDelim := 0
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			closingDelim = i
			break
		}
	}
	if closingDelim == 0 {
		return nil, "", errors.New("missing closing frontmatter delimiter '---'")
	}

	var metadata PageMetadata
	if err := yaml.Unmarshal(bytes.Join(lines[1:closingDelim], []byte("\n")), &metadata); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	metadata.Title = strings.TrimSpace(metadata.Title)
	if metadata.Title == "" {
		return nil, "", errors.New("frontmatter field 'title' must be a non-empty string")
	}

	body := string(bytes.Join(lines[closingDelim+1:], []byte("\n")))
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return &metadata, strings.TrimLeft(body, "\n"), nil
}
