package stitch

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/BurntSushi/toml"
)

// frontmatterDelimiter opens and closes the TOML block of a stitch file.
const frontmatterDelimiter = "+++"

var (
	errNoFrontmatter       = errors.New("no frontmatter found")
	errUnclosedFrontmatter = errors.New("unclosed frontmatter")
)

// Keys the Stitch type declares. Everything else in a frontmatter block is
// carried in Stitch.Extra.
var (
	knownKeys         = map[string]bool{"id": true, "title": true, "status": true, "tags": true, "created_at": true, "updated_at": true, "relations": true, "git": true}
	knownRelationKeys = map[string]bool{"parent": true, "depends_on": true}
	knownGitKeys      = map[string]bool{"links": true, "fingerprints": true}
)

// header is the scalar part of the frontmatter, written before any table.
type header struct {
	ID        string   `toml:"id"`
	Title     string   `toml:"title"`
	Status    Status   `toml:"status"`
	Tags      []string `toml:"tags,omitempty"`
	CreatedAt string   `toml:"created_at"`
	UpdatedAt string   `toml:"updated_at"`
}

// Encode serializes a stitch as TOML frontmatter, a blank separator line,
// and the body exactly as stored.
func Encode(s *Stitch) ([]byte, error) {
	front, err := encodeFrontmatter(s)
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter for %q: %w", s.ID, err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")
	buf.WriteString(strings.TrimRight(front, "\n"))
	buf.WriteString("\n" + frontmatterDelimiter + "\n")
	if s.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(s.Body)
	}
	return buf.Bytes(), nil
}

func encodeFrontmatter(s *Stitch) (string, error) {
	var front bytes.Buffer
	enc := toml.NewEncoder(&front)
	if len(s.Extra) == 0 {
		if err := enc.Encode(s); err != nil {
			return "", err
		}
		return front.String(), nil
	}

	// Unknown keys go between the header and the relations/git tables:
	// top-level values must precede the first table header.
	if err := enc.Encode(header{s.ID, s.Title, s.Status, s.Tags, s.CreatedAt, s.UpdatedAt}); err != nil {
		return "", err
	}
	top := maps.Clone(s.Extra)
	delete(top, "relations")
	delete(top, "git")
	if len(top) > 0 {
		if err := enc.Encode(top); err != nil {
			return "", err
		}
	}

	rel := extraTable(s.Extra, "relations")
	if s.Relations.Parent != "" {
		rel["parent"] = s.Relations.Parent
	}
	if len(s.Relations.DependsOn) > 0 {
		rel["depends_on"] = s.Relations.DependsOn
	}
	git := extraTable(s.Extra, "git")
	if len(s.Git.Links) > 0 {
		git["links"] = s.Git.Links
	}
	if len(s.Git.Fingerprints) > 0 {
		git["fingerprints"] = s.Git.Fingerprints
	}
	if err := enc.Encode(map[string]any{"relations": rel}); err != nil {
		return "", err
	}
	if err := enc.Encode(map[string]any{"git": git}); err != nil {
		return "", err
	}
	return front.String(), nil
}

// extraTable returns a copy of the unknown keys stored for table name.
func extraTable(extra map[string]any, name string) map[string]any {
	if t, ok := extra[name].(map[string]any); ok {
		return maps.Clone(t)
	}
	return map[string]any{}
}

// Decode parses a stitch file. Unknown frontmatter keys are kept in Extra
// so rewriting a newer file does not lose them; a missing ID or unknown
// status is an error. The body is everything after the closing delimiter
// line, minus one separator newline.
func Decode(data []byte) (*Stitch, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, frontmatterDelimiter+"\n") {
		return nil, errNoFrontmatter
	}
	rest := text[len(frontmatterDelimiter)+1:]

	var front, after string
	switch {
	case rest == frontmatterDelimiter:
	case strings.HasPrefix(rest, frontmatterDelimiter+"\n"):
		after = rest[len(frontmatterDelimiter)+1:]
	default:
		end := strings.Index(rest, "\n"+frontmatterDelimiter+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontmatterDelimiter) {
				return nil, errUnclosedFrontmatter
			}
			end = len(rest) - len(frontmatterDelimiter) - 1
			front = rest[:end]
		} else {
			front = rest[:end]
			after = rest[end+len(frontmatterDelimiter)+2:]
		}
	}

	var s Stitch
	if _, err := toml.Decode(front, &s); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("frontmatter is missing id")
	}
	if err := ValidateStatus(s.Status); err != nil {
		return nil, fmt.Errorf("stitch %q: %w", s.ID, err)
	}

	var raw map[string]any
	if _, err := toml.Decode(front, &raw); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	s.Extra = unknownKeys(raw)

	s.Body = strings.TrimPrefix(after, "\n")
	return &s, nil
}

// unknownKeys returns the entries of raw that Stitch does not declare,
// including unknown keys inside the relations and git tables. Nil when
// there are none.
func unknownKeys(raw map[string]any) map[string]any {
	extra := map[string]any{}
	for k, v := range raw {
		if !knownKeys[k] {
			extra[k] = v
		}
	}
	for name, known := range map[string]map[string]bool{"relations": knownRelationKeys, "git": knownGitKeys} {
		table, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		sub := map[string]any{}
		for k, v := range table {
			if !known[k] {
				sub[k] = v
			}
		}
		if len(sub) > 0 {
			extra[name] = sub
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
