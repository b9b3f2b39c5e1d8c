// Package bibtex imports articles from BibTeX files so that references
// exported from citation managers can join the saved collection.
package bibtex

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nickng/bibtex"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// sourceName is the Source label for imported articles.
const sourceName = "BibTeX import"

// idPrefix namespaces imported ids next to the API-backed sources.
const idPrefix = "bib"

// Import parses BibTeX from r and converts every entry into an Article.
// Entries without a title are skipped. The article id is derived from the
// cite key, so re-importing the same file dedups naturally.
func Import(r io.Reader) ([]domain.Article, error) {
	parsed, err := bibtex.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing bibtex: %w", err)
	}

	now := time.Now()
	articles := make([]domain.Article, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		title := cleanField(field(entry, "title"))
		if title == "" {
			continue
		}

		abstract := cleanField(field(entry, "abstract"))
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		url := strings.TrimSpace(field(entry, "url"))
		if url == "" {
			if doi := strings.TrimSpace(field(entry, "doi")); doi != "" {
				url = "https://doi.org/" + doi
			}
		}

		venue := cleanField(field(entry, "journal"))
		if venue == "" {
			venue = cleanField(field(entry, "booktitle"))
		}

		// Entries without a cite key still need distinct ids, or the
		// deduplicator would collapse them into one record.
		citeKey := strings.TrimSpace(entry.CiteName)
		if citeKey == "" {
			citeKey = uuid.NewString()
		}

		articles = append(articles, domain.Article{
			ID:       idPrefix + ":" + citeKey,
			Title:    title,
			Authors:  parseAuthors(field(entry, "author")),
			Year:     domain.ResolveYear(parseYear(field(entry, "year")), now),
			Source:   sourceName,
			URL:      url,
			Abstract: abstract,
			Venue:    venue,
		})
	}
	return articles, nil
}

// field returns the raw value of a BibTeX field, or "".
func field(entry *bibtex.BibEntry, name string) string {
	if v, ok := entry.Fields[name]; ok && v != nil {
		return v.String()
	}
	return ""
}

// cleanField strips the protective braces BibTeX uses to preserve casing.
func cleanField(value string) string {
	return strings.TrimSpace(strings.NewReplacer("{", "", "}", "").Replace(value))
}

// parseAuthors splits a BibTeX author field on " and " and normalizes
// "Family, Given" entries to "Given Family".
func parseAuthors(raw string) []string {
	raw = cleanField(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, " and ")
	authors := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if family, given, ok := strings.Cut(name, ","); ok {
			name = strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(family))
		}
		authors = append(authors, name)
	}
	return authors
}

// parseYear extracts the leading year from a year field, tolerating values
// like "2019" and "2019-05".
func parseYear(raw string) int {
	raw = cleanField(raw)
	if len(raw) >= 4 {
		if year, err := strconv.Atoi(raw[:4]); err == nil {
			return year
		}
	}
	return 0
}
