// Package docfmt renders the saved collection into human-readable documents:
// a Markdown review sheet with per-article reading notes, ABNT-style
// references, and a theoretical framework grouped by research objective.
package docfmt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// abntMonths are the Brazilian Portuguese month abbreviations used in ABNT
// access dates.
var abntMonths = map[time.Month]string{
	time.January:   "jan.",
	time.February:  "fev.",
	time.March:     "mar.",
	time.April:     "abr.",
	time.May:       "maio",
	time.June:      "jun.",
	time.July:      "jul.",
	time.August:    "ago.",
	time.September: "set.",
	time.October:   "out.",
	time.November:  "nov.",
	time.December:  "dez.",
}

// unassignedObjective groups framework entries whose articles have no
// specific objective assigned yet.
const unassignedObjective = "Unassigned"

// ABNTReference formats one article as an ABNT-style bibliographic reference
// with an access date, e.g.
//
//	VASWANI, Ashish; SHAZEER, Noam. Attention Is All You Need. NeurIPS, 2017.
//	Disponível em: https://example.org. Acesso em: 12 jan. 2026.
func ABNTReference(article domain.Article, accessed time.Time) string {
	var b strings.Builder

	if len(article.Authors) > 0 {
		b.WriteString(strings.Join(abntAuthors(article.Authors), "; "))
		b.WriteString(". ")
	}

	b.WriteString(strings.TrimSuffix(article.Title, "."))
	b.WriteString(". ")

	if article.Venue != "" {
		b.WriteString(article.Venue)
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%d.", article.Year)

	if article.URL != "" {
		fmt.Fprintf(&b, " Disponível em: %s. Acesso em: %d %s %d.",
			article.URL, accessed.Day(), abntMonths[accessed.Month()], accessed.Year())
	}
	return b.String()
}

// abntAuthors renders each author as "SURNAME, Given names".
func abntAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, author := range authors {
		fields := strings.Fields(author)
		if len(fields) < 2 {
			out = append(out, strings.ToUpper(author))
			continue
		}
		surname := strings.ToUpper(fields[len(fields)-1])
		given := strings.Join(fields[:len(fields)-1], " ")
		out = append(out, surname+", "+given)
	}
	return out
}

// ReviewSheet renders the collection as a Markdown reading sheet: one section
// per saved article with its metadata, summary, and ABNT reference.
func ReviewSheet(collection *domain.Collection, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Literature Review Sheet\n\n")
	fmt.Fprintf(&b, "Generated on %s. %d article(s) in collection.\n\n",
		now.Format("2006-01-02"), len(collection.Articles))

	for i, saved := range collection.Articles {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, saved.Title)
		fmt.Fprintf(&b, "- **Authors**: %s\n", joinOr(saved.Authors, "unknown"))
		fmt.Fprintf(&b, "- **Year**: %d\n", saved.Year)
		fmt.Fprintf(&b, "- **Source**: %s\n", saved.Source)
		if saved.Venue != "" {
			fmt.Fprintf(&b, "- **Venue**: %s\n", saved.Venue)
		}
		if saved.URL != "" {
			fmt.Fprintf(&b, "- **Link**: %s\n", saved.URL)
		}
		if saved.SpecificObjective != "" {
			fmt.Fprintf(&b, "- **Objective**: %s\n", saved.SpecificObjective)
		}
		readState := "unread"
		if saved.Read {
			readState = "read"
			if saved.ReadDate != "" {
				readState += " on " + saved.ReadDate
			}
		}
		fmt.Fprintf(&b, "- **Status**: %s\n\n", readState)

		if saved.Summary != "" {
			fmt.Fprintf(&b, "### Summary\n\n%s\n\n", saved.Summary)
		}
		if saved.HasAbstract() {
			fmt.Fprintf(&b, "### Abstract\n\n%s\n\n", saved.Abstract)
		}
		fmt.Fprintf(&b, "### Reference\n\n%s\n\n", ABNTReference(saved.Article, now))
	}

	return b.String()
}

// ObjectiveGroup is one theoretical framework section: the articles saved
// under a single specific objective.
type ObjectiveGroup struct {
	// Objective is the specific research objective, or "Unassigned".
	Objective string `json:"objective"`

	// Articles are the saved articles under this objective.
	Articles []domain.SavedArticle `json:"articles"`
}

// Framework groups the collection's articles by specific objective, sorted
// by objective name with the unassigned group last. Article order within a
// group follows the collection.
func Framework(collection *domain.Collection) []ObjectiveGroup {
	grouped := make(map[string][]domain.SavedArticle)
	for _, saved := range collection.Articles {
		objective := strings.TrimSpace(saved.SpecificObjective)
		if objective == "" {
			objective = unassignedObjective
		}
		grouped[objective] = append(grouped[objective], saved)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		if name != unassignedObjective {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := grouped[unassignedObjective]; ok {
		names = append(names, unassignedObjective)
	}

	groups := make([]ObjectiveGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, ObjectiveGroup{Objective: name, Articles: grouped[name]})
	}
	return groups
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
