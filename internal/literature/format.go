// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"fmt"
	"strings"

	"github.com/pdiddy/finbrief/pkg/types"
)

// labelSet holds the display strings for one output language.
type labelSet struct {
	Name             string
	LiteratureReview string
	SearchQuery      string
	PapersFound      string
	Papers           string
	Authors          string
	Year             string
	Citations        string
	Source           string
	Venue            string
	Abstract         string
	Synthesis        string
	KeyThemes        string
	ResearchGaps     string
}

var languageLabels = map[string]labelSet{
	"mn": {
		Name:             "Mongolian",
		LiteratureReview: "Уран зохиолын тойм",
		SearchQuery:      "Хайлтын түлхүүр үг",
		PapersFound:      "Олдсон эрдэм шинжилгээний өгүүлэл",
		Papers:           "өгүүлэл",
		Authors:          "Зохиогчид",
		Year:             "Он",
		Citations:        "Эшлэл",
		Source:           "Эх сурвалж",
		Venue:            "Хэвлэл",
		Abstract:         "Хураангуй",
		Synthesis:        "Нэгтгэл",
		KeyThemes:        "Гол сэдвүүд",
		ResearchGaps:     "Судалгааны цоорхой",
	},
	"en": {
		Name:             "English",
		LiteratureReview: "Literature Review",
		SearchQuery:      "Search query",
		PapersFound:      "Academic Papers Found",
		Papers:           "papers",
		Authors:          "Authors",
		Year:             "Year",
		Citations:        "Citations",
		Source:           "Source",
		Venue:            "Venue",
		Abstract:         "Abstract",
		Synthesis:        "Synthesis",
		KeyThemes:        "Key Themes",
		ResearchGaps:     "Research Gaps",
	},
}

// LanguageName maps an output language code to its English display name.
// Unknown codes map to "English".
func LanguageName(code string) string {
	return labelsFor(code).Name
}

// labelsFor returns the labels for a language code, defaulting to English.
func labelsFor(language string) labelSet {
	if l, ok := languageLabels[language]; ok {
		return l
	}
	return languageLabels["en"]
}

// Format renders a review as display markdown in the requested language.
func Format(review types.LiteratureReview, language string) string {
	labels := labelsFor(language)

	var lines []string
	lines = append(lines, fmt.Sprintf("## %s\n", labels.LiteratureReview))

	if review.SearchQuery != "" {
		lines = append(lines, fmt.Sprintf("**%s:** %s\n", labels.SearchQuery, review.SearchQuery))
	}

	lines = append(lines, fmt.Sprintf("### %s (%d %s)\n", labels.PapersFound, len(review.Papers), labels.Papers))

	for i, paper := range review.Papers {
		lines = append(lines, fmt.Sprintf("#### %d. %s\n", i+1, paper.Title))
		lines = append(lines, fmt.Sprintf("- **%s:** %s", labels.Authors, formatAuthors(paper.Authors)))
		lines = append(lines, fmt.Sprintf("- **%s:** %d | **%s:** %d | **%s:** %s",
			labels.Year, paper.Year, labels.Citations, paper.CitationCount, labels.Source, paper.Source))
		if paper.Venue != "" {
			lines = append(lines, fmt.Sprintf("- **%s:** %s", labels.Venue, paper.Venue))
		}
		if paper.DOI != "" {
			lines = append(lines, fmt.Sprintf("- **DOI:** [%s](https://doi.org/%s)", paper.DOI, paper.DOI))
		} else if paper.URL != "" {
			lines = append(lines, fmt.Sprintf("- **URL:** %s", paper.URL))
		}
		if paper.Abstract != "" {
			lines = append(lines, fmt.Sprintf("- **%s:** %s", labels.Abstract, clampAbstract(paper.Abstract)))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "---\n")
	lines = append(lines, fmt.Sprintf("### %s\n", labels.Synthesis))
	lines = append(lines, review.Summary, "")

	if len(review.Themes) > 0 {
		lines = append(lines, fmt.Sprintf("### %s\n", labels.KeyThemes))
		for _, theme := range review.Themes {
			lines = append(lines, "- "+theme)
		}
		lines = append(lines, "")
	}

	if len(review.Gaps) > 0 {
		lines = append(lines, fmt.Sprintf("### %s\n", labels.ResearchGaps))
		for _, gap := range review.Gaps {
			lines = append(lines, "- "+gap)
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// formatAuthors joins up to three author names; longer lists collapse
// to the first three plus "et al.".
func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	if len(authors) > 3 {
		return strings.Join(authors[:3], ", ") + " et al."
	}
	return strings.Join(authors, ", ")
}

func clampAbstract(abstract string) string {
	runes := []rune(abstract)
	if len(runes) <= maxAbstractChars {
		return abstract
	}
	return string(runes[:maxAbstractChars]) + "..."
}
