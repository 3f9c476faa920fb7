package story

import (
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

const (
	// unknownLabel stands in for a chapter or volume when a story has no
	// index entries before the quoted line.
	unknownLabel = "—————"

	// maxQuoteLength keeps a quote inside the Discord embed field limit.
	maxQuoteLength = 1024

	// quoteParagraphs is how many consecutive lines one quote spans.
	quoteParagraphs = 3

	acvrAcronym     = "acvr"
	acvrTitlePrefix = "A Cadmean Victory "
)

// Search scans the story's text for lines containing the given terms and
// returns one quote per hit. With exact set the whole phrase must appear in a
// line; otherwise any single word of the terms is enough. Matching is case
// insensitive. Each quote spans the matching paragraph and the two following
// it, with the terms underlined and the result truncated to fit an embed
// field.
func (l *Library) Search(acronym, terms string, exact bool) ([]Quote, error) {
	rec, ok := l.records[acronym]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownStory, "searching story %q", acronym)
	}

	trimmed := strings.TrimSpace(terms)
	if trimmed == "" {
		return nil, eris.New("search terms are required")
	}

	lowerTerms := strings.ToLower(trimmed)
	words := strings.Fields(lowerTerms)

	underline, err := underlinePattern(trimmed)
	if err != nil {
		return nil, err
	}

	var results []Quote
	for i, line := range rec.text {
		lowerLine := strings.ToLower(line)

		matched := false
		if exact {
			matched = strings.Contains(lowerLine, lowerTerms)
		} else {
			for _, word := range words {
				if strings.Contains(lowerLine, word) {
					matched = true
					break
				}
			}
		}

		if !matched {
			continue
		}

		end := i + quoteParagraphs
		if end > len(rec.text) {
			end = len(rec.text)
		}

		quote := strings.Join(rec.text[i:end], "\n")
		quote = underline.ReplaceAllString(quote, "${1}__${2}__")
		quote = truncateQuote(quote)

		volume, chapter := rec.labels(acronym, i)
		results = append(results, Quote{
			Volume:  volume,
			Chapter: chapter,
			Text:    quote,
		})
	}

	return results, nil
}

// RandomQuote picks a random story and a random two-paragraph passage from
// it, labelled with the volume and chapter it falls under.
func (l *Library) RandomQuote() (Info, Quote, error) {
	candidates := make([]*record, 0, len(l.records))
	for _, rec := range l.records {
		// A passage needs room for the leading lines skipped by the picker.
		if len(rec.text) >= 5 {
			candidates = append(candidates, rec)
		}
	}

	if len(candidates) == 0 {
		return Info{}, Quote{}, eris.Wrap(ErrNoStories, "picking random quote")
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].info.Acronym < candidates[b].info.Acronym
	})

	rec := candidates[rand.IntN(len(candidates))]

	// Skip the title lines at the top and keep the sample window in bounds.
	start := 2 + rand.IntN(len(rec.text)-4)
	sample := strings.Join(rec.text[start:start+2], "\n")

	volume, chapter := rec.labels(rec.info.Acronym, start+2)

	return rec.info, Quote{
		Volume:  volume,
		Chapter: chapter,
		Text:    truncateQuote(sample),
	}, nil
}

// labels resolves the volume and chapter headings covering the given line.
func (r *record) labels(acronym string, line int) (volume, chapter string) {
	volume = labelAt(r.text, r.volumeIndex, line)
	chapter = labelAt(r.text, r.chapterIndex, line)

	// ACVR headings carry the story title and the markdown heading marker;
	// neither belongs in the embed.
	if acronym == acvrAcronym {
		volume = strings.TrimPrefix(volume, acvrTitlePrefix)
		chapter = strings.TrimPrefix(chapter, "# ")
	}

	return volume, chapter
}

// labelAt returns the heading line closest to, but not after, the given line.
func labelAt(text []string, indices []int, line int) string {
	if len(indices) == 0 {
		return unknownLabel
	}

	pos := sort.SearchInts(indices, line)
	if pos > 0 {
		pos--
	}

	return text[indices[pos]]
}

// underlinePattern matches occurrences of the search terms at the start of a
// word, so hits can be wrapped in markdown underline markers.
func underlinePattern(terms string) (*regexp.Regexp, error) {
	pattern, err := regexp.Compile(`(?i)( |^)(` + regexp.QuoteMeta(terms) + `)`)
	if err != nil {
		return nil, eris.Wrapf(err, "compiling search pattern for %q", terms)
	}
	return pattern, nil
}

func truncateQuote(quote string) string {
	if utf8.RuneCountInString(quote) <= maxQuoteLength {
		return quote
	}

	runes := []rune(quote)
	return string(runes[:maxQuoteLength-4]) + "..."
}
