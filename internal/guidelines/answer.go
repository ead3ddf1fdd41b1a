package guidelines

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Answer sections in render order.
const (
	SectionDefinition = "Definition/Criteria"
	SectionCauses     = "Causes/Complications"
	SectionImmediate  = "Immediate"
	SectionOngoing    = "Ongoing"
)

const (
	NoMatchesHTML = "<p>No matches found in your knowledge base.</p>"

	maxCandidates = 60
	maxSources    = 8
	minSentence   = 10
	maxSentence   = 500
)

var (
	sectionOrder  = []string{SectionDefinition, SectionCauses, SectionImmediate, SectionOngoing}
	sectionTitles = map[string]string{
		SectionDefinition: "What it is &amp; how to recognise it",
		SectionCauses:     "Common causes &amp; complications",
		SectionImmediate:  "Immediate management (first steps &amp; doses)",
		SectionOngoing:    "Monitoring / follow-up",
	}
	sectionSlots = map[string]int{
		SectionDefinition: 3,
		SectionCauses:     3,
		SectionImmediate:  6,
		SectionOngoing:    4,
	}
)

var (
	crlfRe      = regexp.MustCompile(`\r\n?`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	bulletRe    = regexp.MustCompile(`^[-•\d\)\(]\s`)
	sentenceEnd = regexp.MustCompile(`[.?!]\s+`)
	hyphenRe    = regexp.MustCompile(`(\w)-\s+(\w)`)
	tokenRe     = regexp.MustCompile(`[a-z0-9]{3,}`)
	termRe      = regexp.MustCompile(`[A-Za-z0-9]{3,}`)

	immediateRe = regexp.MustCompile(`(?i)\b(immediate|first[-\s]?line|stat|urgent|airway|breathing|circulation|` +
		`resus|abcde|adrenaline|epinephrine|calcium|insulin|dextrose|hyperton|3%|` +
		`magnesium|ceftriaxone|piperacillin|tazobactam|vancomycin|bolus|defibrill)\b`)
	doseRe     = regexp.MustCompile(`(?i)\b(\d+(\.\d+)?)\s?(mcg|mg|g|mL|ml|%)\b`)
	routeRe    = regexp.MustCompile(`(?i)\b(iv|im|po|neb|infus|bolus)\b`)
	criteriaRe = regexp.MustCompile(`(?i)\b(definition|criteria|diagnos|meets|signs?|symptoms?)\b`)
	causesRe   = regexp.MustCompile(`(?i)\b(causes?|triggers?|aetiolog|etiolog|risk)\b`)
	compRe     = regexp.MustCompile(`(?i)\b(complication|shock|arrhythm|arrest|oedema|edema)\b`)
	followRe   = regexp.MustCompile(`(?i)\b(monitor|observe|repeat|titrate|admit|review|escalate|red flags?|disposition|reassess|ecg)\b`)
)

// QueryTerms returns the unique alphanumeric terms of at least three characters in q.
func QueryTerms(q string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range termRe.FindAllString(q, -1) {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Sentences splits text into bullet lines and sentences, keeping pieces of 10 to 500 characters.
func Sentences(text string) []string {
	if text == "" {
		return nil
	}
	t := crlfRe.ReplaceAllString(text, "\n")
	t = spaceRe.ReplaceAllString(t, " ")

	var pieces []string
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if bulletRe.MatchString(line) {
			pieces = append(pieces, line)
			continue
		}
		pieces = append(pieces, splitSentences(line)...)
	}

	out := pieces[:0]
	for _, p := range pieces {
		if n := utf8.RuneCountInString(p); n >= minSentence && n <= maxSentence {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences breaks after terminal punctuation followed by whitespace.
func splitSentences(line string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(line, -1) {
		if p := strings.TrimSpace(line[start : loc[0]+1]); p != "" {
			out = append(out, p)
		}
		start = loc[1]
	}
	if p := strings.TrimSpace(line[start:]); p != "" {
		out = append(out, p)
	}
	return out
}

// ScoreSentence rates how useful s is for a bedside answer.
func ScoreSentence(s string) int {
	lower := strings.ToLower(s)
	score := 0
	if immediateRe.MatchString(lower) {
		score += 8
	}
	if doseRe.MatchString(lower) {
		score += 4
	}
	if routeRe.MatchString(lower) {
		score += 3
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "•") {
		score++
	}
	if n := utf8.RuneCountInString(s); n >= 80 && n <= 240 {
		score++
	}
	return score
}

// Categorise assigns s to one answer section.
func Categorise(s string) string {
	lower := strings.ToLower(s)
	switch {
	case immediateRe.MatchString(lower) || doseRe.MatchString(lower):
		return SectionImmediate
	case criteriaRe.MatchString(lower):
		return SectionDefinition
	case causesRe.MatchString(lower) || compRe.MatchString(lower):
		return SectionCauses
	case followRe.MatchString(lower):
		return SectionOngoing
	default:
		return SectionDefinition
	}
}

type candidate struct {
	score int
	sent  string
	row   *Guideline
}

// Compose picks the best sentences from rows for question q and renders them.
func Compose(rows []Guideline, q string) AnswerResult {
	tokens := uniqueTokens(q)

	var cands []candidate
	for i := range rows {
		for _, s := range Sentences(rows[i].Text) {
			score := ScoreSentence(s)
			lower := strings.ToLower(s)
			for _, tok := range tokens {
				if strings.Contains(lower, tok) {
					score++
				}
			}
			cands = append(cands, candidate{score: score, sent: s, row: &rows[i]})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > maxCandidates {
		cands = cands[:maxCandidates]
	}

	chosen := make(map[string][]string, len(sectionOrder))
	sources := []Source{}
	usedRows := map[string]bool{}
	for _, c := range cands {
		cat := Categorise(c.sent)
		if len(chosen[cat]) >= sectionSlots[cat] {
			continue
		}
		chosen[cat] = append(chosen[cat], c.sent)
		if id := c.row.ID; id != "" && !usedRows[id] {
			usedRows[id] = true
			sources = append(sources, sourceOf(c.row))
		}
	}
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	return AnswerResult{HTML: Render(chosen), Sources: sources}
}

// Render writes the non-empty sections as HTML in fixed order.
func Render(blocks map[string][]string) string {
	var b strings.Builder
	for _, key := range sectionOrder {
		items := blocks[key]
		if len(items) == 0 {
			continue
		}
		b.WriteString("<h4 style='margin:8px 0 6px'>")
		b.WriteString(sectionTitles[key])
		b.WriteString("</h4><ul style='margin:6px 0 10px 18px'>")
		for _, item := range items {
			b.WriteString("<li>")
			b.WriteString(cleanForHTML(item))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}
	if b.Len() == 0 {
		return NoMatchesHTML
	}
	return b.String()
}

func cleanForHTML(s string) string {
	s = hyphenRe.ReplaceAllString(s, "$1$2")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	return html.EscapeString(s)
}

func uniqueTokens(q string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tokenRe.FindAllString(strings.ToLower(q), -1) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func sourceOf(g *Guideline) Source {
	src := Source{Title: g.Title, Org: g.Org, URL: g.URL}
	if g.Published != nil {
		src.Published = g.Published.Format(time.RFC3339)
	}
	return src
}
