// Package parser extracts structured requirement identifiers and
// cross-reference links from document text.
//
// Parsing is deterministic and side-effect-free: the same input always
// yields the same output, independent of locale or ambient state.
package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// Identifier patterns. The strict pattern is the only one that produces
// items; the relaxed pattern catches near-misses which are reported as
// warnings, never as items.
const (
	strictPattern  = `Y10K-[A-Z0-9]+-[A-Z0-9]+-(?:HL|LL|CMP|ADR|API|DB|TST)-\d{3}`
	relaxedPattern = `Y10K-[^-\s\[\]]+-[^-\s\[\]]+-[A-Z]{2,}-\d{2,}`
)

var (
	strictRe  = regexp.MustCompile(`\b` + strictPattern + `\b`)
	relaxedRe = regexp.MustCompile(`\b` + relaxedPattern + `\b`)
	linkRe    = regexp.MustCompile(`\[\[(` + strictPattern + `)(?:\|(reference|implements|tests|depends|blocks))?\]\]`)
	headingRe = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*$`)
	fieldRe   = regexp.MustCompile(`([A-Za-z][A-Za-z0-9_-]*):\s*(\S(?:.*?\S)?)\s*(?:\s{2,}|$)`)
)

// ItemDescriptor is one parsed requirement identifier declaration.
type ItemDescriptor struct {
	// Identifier is the full strict identifier string.
	Identifier string

	// Type is the TYPE segment.
	Type domain.ItemType

	// Title is the nearest heading (preceding preferred, else following).
	Title string

	// Status, Version and Owner come from front-matter fields when
	// declared on or under the declaration line.
	Status  string
	Version string
	Owner   string

	// StartLine and EndLine delimit the declaration, 1-based inclusive.
	// EndLine extends over contiguous "Key: value" lines following the
	// declaration.
	StartLine int
	EndLine   int

	// Metadata holds front-matter fields outside the typed core.
	Metadata map[string]string
}

// LinkDescriptor is one bracketed cross-reference token.
type LinkDescriptor struct {
	// SourceIdentifier is the enclosing item's identifier, or empty
	// when the link appears before any declaration (document-level).
	SourceIdentifier string

	// Target is the referenced identifier string.
	Target string

	// Kind is the relation kind, default reference.
	Kind domain.RelationKind

	// Line is the 1-based line of the token.
	Line int
}

// Result is the parser output for one document.
type Result struct {
	Items    []ItemDescriptor
	Links    []LinkDescriptor
	Warnings []string
}

// Parse extracts items and links from raw document text.
func Parse(text string) *Result {
	text = normalizeNewlines(text)
	lines := strings.Split(text, "\n")

	res := &Result{}

	// Pass 1: link tokens, by position, so bracketed identifiers are
	// not mistaken for declarations.
	linkSpans := map[int][][2]int{} // line index -> match spans
	for i, line := range lines {
		for _, m := range linkRe.FindAllStringSubmatchIndex(line, -1) {
			target := line[m[2]:m[3]]
			kind := domain.RelationReference
			if m[4] >= 0 {
				kind = domain.RelationKind(line[m[4]:m[5]])
			}
			res.Links = append(res.Links, LinkDescriptor{
				Target: target,
				Kind:   kind,
				Line:   i + 1,
			})
			linkSpans[i] = append(linkSpans[i], [2]int{m[0], m[1]})
		}
	}

	// Pass 2: bare strict identifiers are declarations. First
	// occurrence wins; later repeats of the same identifier are plain
	// mentions.
	seen := map[string]bool{}
	for i, line := range lines {
		for _, m := range strictRe.FindAllStringIndex(line, -1) {
			if insideSpan(linkSpans[i], m[0]) {
				continue
			}
			id := line[m[0]:m[1]]
			if seen[id] {
				continue
			}
			seen[id] = true

			item := ItemDescriptor{
				Identifier: id,
				Type:       itemType(id),
				StartLine:  i + 1,
				EndLine:    i + 1,
				Title:      nearestHeading(lines, i),
				Metadata:   map[string]string{},
			}
			collectFields(&item, lines, i)
			res.Items = append(res.Items, item)
		}
	}

	// Pass 3: relaxed matches that are not strict and not bracketed
	// are ambiguous near-misses.
	for i, line := range lines {
		var strictSpans [][2]int
		for _, m := range strictRe.FindAllStringIndex(line, -1) {
			strictSpans = append(strictSpans, [2]int{m[0], m[1]})
		}
		for _, m := range relaxedRe.FindAllStringIndex(line, -1) {
			if insideSpan(strictSpans, m[0]) || insideSpan(linkSpans[i], m[0]) {
				continue
			}
			res.Warnings = append(res.Warnings,
				"line "+strconv.Itoa(i+1)+": "+domain.ErrParseAmbiguous.Error()+": "+line[m[0]:m[1]])
		}
	}

	// Attribute links to the enclosing item: the declaration most
	// recently preceding the link line.
	attributeLinks(res)

	return res
}

// DetectIdentifiers returns the unique strict identifiers in text, in
// first-occurrence order. Used on commit subjects.
func DetectIdentifiers(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, id := range strictRe.FindAllString(text, -1) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// itemType extracts the TYPE segment from a strict identifier.
func itemType(id string) domain.ItemType {
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		return ""
	}
	return domain.ItemType(parts[3])
}

func insideSpan(spans [][2]int, pos int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// nearestHeading returns the closest preceding markdown heading, or the
// closest following one when nothing precedes the declaration.
func nearestHeading(lines []string, idx int) string {
	for i := idx; i >= 0; i-- {
		if m := headingRe.FindStringSubmatch(lines[i]); m != nil {
			return m[1]
		}
	}
	for i := idx + 1; i < len(lines); i++ {
		if m := headingRe.FindStringSubmatch(lines[i]); m != nil {
			return m[1]
		}
	}
	return ""
}

// collectFields scans the declaration line and contiguous following
// "Key: value" lines for front-matter fields, extending the item's line
// range over them.
func collectFields(item *ItemDescriptor, lines []string, idx int) {
	applyFields(item, lines[idx])
	for i := idx + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || !fieldLineRe.MatchString(line) {
			break
		}
		applyFields(item, lines[i])
		item.EndLine = i + 1
	}
}

var fieldLineRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*:\s*\S`)

func applyFields(item *ItemDescriptor, line string) {
	for _, m := range fieldRe.FindAllStringSubmatch(line, -1) {
		key, value := m[1], strings.TrimSpace(m[2])
		switch strings.ToLower(key) {
		case "id":
			// The identifier itself, already captured.
		case "status":
			item.Status = value
		case "version":
			item.Version = value
		case "owner":
			item.Owner = value
		default:
			item.Metadata[key] = value
		}
	}
}

func attributeLinks(res *Result) {
	if len(res.Links) == 0 || len(res.Items) == 0 {
		return
	}
	items := make([]ItemDescriptor, len(res.Items))
	copy(items, res.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].StartLine < items[j].StartLine })

	for li := range res.Links {
		line := res.Links[li].Line
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].StartLine <= line {
				// A link on the declaration's own lines of another
				// item still belongs to that item.
				res.Links[li].SourceIdentifier = items[i].Identifier
				break
			}
		}
	}
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
