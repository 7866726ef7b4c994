// Package status turns sgt's human-readable console reports into
// structured records.
//
// sgt has printed two layouts over time: a legacy one with "=== Name ==="
// section markers and "name [state] — detail" lines, and a newer one with
// box-drawing section titles ("╭─ Name ───") and column-aligned rows. Both
// are handled by one set of line matchers per section, tried in a fixed
// order. This is line-shape scraping, not a grammar: lines that match
// nothing are ignored and malformed reports produce partial lists.
package status

import (
	"regexp"
	"strings"

	"github.com/narvanalabs/sgt-web/internal/models"
)

// Section identifies the part of a status report a line belongs to.
type Section string

const (
	SectionNone       Section = ""
	SectionAgents     Section = "agents"
	SectionPolecats   Section = "polecats"
	SectionDogs       Section = "dogs"
	SectionCrew       Section = "crew"
	SectionMergeQueue Section = "mergeQueue"
)

var boxHeaderRe = regexp.MustCompile(`^╭─\s+(.+?)\s+─`)

// legacyHeaders maps "=== Name" line prefixes to sections.
var legacyHeaders = []struct {
	prefix  string
	section Section
}{
	{"=== Agents ===", SectionAgents},
	{"=== Dogs ===", SectionDogs},
	{"=== Crew ===", SectionCrew},
	{"=== Merge Queue", SectionMergeQueue},
	{"=== Polecats ===", SectionPolecats},
}

// HeaderSection returns the section a header line opens, or SectionNone
// when the line is not a recognised header.
func HeaderSection(line string) Section {
	for _, h := range legacyHeaders {
		if strings.HasPrefix(line, h.prefix) {
			return h.section
		}
	}

	m := boxHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return SectionNone
	}
	switch title := strings.TrimSpace(m[1]); {
	case title == "Agents":
		return SectionAgents
	case title == "Dogs":
		return SectionDogs
	case title == "Crew":
		return SectionCrew
	case title == "Polecats":
		return SectionPolecats
	case strings.HasPrefix(title, "Merge Queue"):
		return SectionMergeQueue
	}
	return SectionNone
}

// isNoise reports lines sgt prints between rows that never carry data.
func isNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "", trimmed == "none", trimmed == "empty":
		return true
	case strings.HasPrefix(line, "»"):
		return true
	case strings.HasPrefix(line, "1 polecat"), strings.Contains(line, "polecat(s) tracked"):
		return true
	}
	return false
}

// Parse converts a raw `sgt status` report into a StatusReport. It never
// fails; unrecognised content is skipped.
func Parse(raw string) *models.StatusReport {
	report := models.NewStatusReport()
	section := SectionNone

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if s := HeaderSection(line); s != SectionNone {
			section = s
			continue
		}
		if isNoise(line) {
			continue
		}

		for _, m := range matchers[section] {
			groups := m.re.FindStringSubmatch(line)
			if groups == nil {
				continue
			}
			if m.apply(report, trimAll(groups[1:])) {
				break
			}
		}
	}

	return report
}

func trimAll(groups []string) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = strings.TrimSpace(g)
	}
	return out
}
