package status

import (
	"regexp"

	"github.com/narvanalabs/sgt-web/internal/models"
)

// Matcher tags. Legacy shapes come first in every section so the detailed
// form wins over the compact one.
const (
	TagHeartbeat  = "heartbeat"
	TagLegacy     = "legacy"
	TagLegacyAttr = "legacy-attr"
	TagCompact    = "compact"
)

// lineMatcher is one recognised line shape. apply receives the trimmed
// capture groups and reports whether the line was consumed; a false return
// lets the next matcher try.
type lineMatcher struct {
	tag   string
	re    *regexp.Regexp
	apply func(r *models.StatusReport, g []string) bool
}

var matchers = map[Section][]lineMatcher{
	SectionAgents: {
		{
			tag: TagHeartbeat,
			re:  regexp.MustCompile(`last heartbeat:\s+(.+)$`),
			apply: func(r *models.StatusReport, g []string) bool {
				if n := len(r.Agents); n > 0 {
					r.Agents[n-1].Heartbeat = g[0]
				}
				return true
			},
		},
		{
			// "  daemon:  on (pid 123)"
			tag: TagLegacy,
			re:  regexp.MustCompile(`^\s+(\S+):\s+(.+)$`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Agents = append(r.Agents, models.Agent{Name: g[0], Status: g[1]})
				return true
			},
		},
		{
			// "  daemon           on  (pid 123)"
			tag: TagCompact,
			re:  regexp.MustCompile(`^\s{2,}(\S+)\s{2,}(.+?)\s*$`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Agents = append(r.Agents, models.Agent{Name: g[0], Status: g[1]})
				return true
			},
		},
	},
	SectionPolecats: {
		{
			// "  myapp-abc123 [alive]"
			tag: TagLegacy,
			re:  regexp.MustCompile(`^\s+(\S+)\s+\[(\w+)\]`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Polecats = append(r.Polecats, models.Polecat{Name: g[0], Alive: g[1]})
				return true
			},
		},
		{
			// "    issue: #5" under a legacy polecat line
			tag: TagLegacyAttr,
			re:  regexp.MustCompile(`^\s+(\w+):\s+(.+)`),
			apply: func(r *models.StatusReport, g []string) bool {
				n := len(r.Polecats)
				if n == 0 {
					return false
				}
				last := &r.Polecats[n-1]
				if last.Attributes == nil {
					last.Attributes = make(map[string]string)
				}
				last.Attributes[g[0]] = g[1]
				return true
			},
		},
		{
			// "  myapp-abc123 alive  #2  sgt/myapp-abc123"
			tag: TagCompact,
			re:  regexp.MustCompile(`^\s{2,}(\S+)\s+(alive|dead)\s{2,}#?(\d+)\s{2,}(.+)$`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Polecats = append(r.Polecats, models.Polecat{
					Name:   g[0],
					Alive:  g[1],
					Issue:  "#" + g[2],
					Branch: g[3],
				})
				return true
			},
		},
	},
	SectionDogs: {
		{
			// "  dog-xyz [alive] — #12"
			tag: TagLegacy,
			re:  regexp.MustCompile(`^\s+(\S+)\s+\[(\w+)\]\s+—\s+(.+)`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Dogs = append(r.Dogs, models.Dog{Name: g[0], Alive: g[1], Issue: g[2]})
				return true
			},
		},
		{
			// "  dog-xyz alive  #12"
			tag: TagCompact,
			re:  regexp.MustCompile(`^\s{2,}(\S+)\s+(alive|dead)\s{2,}(.+)$`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Dogs = append(r.Dogs, models.Dog{Name: g[0], Alive: g[1], Issue: g[2]})
				return true
			},
		},
	},
	SectionCrew: {
		{
			// "  alice [idle] — reviewing myapp"
			tag: TagLegacy,
			re:  regexp.MustCompile(`^\s+(\S+)\s+\[(\w+)\]\s+—\s+(.+)`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Crew = append(r.Crew, models.CrewMember{Name: g[0], Status: g[1], Detail: g[2]})
				return true
			},
		},
		{
			// "  alice idle  reviewing myapp"
			tag: TagCompact,
			re:  regexp.MustCompile(`^\s{2,}(\S+)\s+(\S+)\s{2,}(.+)$`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.Crew = append(r.Crew, models.CrewMember{Name: g[0], Status: g[1], Detail: g[2]})
				return true
			},
		},
	},
	SectionMergeQueue: {
		{
			// "  myapp-abc — PR #42 (auto-merge)"
			tag: TagLegacy,
			re:  regexp.MustCompile(`^\s+(\S+)\s+—\s+(.+)`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.MergeQueue = append(r.MergeQueue, models.MergeQueueEntry{Name: g[0], Detail: g[1]})
				return true
			},
		},
		{
			// "  myapp-abc  PR #42 (auto-merge)"
			tag: TagCompact,
			re:  regexp.MustCompile(`^\s{2,}(\S+)\s{2,}(.+)$`),
			apply: func(r *models.StatusReport, g []string) bool {
				r.MergeQueue = append(r.MergeQueue, models.MergeQueueEntry{Name: g[0], Detail: g[1]})
				return true
			},
		},
	},
}

// MatchTag returns the tag of the first matcher in section that recognises
// line, or "" when none does. It does not consult report state, so a legacy
// attribute line is tagged even when no polecat precedes it.
func MatchTag(section Section, line string) string {
	for _, m := range matchers[section] {
		if m.re.MatchString(line) {
			return m.tag
		}
	}
	return ""
}
