package status

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/narvanalabs/sgt-web/internal/models"
)

var (
	rigLineRe   = regexp.MustCompile(`^\s+(\S+)\s+(https?://.+)$`)
	rigDetailRe = regexp.MustCompile(`polecats:\s*(\d+)\s+witness:\s*(\w+)\s+refinery:\s*(\w+)`)
)

// ParseRigs converts `sgt rig list` output into rigs. A rig line is
// "  <name>  <http(s) url>"; the line right after it may carry
// "polecats: N  witness: X  refinery: Y".
func ParseRigs(raw string) []models.Rig {
	rigs := []models.Rig{}
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	for i, line := range lines {
		m := rigLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rig := models.Rig{Name: m[1], Repo: strings.TrimSpace(m[2])}

		if i+1 < len(lines) {
			if d := rigDetailRe.FindStringSubmatch(lines[i+1]); d != nil {
				if n, err := strconv.Atoi(d[1]); err == nil {
					rig.Polecats = &n
				}
				rig.Witness = d[2]
				rig.Refinery = d[3]
			}
		}
		rigs = append(rigs, rig)
	}
	return rigs
}
