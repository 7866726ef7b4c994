package town

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/narvanalabs/sgt-web/internal/models"
	"github.com/narvanalabs/sgt-web/internal/statefile"
)

// moleculeFile is the subset of a molecule template the dashboard shows.
type moleculeFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []yaml.Node `yaml:"steps"`
}

// Molecules lists the *.yml and *.yaml templates under <root>/molecules.
// Files that fail to parse are skipped. A missing directory yields an empty
// list.
func (t *Town) Molecules() []models.Molecule {
	molecules := []models.Molecule{}
	dir := t.MoleculesDir()

	for _, name := range statefile.ListNames(dir) {
		ext := filepath.Ext(name)
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var mf moleculeFile
		if err := yaml.Unmarshal(data, &mf); err != nil {
			t.logger.Warn("skipping unreadable molecule", "path", path, "error", err)
			continue
		}

		m := models.Molecule{
			Name:        mf.Name,
			File:        name,
			Description: mf.Description,
			Steps:       len(mf.Steps),
		}
		if m.Name == "" {
			m.Name = strings.TrimSuffix(name, ext)
		}
		molecules = append(molecules, m)
	}
	return molecules
}
