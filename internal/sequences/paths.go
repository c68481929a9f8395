package sequences

import (
	"os"
	"path/filepath"
)

// DefinitionSearchPaths returns definition search directories in precedence
// order.
func DefinitionSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".outreach", "sequences"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "outreach", "sequences"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "outreach", "sequences"))
	return paths
}

// LoadDefinitionsFromSearchPaths loads definitions from search paths with
// first-hit precedence. Builtins fill in last.
func LoadDefinitionsFromSearchPaths(projectDir string) ([]*Definition, error) {
	paths := DefinitionSearchPaths(projectDir)
	seen := make(map[string]*Definition)
	order := make([]string, 0)

	for _, path := range paths {
		definitions, err := LoadDefinitionsFromDir(path)
		if err != nil {
			return nil, err
		}
		for _, def := range definitions {
			if _, exists := seen[def.ID]; exists {
				continue
			}
			seen[def.ID] = def
			order = append(order, def.ID)
		}
	}

	builtins, err := LoadBuiltinDefinitions()
	if err != nil {
		return nil, err
	}
	for _, def := range builtins {
		if _, exists := seen[def.ID]; exists {
			continue
		}
		seen[def.ID] = def
		order = append(order, def.ID)
	}

	resolved := make([]*Definition, 0, len(order))
	for _, id := range order {
		resolved = append(resolved, seen[id])
	}

	return resolved, nil
}
