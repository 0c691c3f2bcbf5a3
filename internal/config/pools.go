package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"yieldScope/internal/model"
)

// PoolEntry is one pool of a batch file. Nil toggles inherit.
type PoolEntry struct {
	Chain    string `yaml:"chain"`
	Pool     string `yaml:"pool"`
	StakeDAO *bool  `yaml:"stakedao"`
	Beefy    *bool  `yaml:"beefy"`
	VaultID  string `yaml:"vault_id"`
	Strategy string `yaml:"strategy"`
}

// PoolFile is a batch file. Its root is either a list of entries or an object
// carrying file-level toggles next to the list.
type PoolFile struct {
	StakeDAO *bool      `yaml:"stakedao"`
	Beefy    *bool      `yaml:"beefy"`
	Pools    []PoolEntry `yaml:"pools"`
}

// DefaultPools is the batch used when no pool is given.
var DefaultPools = []PoolEntry{
	{Chain: "ethereum", Pool: "3pool"},
	{Chain: "ethereum", Pool: "steth"},
	{Chain: "ethereum", Pool: "frxeth"},
}

// LoadPoolFile reads a YAML or JSON batch file.
func LoadPoolFile(path string) (PoolFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PoolFile{}, fmt.Errorf("reading pools file: %w", err)
	}
	file, err := ParsePoolFile(data)
	if err != nil {
		return PoolFile{}, fmt.Errorf("parsing pools file %s: %w", path, err)
	}
	return file, nil
}

// ParsePoolFile decodes batch file contents. JSON is accepted as YAML.
func ParsePoolFile(data []byte) (PoolFile, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return PoolFile{}, err
	}
	if root.Kind == 0 {
		return PoolFile{}, fmt.Errorf("empty pools file")
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	var file PoolFile
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&file.Pools); err != nil {
			return PoolFile{}, err
		}
	case yaml.MappingNode:
		if err := node.Decode(&file); err != nil {
			return PoolFile{}, err
		}
	default:
		return PoolFile{}, fmt.Errorf("pools file root must be a list or an object")
	}
	if len(file.Pools) == 0 {
		return PoolFile{}, fmt.Errorf("pools file lists no pools")
	}
	return file, nil
}

// Queries builds the batch for this run: --pool values first, then the pools
// file, then DefaultPools. Integration toggles are resolved here once.
// --vault-id and --strategy need exactly one --pool; batches set them per
// entry in the pools file.
func (c Config) Queries() ([]model.PoolQuery, error) {
	cliOverrides := model.Overrides{VaultID: c.VaultID, Strategy: c.Strategy}
	if !cliOverrides.IsZero() && len(c.Pools) != 1 {
		return nil, fmt.Errorf("%w: --vault-id/--strategy need a single --pool, got %d", model.ErrSharedOverrides, len(c.Pools))
	}

	var file PoolFile
	switch {
	case len(c.Pools) > 0:
		for _, pool := range c.Pools {
			file.Pools = append(file.Pools, PoolEntry{
				Chain:    c.Chain,
				Pool:     pool,
				VaultID:  c.VaultID,
				Strategy: c.Strategy,
			})
		}
	case c.PoolsFile != "":
		loaded, err := LoadPoolFile(c.PoolsFile)
		if err != nil {
			return nil, err
		}
		file = loaded
	default:
		file.Pools = DefaultPools
	}

	out := make([]model.PoolQuery, 0, len(file.Pools))
	for i, entry := range file.Pools {
		pool := strings.TrimSpace(entry.Pool)
		if pool == "" {
			return nil, fmt.Errorf("pool entry %d has no pool", i)
		}
		chain := strings.ToLower(strings.TrimSpace(entry.Chain))
		if chain == "" {
			chain = c.Chain
		}
		out = append(out, model.PoolQuery{
			Chain: chain,
			Pool:  pool,
			Integrations: model.Integrations{
				StakeDAO: resolveToggle(c.StakeDAOFlag, entry.StakeDAO, file.StakeDAO, c.StakeDAO),
				Beefy:    resolveToggle(c.BeefyFlag, entry.Beefy, file.Beefy, c.Beefy),
			},
			Overrides: model.Overrides{
				VaultID:  strings.TrimSpace(entry.VaultID),
				Strategy: strings.TrimSpace(entry.Strategy),
			},
		})
	}
	return out, nil
}

// resolveToggle applies the priority order: explicit CLI flag, pool entry,
// file level, then config/env/default.
func resolveToggle(cli, entry, file *bool, fallback bool) bool {
	for _, tier := range []*bool{cli, entry, file} {
		if tier != nil {
			return *tier
		}
	}
	return fallback
}
