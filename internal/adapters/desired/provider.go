// Package desired loads declarative resource records from TOML files, one
// file per resource kind, scoped to the active environment tag.
package desired

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
	apperrors "github.com/komodo-ops/change-detector/internal/errors"
)

type Config struct {
	StacksFile  string `yaml:"stacks_file"`
	ReposFile   string `yaml:"repos_file"`
	ServersFile string `yaml:"servers_file"`
}

func DefaultConfig() Config {
	return Config{
		StacksFile:  "stacks/stacks.toml",
		ReposFile:   "repos/repos.toml",
		ServersFile: "servers/servers.toml",
	}
}

func (c Config) FileFor(kind domain.ResourceKind) string {
	switch kind {
	case domain.KindStack:
		return c.StacksFile
	case domain.KindRepo:
		return c.ReposFile
	case domain.KindServer:
		return c.ServersFile
	}
	return ""
}

type Provider struct {
	cfg         Config
	environment string
	logger      ports.Logger
}

var _ ports.DesiredStateProvider = (*Provider)(nil)

func NewProvider(cfg Config, environment string, logger ports.Logger) *Provider {
	return &Provider{cfg: cfg, environment: environment, logger: logger}
}

// Load parses the kind's resource file and returns the records tagged for
// the active environment, keyed by name. Records without a name are dropped.
func (p *Provider) Load(ctx context.Context, kind domain.ResourceKind) (map[string]domain.DesiredResource, error) {
	filePath := p.cfg.FileFor(kind)
	if filePath == "" {
		return nil, apperrors.Newf(apperrors.CodeConfigValidation, "no desired-state file configured for kind %s", kind)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDesiredReadError, "failed to read desired-state file "+filePath)
	}

	// Each file holds an array of tables keyed by the kind singular, e.g.
	// [[stack]] blocks in stacks.toml.
	var doc map[string][]domain.DesiredResource
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDesiredParseError, "failed to parse desired-state file "+filePath)
	}

	records := doc[kind.String()]
	resources := make(map[string]domain.DesiredResource, len(records))
	for _, rec := range records {
		if rec.Name == "" || !rec.HasTag(p.environment) {
			continue
		}
		resources[rec.Name] = rec
	}

	p.logger.Debugf(ctx, "Loaded %d desired %s records from %s for environment %q",
		len(resources), kind.Plural(), filePath, p.environment)
	return resources, nil
}
