package parser

import (
	"fmt"
	"log/slog"

	"StyleTranslator/internal/config"
	"StyleTranslator/internal/scanner"
)

// BuildStages expands configured sources into ordered stages, one per target.
// A source without targets becomes a single stage named after the source.
func BuildStages(reg *scanner.Registry, sources []config.SourceConfig, logger *slog.Logger) ([]scanner.Stage, error) {
	if reg == nil {
		return nil, fmt.Errorf("provider registry is not configured")
	}

	var stages []scanner.Stage
	for _, src := range sources {
		provider, err := reg.Resolve(src.Provider)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		targets := src.Targets
		if len(targets) == 0 {
			targets = []config.TargetConfig{{Name: src.Name}}
		}
		for _, target := range targets {
			stages = append(stages, scanner.Stage{
				Name:     src.Name + "/" + target.Name,
				Source:   src.Name,
				Provider: provider,
				Required: src.Required,
				Request: scanner.Request{
					Stage:      src.Name + "/" + target.Name,
					Target:     scanner.Target{Name: target.Name, URL: target.URL},
					MaxResults: src.MaxResults,
					Options:    src.Options,
				},
			})
		}
		if logger != nil {
			logger.Debug("source stages", "source", src.Name, "provider", src.Provider, "targets", len(targets))
		}
	}
	return stages, nil
}
