package orchestrator

import (
	"github.com/crackerjack-go/crackerjack/pkg/config"
	"github.com/crackerjack-go/crackerjack/pkg/hookengine"
	"github.com/crackerjack-go/crackerjack/pkg/security"
)

// BuildHooks pairs every enabled spec in cfg with its registered Go parser
// and version probe, producing the []hookengine.Hook the engine actually
// runs (spec §4.2: "each hook carries a parser" — not expressible in YAML
// alone). Specs whose ID has no registered parser are skipped with a log
// line rather than failing config load, so a hand-edited hooks.yaml that
// adds an unrecognized tool degrades gracefully instead of aborting init.
func BuildHooks(cfg *config.HookConfig, root string) []hookengine.Hook {
	sp := security.NewSubprocess(root)
	hooks := make([]hookengine.Hook, 0, len(cfg.Hooks))
	for _, spec := range cfg.Hooks {
		if !spec.Enabled {
			continue
		}
		parser, ok := parsers[spec.ID]
		if !ok {
			log.Printf("no parser registered for hook %q, skipping", spec.ID)
			continue
		}
		binary := toolBinary[spec.ID]
		hooks = append(hooks, hookengine.FromSpec(spec, parser, versionProbe(sp, root, binary)))
	}
	return hooks
}
