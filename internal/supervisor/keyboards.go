package supervisor

import (
	"github.com/ddrcode/charon/config"
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/keyscanner"
	"github.com/ddrcode/charon/internal/logger"
)

// spawnKeyboards registers one key-scanner actor per physical keyboard
// named in config.PerKeyboardConfigs(): a single "KeyScanner" for the
// simple case, or one per-device actor (named after its alias) when
// keyboard = { Use = <group> } fans out to a keyboards group. A device
// marked optional in its group is allowed to fail without taking down
// the rest of the daemon.
func (s *Supervisor) spawnKeyboards(cfg *config.Config, log logger.Logger) error {
	named, err := cfg.PerKeyboardConfigs()
	if err != nil {
		return err
	}

	for _, n := range named {
		ks := keyscanner.NewActor(n.ActorName, s.broker, n.Config.Keyboard, log)
		s.register(ks, 0, n.Optional, bus.System)
	}
	return nil
}
