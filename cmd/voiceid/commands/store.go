package commands

import (
	"context"
	"fmt"

	"github.com/haivivi/voiceid/pkg/kv"
	"github.com/haivivi/voiceid/pkg/voiceprint"
)

// openStore opens the Badger-backed voiceprint store from the configured
// database directory. The returned close function must be called before the
// process exits to release the Badger lock.
func openStore(ctx context.Context) (*voiceprint.Store, func() error, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}

	backend, err := kv.NewBadger(kv.BadgerOptions{
		Dir:    cfg.DBDir,
		Logger: newLogger(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", cfg.DBDir, err)
	}

	store, err := voiceprint.Open(ctx, backend, nil)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return store, backend.Close, nil
}
