// SPDX-License-Identifier: MIT

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/lattice"
)

const (
	latPrefix = "lat/"
	rngPrefix = "rng/"
)

func latKey(traj int) []byte { return fmt.Appendf(nil, "%s%010d", latPrefix, traj) }
func rngKey(traj int) []byte { return fmt.Appendf(nil, "%s%010d", rngPrefix, traj) }

// badgerLogger adapts zap to badger's Logger interface.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// BadgerStore keeps snapshots in a badger database. It is safe for concurrent use.
type BadgerStore struct {
	db   *badger.DB
	opts options
}

// OpenBadger opens (or creates) the database at dir.
func OpenBadger(dir string, opts ...Option) (*BadgerStore, error) {
	o := buildOptions(opts)
	var bo badger.Options
	if o.inMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, errors.New("checkpoint: OpenBadger: empty directory")
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("OpenBadger: %w", err)
		}
		bo = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	bo = bo.WithLogger(badgerLogger{s: o.log.Named("badger").Sugar()})
	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("OpenBadger(%q): %w", dir, err)
	}

	return &BadgerStore{db: db, opts: o}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

// Save stores u and the RNG state under traj in one transaction.
func (s *BadgerStore) Save(ctx context.Context, traj int, u *lattice.GaugeField, rngState []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := Encode(traj, u, s.opts.runID)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(latKey(traj), cfg); err != nil {
			return err
		}
		return txn.Set(rngKey(traj), sealState(rngState))
	})
	if err != nil {
		return fmt.Errorf("BadgerStore.Save(%d): %w", traj, err)
	}
	s.opts.log.Debug("checkpoint stored", zap.Int("trajectory", traj), zap.Int("bytes", len(cfg)))

	return nil
}

func (s *BadgerStore) get(traj int) (cfg, state []byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(latKey(traj))
		if err != nil {
			return err
		}
		if cfg, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(rngKey(traj))
		if err != nil {
			return err
		}
		state, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, fmt.Errorf("trajectory %d: %w", traj, ErrNotFound)
	}

	return cfg, state, err
}

// Load overwrites u with the snapshot of traj and returns its RNG state.
// Returns ErrNotFound, ErrCorrupt, ErrVersion or ErrGeometry.
func (s *BadgerStore) Load(ctx context.Context, traj int, u *lattice.GaugeField) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, state, err := s.get(traj)
	if err != nil {
		return nil, fmt.Errorf("BadgerStore.Load: %w", err)
	}
	if _, err = Decode(cfg, u); err != nil {
		return nil, fmt.Errorf("BadgerStore.Load(%d): %w", traj, err)
	}
	st, err := openState(state)
	if err != nil {
		return nil, fmt.Errorf("BadgerStore.Load(%d): %w", traj, err)
	}

	return st, nil
}

// Header returns the verified metadata of traj.
func (s *BadgerStore) Header(ctx context.Context, traj int) (Header, error) {
	if err := ctx.Err(); err != nil {
		return Header{}, err
	}
	cfg, _, err := s.get(traj)
	if err != nil {
		return Header{}, fmt.Errorf("BadgerStore.Header: %w", err)
	}
	h, _, err := DecodeHeader(cfg)

	return h, err
}

// Trajectories lists the stored trajectory indices in ascending order.
func (s *BadgerStore) Trajectories(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []int
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = []byte(latPrefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := strings.TrimPrefix(string(it.Item().Key()), latPrefix)
			n, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("key %q: %w", k, ErrCorrupt)
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("BadgerStore.Trajectories: %w", err)
	}
	sort.Ints(out)

	return out, nil
}
