// SPDX-License-Identifier: MIT

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/lattice"
)

// FileStore writes one configuration file and one RNG file per trajectory,
// named <prefix>.<traj>, into a directory.
type FileStore struct {
	dir  string
	opts options
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("checkpoint: NewFileStore: empty directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("NewFileStore: %w", err)
	}

	return &FileStore{dir: dir, opts: buildOptions(opts)}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) configPath(traj int) string {
	return filepath.Join(s.dir, s.opts.configPrefix+"."+strconv.Itoa(traj))
}

func (s *FileStore) rngPath(traj int) string {
	return filepath.Join(s.dir, s.opts.rngPrefix+"."+strconv.Itoa(traj))
}

// writeAtomic writes data to a temporary file and renames it over path.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

// Save writes the RNG file first so a visible configuration always has one.
func (s *FileStore) Save(ctx context.Context, traj int, u *lattice.GaugeField, rngState []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeAtomic(s.rngPath(traj), sealState(rngState)); err != nil {
		return fmt.Errorf("FileStore.Save(%d): %w", traj, err)
	}
	if err := writeAtomic(s.configPath(traj), Encode(traj, u, s.opts.runID)); err != nil {
		return fmt.Errorf("FileStore.Save(%d): %w", traj, err)
	}
	s.opts.log.Debug("checkpoint written", zap.Int("trajectory", traj), zap.String("path", s.configPath(traj)))

	return nil
}

func readFile(path string, traj int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("trajectory %d: %w", traj, ErrNotFound)
	}

	return data, err
}

// Load overwrites u with the snapshot of traj and returns its RNG state.
// Returns ErrNotFound, ErrCorrupt, ErrVersion or ErrGeometry.
func (s *FileStore) Load(ctx context.Context, traj int, u *lattice.GaugeField) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, err := readFile(s.configPath(traj), traj)
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}
	sealed, err := readFile(s.rngPath(traj), traj)
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}
	state, err := openState(sealed)
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load(%d): %w", traj, err)
	}
	if _, err = Decode(cfg, u); err != nil {
		return nil, fmt.Errorf("FileStore.Load(%d): %w", traj, err)
	}

	return state, nil
}

// Header returns the verified metadata of traj.
func (s *FileStore) Header(ctx context.Context, traj int) (Header, error) {
	if err := ctx.Err(); err != nil {
		return Header{}, err
	}
	cfg, err := readFile(s.configPath(traj), traj)
	if err != nil {
		return Header{}, fmt.Errorf("FileStore.Header: %w", err)
	}
	h, _, err := DecodeHeader(cfg)

	return h, err
}

// Trajectories lists the stored trajectory indices in ascending order.
func (s *FileStore) Trajectories(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("FileStore.Trajectories: %w", err)
	}
	var out []int
	prefix := s.opts.configPrefix + "."
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(name, prefix)); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)

	return out, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
