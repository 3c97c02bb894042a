// Package cache memoizes pipeline outputs against the files they were built
// from.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// DefaultSize bounds the number of pipelines kept when none is configured.
const DefaultSize = 16

// shapefileSidecars are read together with a .shp and so take part in its
// fingerprint.
var shapefileSidecars = []string{".shx", ".dbf", ".prj"}

type entry struct {
	fingerprint string
	value       any
}

// Memo caches one value per pipeline name. A cached value is returned while
// every backing file keeps the modification time and size it had when the
// value was built.
type Memo struct {
	entries *lru.Cache[string, entry]
	group   singleflight.Group
	metrics *metrics

	// mu guards gens and epoch. A build only stores its value when neither
	// changed while it ran.
	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64
}

type generation struct{ name, epoch uint64 }

// New returns a Memo holding at most size entries. Metrics are registered on
// reg when it is non-nil.
func New(size int, reg prometheus.Registerer) (*Memo, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Memo{entries: entries, metrics: newMetrics(reg), gens: make(map[string]uint64)}, nil
}

// Load returns the value cached under name, calling build when nothing is
// cached or any of files changed since the cached value was built. Concurrent
// loads of the same name share one build. Failed builds are not cached.
func (m *Memo) Load(name string, files []string, build func() (any, error)) (any, error) {
	fp, err := Fingerprint(files...)
	if err != nil {
		m.metrics.failures.WithLabelValues(name).Inc()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if e, ok := m.entries.Get(name); ok && e.fingerprint == fp {
		m.metrics.hits.WithLabelValues(name).Inc()
		return e.value, nil
	}

	gen := m.generation(name)
	key := fmt.Sprintf("%s\x00%d.%d\x00%s", name, gen.epoch, gen.name, fp)
	v, err, _ := m.group.Do(key, func() (any, error) {
		if e, ok := m.entries.Get(name); ok && e.fingerprint == fp {
			m.metrics.hits.WithLabelValues(name).Inc()
			return e.value, nil
		}
		m.metrics.misses.WithLabelValues(name).Inc()

		start := time.Now()
		v, err := build()
		m.metrics.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			m.metrics.failures.WithLabelValues(name).Inc()
			return nil, err
		}
		m.store(name, gen, entry{fingerprint: fp, value: v})
		return v, nil
	})
	return v, err
}

// Get is Load for callers that know the type their build returns.
func Get[T any](m *Memo, name string, files []string, build func() (T, error)) (T, error) {
	v, err := m.Load(name, files, func() (any, error) { return build() })
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: cached %T, want %T", name, v, zero)
	}
	return t, nil
}

func (m *Memo) generation(name string) generation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return generation{name: m.gens[name], epoch: m.epoch}
}

// store caches e unless name was invalidated after gen was taken.
func (m *Memo) store(name string, gen generation, e entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != (generation{name: m.gens[name], epoch: m.epoch}) {
		return
	}
	m.entries.Add(name, e)
}

// Invalidate drops the cached values for names. Builds of those names
// already running when it is called return their value without caching it.
func (m *Memo) Invalidate(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.gens[name]++
		m.entries.Remove(name)
	}
}

// Purge drops every cached value.
func (m *Memo) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.entries.Purge()
}

// Cached reports whether a value is held for name, whatever its freshness.
func (m *Memo) Cached(name string) bool {
	return m.entries.Contains(name)
}

// Fingerprint identifies the current state of files by path, modification
// time and size. A .shp brings its sidecar files along; missing sidecars are
// skipped.
func Fingerprint(files ...string) (string, error) {
	var b strings.Builder
	for _, path := range files {
		if err := stamp(&b, path); err != nil {
			return "", err
		}
		if !strings.EqualFold(filepath.Ext(path), ".shp") {
			continue
		}
		base := strings.TrimSuffix(path, filepath.Ext(path))
		for _, ext := range shapefileSidecars {
			if err := stamp(&b, base+ext); err != nil && !os.IsNotExist(err) {
				return "", err
			}
		}
	}
	return b.String(), nil
}

func stamp(b *strings.Builder, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	fmt.Fprintf(b, "%s|%d|%d;", path, info.ModTime().UnixNano(), info.Size())
	return nil
}
