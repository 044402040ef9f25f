package pointcloud

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/pc2draco/internal/geometry"
)

// fakeStore is an in-memory ParamStore.
type fakeStore struct {
	strings map[string]string
	bools   map[string]bool
}

func (s fakeStore) GetString(key string) (string, bool) {
	v, ok := s.strings[key]
	return v, ok
}

func (s fakeStore) GetBool(key string) (bool, bool) {
	v, ok := s.bools[key]
	return v, ok
}

// recordingDiag captures diagnostics by level.
type recordingDiag struct {
	mu    sync.Mutex
	info  []string
	warn  []string
	fatal []string
}

func (d *recordingDiag) Infof(format string, v ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = append(d.info, fmt.Sprintf(format, v...))
}

func (d *recordingDiag) Warnf(format string, v ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warn = append(d.warn, fmt.Sprintf(format, v...))
}

func (d *recordingDiag) Fatalf(format string, v ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fatal = append(d.fatal, fmt.Sprintf(format, v...))
}

type recordingObserver struct {
	fallbacks   map[string]error
	conversions int
	lastPoints  int
	lastErr     error
}

func (o *recordingObserver) ObserveFallback(field string, reason error) {
	if o.fallbacks == nil {
		o.fallbacks = make(map[string]error)
	}
	o.fallbacks[field] = reason
}

func (o *recordingObserver) ObserveConversion(points int, _ time.Duration, err error) {
	o.conversions++
	o.lastPoints = points
	o.lastErr = err
}

// stubBuilder wraps the real builder and lets tests corrupt Finalize.
type stubBuilder struct {
	*geometry.PointCloudBuilder
	finalize func(pc *geometry.PointCloud) *geometry.PointCloud
}

func (b *stubBuilder) Finalize(dedup bool) *geometry.PointCloud {
	return b.finalize(b.PointCloudBuilder.Finalize(dedup))
}

func newTestConverter(store ParamStore) (*Converter, *recordingDiag) {
	d := &recordingDiag{}
	c := NewConverter("/points/draco", store)
	c.Diagnostics = d
	return c, d
}
