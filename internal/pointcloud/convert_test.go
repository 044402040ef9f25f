package pointcloud

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pc2draco/internal/geometry"
	"github.com/banshee-data/pc2draco/internal/testutil"
)

// xyzRGBRecord is a PCL-style XYZRGB cloud: 3 floats then a packed rgb float.
func xyzRGBRecord() *SourceRecord {
	buf := testutil.NewRecordBuffer(16, 2)
	buf.PutFloat32(0, 0, 1, 2, 3)
	buf.PutFloat32(0, 12, testutil.PackRGB(10, 20, 30))
	buf.PutFloat32(1, 0, -4, 5.5, 6)
	buf.PutFloat32(1, 12, testutil.PackRGB(40, 50, 60))
	return &SourceRecord{
		Height:    1,
		Width:     2,
		PointStep: 16,
		Fields: []FieldDescriptor{
			{Name: "x", Offset: 0, Datatype: geometry.DTFloat32, Count: 3},
			{Name: "rgb", Offset: 12, Datatype: geometry.DTFloat32, Count: 1},
		},
		Data: buf.Data,
	}
}

func TestConvert_XYZRGB(t *testing.T) {
	c, d := newTestConverter(nil)
	pc, err := c.Convert(xyzRGBRecord(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, pc.NumPoints())
	require.Len(t, pc.Attributes(), 2)

	pos := pc.Attribute(0)
	assert.Equal(t, geometry.Position, pos.Type)
	assert.Equal(t, geometry.DTFloat32, pos.DataType)
	assert.Equal(t, 3, pos.NumComponents)
	assert.Equal(t, []float32{1, 2, 3, -4, 5.5, 6}, testutil.Float32s(pos.Data))

	col := pc.Attribute(1)
	assert.Equal(t, geometry.Color, col.Type)
	assert.Equal(t, geometry.DTUint8, col.DataType)
	assert.Equal(t, 4, col.NumComponents)
	// Memory order of a little-endian 0x00RRGGBB scalar: b, g, r, 0.
	assert.Equal(t, []byte{30, 20, 10, 0, 60, 50, 40, 0}, col.Data)

	dedup, ok := pc.MetadataInt(MetadataDeduplicate)
	assert.True(t, ok)
	assert.Equal(t, int64(0), dedup)
	assert.Empty(t, d.warn)
	assert.Empty(t, d.fatal)
}

func TestConvert_OverrideModeUsesStore(t *testing.T) {
	ns := "/points/draco"
	store := fakeStore{
		strings: map[string]string{
			AttributeTypeKey(ns, "x"):   "POSITION",
			AttributeTypeKey(ns, "rgb"): "GENERIC",
		},
	}
	c, d := newTestConverter(store)
	pc, err := c.Convert(xyzRGBRecord(), Options{OverrideMode: true})
	require.NoError(t, err)

	col := pc.Attribute(1)
	assert.Equal(t, geometry.Generic, col.Type)
	assert.Equal(t, geometry.DTFloat32, col.DataType)
	assert.Equal(t, 1, col.NumComponents)
	assert.Empty(t, d.warn)
}

func TestConvert_OverrideFallbackReportedOncePerField(t *testing.T) {
	ns := "/points/draco"
	store := fakeStore{
		strings: map[string]string{AttributeTypeKey(ns, "x"): "SURFACE"},
	}
	obs := &recordingObserver{}
	c, d := newTestConverter(store)
	c.Observer = obs

	pc, err := c.Convert(xyzRGBRecord(), Options{OverrideMode: true})
	require.NoError(t, err)

	// Both fields fall back to name classification.
	assert.Equal(t, geometry.Position, pc.Attribute(0).Type)
	assert.Equal(t, geometry.Color, pc.Attribute(1).Type)
	assert.Equal(t, 4, pc.Attribute(1).NumComponents)

	assert.Len(t, d.warn, 2)
	assert.Len(t, d.info, 2)
	assert.Contains(t, d.info[1], AttributeTypeKey(ns, "rgb"))
	assert.ErrorIs(t, obs.fallbacks["x"], ErrOverrideValueInvalid)
	assert.ErrorIs(t, obs.fallbacks["rgb"], ErrOverrideLookupMiss)
	assert.Equal(t, 1, obs.conversions)
	assert.Equal(t, 2, obs.lastPoints)
	assert.NoError(t, obs.lastErr)
}

func TestConvert_OverrideDisabledIgnoresStore(t *testing.T) {
	ns := "/points/draco"
	store := fakeStore{strings: map[string]string{AttributeTypeKey(ns, "x"): "GENERIC"}}
	c, d := newTestConverter(store)
	pc, err := c.Convert(xyzRGBRecord(), Options{})
	require.NoError(t, err)
	assert.Equal(t, geometry.Position, pc.Attribute(0).Type)
	assert.Empty(t, d.warn)
}

func TestConvert_Idempotent(t *testing.T) {
	c, _ := newTestConverter(nil)
	rec := xyzRGBRecord()
	orig := append([]byte(nil), rec.Data...)

	a, err := c.Convert(rec, Options{})
	require.NoError(t, err)
	b, err := c.Convert(rec, Options{})
	require.NoError(t, err)

	if diff := cmp.Diff(a, b, cmp.AllowUnexported(geometry.PointCloud{})); diff != "" {
		t.Errorf("second conversion differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, orig, rec.Data, "source buffer must not be modified")
}

func TestConvert_Deduplicate(t *testing.T) {
	buf := testutil.NewRecordBuffer(12, 4)
	buf.PutFloat32(0, 0, 1, 1, 1)
	buf.PutFloat32(1, 0, 2, 2, 2)
	buf.PutFloat32(2, 0, 1, 1, 1)
	buf.PutFloat32(3, 0, 1, 1, 1)
	rec := &SourceRecord{
		Height: 2, Width: 2, PointStep: 12,
		Fields: []FieldDescriptor{{Name: "position", Datatype: geometry.DTFloat32, Count: 3}},
		Data:   buf.Data,
	}
	c, _ := newTestConverter(nil)

	pc, err := c.Convert(rec, Options{Deduplicate: true})
	require.NoError(t, err)
	assert.Equal(t, 2, pc.NumPoints())
	assert.LessOrEqual(t, pc.NumPoints(), rec.PointCount())
	v, _ := pc.MetadataInt(MetadataDeduplicate)
	assert.Equal(t, int64(1), v)

	pc, err = c.Convert(rec, Options{})
	require.NoError(t, err)
	assert.Equal(t, rec.PointCount(), pc.NumPoints())
}

func TestConvert_EmptyCloud(t *testing.T) {
	rec := &SourceRecord{
		Height: 0, Width: 0, PointStep: 16,
		Fields: []FieldDescriptor{{Name: "x", Datatype: geometry.DTFloat32, Count: 3}},
	}
	c, _ := newTestConverter(nil)
	pc, err := c.Convert(rec, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, pc.NumPoints())
	assert.Len(t, pc.Attributes(), 1)
}

func TestConvert_FatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SourceRecord)
		want   error
		field  string
	}{
		{
			name:   "unknown datatype",
			mutate: func(r *SourceRecord) { r.Fields[1].Datatype = 0 },
			want:   ErrUnrecognizedElementType,
			field:  "rgb",
		},
		{
			name:   "packing on uint8",
			mutate: func(r *SourceRecord) { r.Fields[1].Datatype = geometry.DTUint8 },
			want:   ErrInvalidPackingSource,
			field:  "rgb",
		},
		{
			name:   "short buffer",
			mutate: func(r *SourceRecord) { r.Data = r.Data[:20] },
			want:   ErrOutOfBoundsRead,
		},
		{
			name:   "dimensions exceed buffer",
			mutate: func(r *SourceRecord) { r.Height, r.Width = 1<<24, 1<<24 },
			want:   ErrOutOfBoundsRead,
		},
		{
			name:   "point step times count overflows",
			mutate: func(r *SourceRecord) { r.Height, r.Width, r.PointStep = 1<<31, 1<<31, 1<<33 },
			want:   ErrOutOfBoundsRead,
		},
		{
			name:   "dimensions overflow",
			mutate: func(r *SourceRecord) { r.Height, r.Width = 1<<40, 1<<40 },
			want:   ErrInvalidDescriptor,
		},
		{
			name:   "component count too large",
			mutate: func(r *SourceRecord) { r.Fields[0].Count = 1 << 40 },
			want:   ErrInvalidDescriptor,
			field:  "x",
		},
		{
			name:   "field past point step",
			mutate: func(r *SourceRecord) { r.Fields[1].Offset = 14 },
			want:   ErrOutOfBoundsRead,
			field:  "rgb",
		},
		{
			name:   "zero count",
			mutate: func(r *SourceRecord) { r.Fields[0].Count = 0 },
			want:   ErrInvalidDescriptor,
			field:  "x",
		},
		{
			name:   "negative width",
			mutate: func(r *SourceRecord) { r.Width = -1 },
			want:   ErrInvalidDescriptor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := xyzRGBRecord()
			tt.mutate(rec)
			obs := &recordingObserver{}
			c, d := newTestConverter(nil)
			c.Observer = obs

			pc, err := c.Convert(rec, Options{})
			assert.Nil(t, pc)
			require.ErrorIs(t, err, tt.want)

			var ce *ConversionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.Len(t, d.fatal, 1)
			assert.Equal(t, 1, obs.conversions)
			assert.Error(t, obs.lastErr)
		})
	}
}

func TestConvert_BuilderFinalizeFailed(t *testing.T) {
	c, _ := newTestConverter(nil)
	c.NewBuilder = func() Builder {
		return &stubBuilder{
			PointCloudBuilder: geometry.NewPointCloudBuilder(),
			finalize:          func(*geometry.PointCloud) *geometry.PointCloud { return nil },
		}
	}
	_, err := c.Convert(xyzRGBRecord(), Options{})
	assert.ErrorIs(t, err, ErrBuilderFinalizeFailed)
}

func TestConvert_PointCountMismatch(t *testing.T) {
	// A builder that drops points even when deduplication is off.
	lossy := func() Builder {
		return &stubBuilder{
			PointCloudBuilder: geometry.NewPointCloudBuilder(),
			finalize: func(pc *geometry.PointCloud) *geometry.PointCloud {
				b := geometry.NewPointCloudBuilder()
				b.Start(pc.NumPoints() - 1)
				for _, a := range pc.Attributes() {
					id := b.AddAttribute(a.Type, a.NumComponents, a.DataType)
					_ = b.SetAttributeValuesForAllPoints(id, a.Data, 0)
				}
				return b.Finalize(false)
			},
		}
	}
	obs := &recordingObserver{}
	c, _ := newTestConverter(nil)
	c.NewBuilder = lossy
	c.Observer = obs

	_, err := c.Convert(xyzRGBRecord(), Options{})
	assert.ErrorIs(t, err, ErrPointCountMismatch)
	assert.Equal(t, 1, obs.lastPoints, "observer sees the finalized count")

	// The same loss is acceptable when deduplication was requested.
	pc, err := c.Convert(xyzRGBRecord(), Options{Deduplicate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, pc.NumPoints())
}

func TestConvert_ConcurrentRecords(t *testing.T) {
	c, _ := newTestConverter(fakeStore{})
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Convert(xyzRGBRecord(), Options{OverrideMode: i%2 == 0, Deduplicate: i%3 == 0})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "conversion %d", i)
	}
}
