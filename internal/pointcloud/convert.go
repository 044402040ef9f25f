package pointcloud

import (
	"errors"
	"time"

	"github.com/banshee-data/pc2draco/internal/geometry"
	"github.com/banshee-data/pc2draco/internal/monitoring"
)

// MetadataDeduplicate is the metadata key recording whether the cloud was
// deduplicated (1) or not (0).
const MetadataDeduplicate = "deduplicate"

// Builder is the downstream geometry builder contract.
// geometry.PointCloudBuilder is the default implementation.
type Builder interface {
	Start(numPoints int)
	AddAttribute(t geometry.AttributeType, numComponents int, dt geometry.DataType) int
	SetAttributeValuesForAllPoints(id int, data []byte, stride int) error
	Finalize(deduplicate bool) *geometry.PointCloud
}

// Diagnostics receives leveled messages. Fatalf must not exit the process.
type Diagnostics interface {
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

// Observer is notified of override fallbacks and conversion outcomes.
type Observer interface {
	ObserveFallback(field string, reason error)
	ObserveConversion(points int, elapsed time.Duration, err error)
}

// Options select the per-call behaviour of Convert.
type Options struct {
	// Deduplicate asks the builder to merge identical points.
	Deduplicate bool
	// OverrideMode consults the parameter store for each field's role
	// before falling back to name classification.
	OverrideMode bool
}

// Converter turns SourceRecords into geometry.PointClouds.
type Converter struct {
	// Namespace prefixes parameter store keys, e.g. "/points/draco".
	Namespace string
	// Params is consulted in override mode. May be nil.
	Params ParamStore
	// Diagnostics defaults to monitoring.Diagnostics.
	Diagnostics Diagnostics
	// Observer is optional.
	Observer Observer
	// NewBuilder defaults to geometry.NewPointCloudBuilder.
	NewBuilder func() Builder
}

// NewConverter returns a Converter with default collaborators.
func NewConverter(namespace string, params ParamStore) *Converter {
	return &Converter{
		Namespace:   namespace,
		Params:      params,
		Diagnostics: monitoring.Diagnostics{},
	}
}

// Convert builds an attribute-major cloud from rec, one attribute per field
// in field order. Any fatal condition aborts the conversion and returns a
// *ConversionError. rec is not modified.
func (c *Converter) Convert(rec *SourceRecord, opts Options) (pc *geometry.PointCloud, err error) {
	start := time.Now()
	// points is what the builder produced, even when the result is rejected.
	points := 0
	defer func() {
		if err != nil {
			c.diag().Fatalf("%v", err)
		}
		if c.Observer != nil {
			c.Observer.ObserveConversion(points, time.Since(start), err)
		}
	}()

	if err := rec.validate(); err != nil {
		return nil, &ConversionError{Err: err}
	}
	numPoints := rec.PointCount()
	b := c.builder()
	b.Start(numPoints)

	for _, field := range rec.Fields {
		if err := c.addField(b, rec, field, opts); err != nil {
			return nil, &ConversionError{Field: field.Name, Err: err}
		}
	}

	pc = b.Finalize(opts.Deduplicate)
	if pc == nil {
		return nil, &ConversionError{Err: ErrBuilderFinalizeFailed}
	}
	var dedup int64
	if opts.Deduplicate {
		dedup = 1
	}
	pc.AddMetadataInt(MetadataDeduplicate, dedup)

	got := pc.NumPoints()
	points = got
	if (!opts.Deduplicate && got != numPoints) || got > numPoints {
		return nil, &ConversionError{Err: pointCountError(got, numPoints)}
	}
	debugf("converted %d fields, %d -> %d points (dedup=%t)", len(rec.Fields), numPoints, got, opts.Deduplicate)
	return pc, nil
}

func (c *Converter) addField(b Builder, rec *SourceRecord, field FieldDescriptor, opts Options) error {
	if err := validateField(field); err != nil {
		return err
	}
	res := c.resolve(field.Name, opts.OverrideMode)
	plan, err := PlanAttribute(field, res.Type, res.Packed)
	if err != nil {
		return err
	}
	// Gather bounds-checks the field before the builder allocates for it.
	values, err := Gather(plan, rec.Data, rec.PointStep, rec.PointCount())
	if err != nil {
		return err
	}
	id := b.AddAttribute(plan.Type, plan.NumComponents, plan.DataType)
	if id < 0 {
		return ErrBuilderRejected
	}
	if err := b.SetAttributeValuesForAllPoints(id, values, plan.ByteSpan()); err != nil {
		return errors.Join(ErrBuilderRejected, err)
	}
	debugf("field %q -> id=%d %s %dx%s packed=%t", field.Name, id, plan.Type, plan.NumComponents, plan.DataType, plan.PackedColor)
	return nil
}

// resolve picks the semantic type of one field, reporting override
// fallbacks once per field.
func (c *Converter) resolve(name string, override bool) Resolution {
	if !override {
		attr, packed := ClassifyName(name)
		return Resolution{Type: attr, Packed: packed}
	}
	res := OverrideResolver{Namespace: c.Namespace, Store: c.Params}.Resolve(name)
	if res.Fallback != nil {
		d := c.diag()
		if errors.Is(res.Fallback, ErrOverrideValueInvalid) {
			d.Warnf("attribute type not recognized for field %q (%v); using name classification", name, res.Fallback)
		} else {
			d.Warnf("attribute type not specified for field %q; using name classification", name)
		}
		d.Infof("to set the attribute type for field %q, set %s", name, AttributeTypeKey(c.Namespace, name))
		if c.Observer != nil {
			c.Observer.ObserveFallback(name, res.Fallback)
		}
	}
	return res
}

func (c *Converter) diag() Diagnostics {
	if c.Diagnostics == nil {
		return monitoring.Diagnostics{}
	}
	return c.Diagnostics
}

func (c *Converter) builder() Builder {
	if c.NewBuilder == nil {
		return geometry.NewPointCloudBuilder()
	}
	return c.NewBuilder()
}
