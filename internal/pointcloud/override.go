package pointcloud

import (
	"fmt"
	"strings"

	"github.com/banshee-data/pc2draco/internal/geometry"
)

// ParamStore is a synchronous key/value lookup. Implementations must
// tolerate concurrent reads.
type ParamStore interface {
	GetString(key string) (string, bool)
	GetBool(key string) (bool, bool)
}

// AttributeTypeKey is the key holding the role name for field.
func AttributeTypeKey(namespace, field string) string {
	return strings.TrimSuffix(namespace, "/") + "/attribute_mapping/attribute_type/" + field
}

// RGBATweakKey is the key holding the packed colour flag for field.
func RGBATweakKey(namespace, field string) string {
	return strings.TrimSuffix(namespace, "/") + "/attribute_mapping/rgba_tweak/" + field
}

// Resolution is the semantic type chosen for one field.
type Resolution struct {
	Type   geometry.AttributeType
	Packed bool
	// Fallback is non-nil when an override was requested but the name
	// classification had to be used. It wraps ErrOverrideLookupMiss or
	// ErrOverrideValueInvalid.
	Fallback error
}

// OverrideResolver reads per-field roles from a ParamStore under Namespace.
type OverrideResolver struct {
	Namespace string
	Store     ParamStore
}

// Resolve looks up the role of field. It never fails: on a missing or
// unrecognised value it returns the name classification with Fallback set.
func (r OverrideResolver) Resolve(field string) Resolution {
	key := AttributeTypeKey(r.Namespace, field)
	var (
		raw string
		ok  bool
	)
	if r.Store != nil {
		raw, ok = r.Store.GetString(key)
	}
	if !ok {
		return fallback(field, fmt.Errorf("%w: %s", ErrOverrideLookupMiss, key))
	}
	attr, ok := geometry.ParseAttributeType(raw)
	if !ok {
		return fallback(field, fmt.Errorf("%w: %s=%q", ErrOverrideValueInvalid, key, raw))
	}

	res := Resolution{Type: attr}
	if attr == geometry.Color {
		if packed, ok := r.Store.GetBool(RGBATweakKey(r.Namespace, field)); ok {
			res.Packed = packed
		}
	}
	return res
}

func fallback(field string, reason error) Resolution {
	attr, packed := ClassifyName(field)
	return Resolution{Type: attr, Packed: packed, Fallback: reason}
}
