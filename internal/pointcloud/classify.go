package pointcloud

import "github.com/banshee-data/pc2draco/internal/geometry"

type nameClass struct {
	attr   geometry.AttributeType
	packed bool
}

// recognizedNames is matched exactly and case-sensitively.
var recognizedNames = map[string]nameClass{
	"x":        {attr: geometry.Position},
	"y":        {attr: geometry.Position},
	"z":        {attr: geometry.Position},
	"pos":      {attr: geometry.Position},
	"position": {attr: geometry.Position},
	"r":        {attr: geometry.Color},
	"g":        {attr: geometry.Color},
	"b":        {attr: geometry.Color},
	"a":        {attr: geometry.Color},
	"rgb":      {attr: geometry.Color, packed: true},
	"rgba":     {attr: geometry.Color, packed: true},
	"nx":       {attr: geometry.Normal},
	"ny":       {attr: geometry.Normal},
	"nz":       {attr: geometry.Normal},
}

// ClassifyName maps a field name to its semantic type. packed reports
// whether the field is a packed colour. Unknown names are Generic.
func ClassifyName(name string) (attr geometry.AttributeType, packed bool) {
	c, ok := recognizedNames[name]
	if !ok {
		return geometry.Generic, false
	}
	return c.attr, c.packed
}
