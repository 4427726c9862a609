package core

import (
	"fmt"
	"strings"
)

// Describe renders a multi-line, human-readable summary of a zone.
func Describe(z Zone) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plot number: %d\n", z.Number())
	fmt.Fprintf(&b, "\tType: %s\n", z.Kind().Code())
	fmt.Fprintf(&b, "\t%s\n", z.Shape())
	fmt.Fprintf(&b, "\tOwner: %s\n", z.Owner())
	fmt.Fprintf(&b, "\tArea: %g m2\n", z.Area())

	switch v := z.(type) {
	case *UrbanZone:
		fmt.Fprintf(&b, "\tBuildable area: %d%%\n", v.BuildablePercent())
		fmt.Fprintf(&b, "\tBuilt area: %g m2\n", v.BuiltArea())
		fmt.Fprintf(&b, "\tFree area: %g m2\n", v.BuildableArea())
	case *ZoneToBeUrbanized:
		fmt.Fprintf(&b, "\tBuildable area: %d%%\n", v.BuildablePercent())
		fmt.Fprintf(&b, "\tFree area: %g m2\n", v.BuildableArea())
	case *AgriculturalZone:
		fmt.Fprintf(&b, "\tCrop type: %s\n", v.CropType())
		fmt.Fprintf(&b, "\tBuildable area: %g m2\n", v.BuildableArea())
	}
	return b.String()
}
