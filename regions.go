package buddha

// Classic regions for sampling and viewing the Buddhabrot.
// Any of them can be passed by name wherever a region flag is accepted.
var (
	// FullSet – bounding box of the Mandelbrot set, the usual sampling region
	FullSet = Region{
		Xmin: -2.0,
		Xmax: 1.0,
		Ymin: -1.4,
		Ymax: 1.4,
	}

	// Square – the disc of radius 2 every non escaped orbit value stays in
	Square = Region{
		Xmin: -2.0,
		Xmax: 2.0,
		Ymin: -2.0,
		Ymax: 2.0,
	}

	// Portrait – the upright "seated Buddha" framing, trimmed around the figure
	Portrait = Region{
		Xmin: -2.0,
		Xmax: 1.2,
		Ymin: -1.6,
		Ymax: 1.6,
	}

	// Antenna – the filament along the negative real axis
	Antenna = Region{
		Xmin: -2.0,
		Xmax: -1.4,
		Ymin: -0.3,
		Ymax: 0.3,
	}

	// SeahorseValley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}
)

// Presets maps region names to regions.
var Presets = map[string]Region{
	"full":     FullSet,
	"square":   Square,
	"portrait": Portrait,
	"antenna":  Antenna,
	"seahorse": SeahorseValley,
}
