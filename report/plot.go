package report

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/fumin/atomed"
)

// halfWidth is half the length of a level's line in a column of unit width.
const halfWidth = 0.3

// PlotLevels draws the multiplets of every spectrum as horizontal lines, one column per spectrum,
// and saves the image to fpath. The image format follows the extension of fpath.
func PlotLevels(fpath string, spectra ...atomed.Spectrum) error {
	p := plot.New()
	p.Title.Text = "Levels"
	p.Y.Label.Text = "E"

	names := make([]string, 0, len(spectra))
	for x, s := range spectra {
		name := "H"
		if s.SOC {
			name = "H + SOC"
		}
		names = append(names, name)

		for _, mu := range atomed.Multiplets(s.Levels, atomed.DegeneracyTol) {
			pts := plotter.XYs{
				{X: float64(x) - halfWidth, Y: mu.Energy},
				{X: float64(x) + halfWidth, Y: mu.Energy},
			}
			l, err := plotter.NewLine(pts)
			if err != nil {
				return errors.Wrap(err, "")
			}
			l.Color = plotutil.Color(x)
			l.Width = vg.Points(2)
			p.Add(l)
		}
	}
	p.NominalX(names...)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, fpath); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
