package analysis

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// WindowPoint is a kite position seen from the pilot, in degrees. Azimuth
// is positive to the pilot's right; elevation 90 is the zenith.
type WindowPoint struct {
	Azimuth   float64
	Elevation float64
}

// FlightWindow converts recorded frames to window coordinates around
// origin, normally the bar position.
func FlightWindow(frames []dynamo.Frame, origin mgl64.Vec3) []WindowPoint {
	points := make([]WindowPoint, 0, len(frames))
	for _, f := range frames {
		d := f.Body.Position.Sub(origin)
		horiz := math.Hypot(d.X(), d.Z())
		if horiz < 1e-9 && math.Abs(d.Y()) < 1e-9 {
			continue
		}
		p := WindowPoint{Elevation: mgl64.RadToDeg(math.Atan2(d.Y(), horiz))}
		// azimuth is undefined straight overhead
		if horiz > 1e-9 {
			p.Azimuth = mgl64.RadToDeg(math.Atan2(d.X(), -d.Z()))
		}
		points = append(points, p)
	}
	return points
}

// WindowToASCII plots points over the quarter sphere downwind of the
// pilot: azimuth -90..90 across, elevation 0..90 up.
func WindowToASCII(points []WindowPoint, width, height int) string {
	if width < 3 || height < 2 {
		return ""
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	center := (width - 1) / 2
	for row := range grid {
		grid[row][center] = '│'
	}
	for col := range grid[height-1] {
		grid[height-1][col] = '─'
	}

	for _, p := range points {
		col := int(math.Round((p.Azimuth + 90) / 180 * float64(width-1)))
		row := height - 1 - int(math.Round(p.Elevation/90*float64(height-1)))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
