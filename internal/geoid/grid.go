package geoid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// GridFileName is the standard name of the EGM96 15-minute grid
const GridFileName = "WW15MGH.GRD"

// Grid is a regular latitude/longitude grid of geoid undulations in meters.
//
// The file layout is the NGA ASCII one: a header "south north west east dlat dlon"
// followed by rows*cols values, row 0 at the northern edge, each row running
// west to east.
type Grid struct {
	South, North float64
	West, East   float64
	DLat, DLon   float64

	rows, cols int
	values     []float64
}

// LoadGrid reads a grid file from disk
func LoadGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid file: %w", err)
	}
	defer f.Close()

	g, err := ParseGrid(bufio.NewReaderSize(f, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid file %s: %w", path, err)
	}
	return g, nil
}

// ParseGrid parses the ASCII grid format from r
func ParseGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func() (float64, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		return strconv.ParseFloat(sc.Text(), 64)
	}

	var header [6]float64
	for i := range header {
		v, err := next()
		if err != nil {
			return nil, fmt.Errorf("%w: header: %v", ErrInvalidGrid, err)
		}
		header[i] = v
	}

	g := &Grid{
		South: header[0], North: header[1],
		West: header[2], East: header[3],
		DLat: header[4], DLon: header[5],
	}
	if g.DLat <= 0 || g.DLon <= 0 || g.North <= g.South || g.East <= g.West || g.East-g.West > 360 {
		return nil, fmt.Errorf("%w: bad header %v", ErrInvalidGrid, header)
	}

	g.rows = int(math.Round((g.North-g.South)/g.DLat)) + 1
	g.cols = int(math.Round((g.East-g.West)/g.DLon)) + 1
	if g.rows < 2 || g.cols < 2 {
		return nil, fmt.Errorf("%w: grid needs at least 2x2 samples", ErrInvalidGrid)
	}

	g.values = make([]float64, g.rows*g.cols)
	for i := range g.values {
		v, err := next()
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d of %d: %v", ErrInvalidGrid, i, len(g.values), err)
		}
		g.values[i] = v
	}

	return g, nil
}

// Size returns the number of rows and columns
func (g *Grid) Size() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid) at(row, col int) float64 {
	return g.values[row*g.cols+col]
}

// Height returns the bilinearly interpolated undulation at lat/lon.
// Longitude may be given in [-180, 180] or [0, 360).
func (g *Grid) Height(lat, lon float64) (float64, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, ErrInvalidCoordinate
	}
	if lat < g.South || lat > g.North {
		return 0, fmt.Errorf("%w: latitude %v outside [%v, %v]", ErrInvalidCoordinate, lat, g.South, g.North)
	}

	x := math.Mod(lon-g.West, 360)
	if x < 0 {
		x += 360
	}
	if x > g.East-g.West {
		return 0, fmt.Errorf("%w: longitude %v outside [%v, %v]", ErrInvalidCoordinate, lon, g.West, g.East)
	}

	fr := (g.North - lat) / g.DLat
	fc := x / g.DLon

	r0 := int(math.Floor(fr))
	if r0 > g.rows-2 {
		r0 = g.rows - 2
	}
	c0 := int(math.Floor(fc))
	if c0 > g.cols-2 {
		c0 = g.cols - 2
	}
	tr := fr - float64(r0)
	tc := fc - float64(c0)

	top := g.at(r0, c0)*(1-tc) + g.at(r0, c0+1)*tc
	bottom := g.at(r0+1, c0)*(1-tc) + g.at(r0+1, c0+1)*tc
	return top*(1-tr) + bottom*tr, nil
}
