package altitude

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/geokit/internal/exif"
)

// stubSource is a smooth fake surface, roughly EGM96-sized
type stubSource struct{}

func (stubSource) Undulation(_ context.Context, lat, lon float64) (float64, error) {
	return 30*math.Sin(lat*math.Pi/180) + 20*math.Cos(lon*math.Pi/180), nil
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Undulation(ctx context.Context, lat, lon float64) (float64, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(float64), args.Error(1)
}

func TestConversions(t *testing.T) {
	src := new(mockSource)
	src.On("Undulation", mock.Anything, 46.0, 4.0).Return(47.5, nil)
	c := NewConverter(src)
	ctx := context.Background()

	h, err := c.MSLToWGS84(ctx, 0, 46, 4)
	require.NoError(t, err)
	assert.Equal(t, 47.5, h)

	h, err = c.MSLToWGS84(ctx, 1000, 46, 4)
	require.NoError(t, err)
	assert.Equal(t, 1047.5, h)

	msl, err := c.WGS84ToMSL(ctx, 1047.5, 46, 4)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, msl)

	src.AssertNumberOfCalls(t, "Undulation", 3)
}

func TestRoundTrip(t *testing.T) {
	c := NewConverter(stubSource{})
	ctx := context.Background()

	points := [][3]float64{
		{0, 0, 0},
		{1234.5, 46.371203, 4.635514},
		{-420, -33.8688, 151.2093},
		{8848.86, 27.9881, 86.925},
		{10, 89.9, -179.9},
	}
	for _, p := range points {
		alt, lat, lon := p[0], p[1], p[2]

		wgs, err := c.MSLToWGS84(ctx, alt, lat, lon)
		require.NoError(t, err)
		back, err := c.WGS84ToMSL(ctx, wgs, lat, lon)
		require.NoError(t, err)
		assert.InDelta(t, alt, back, 1e-9, "point %v", p)

		msl, err := c.WGS84ToMSL(ctx, alt, lat, lon)
		require.NoError(t, err)
		forward, err := c.MSLToWGS84(ctx, msl, lat, lon)
		require.NoError(t, err)
		assert.InDelta(t, alt, forward, 1e-9, "point %v", p)
	}
}

func TestConversionError(t *testing.T) {
	boom := errors.New("grid unavailable")
	src := new(mockSource)
	src.On("Undulation", mock.Anything, mock.Anything, mock.Anything).Return(0.0, boom)
	c := NewConverter(src)

	_, err := c.MSLToWGS84(context.Background(), 100, 1, 2)
	assert.ErrorIs(t, err, boom)
	_, err = c.WGS84ToMSL(context.Background(), 100, 1, 2)
	assert.ErrorIs(t, err, boom)
}

func TestCoordinateToWGS84(t *testing.T) {
	src := new(mockSource)
	src.On("Undulation", mock.Anything, 48.8566, 2.3522).Return(44.6, nil)
	c := NewConverter(src)

	alt := 35.0
	in := exif.Coordinate{Latitude: 48.8566, Longitude: 2.3522, Altitude: &alt}
	out, err := c.CoordinateToWGS84(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Altitude)
	assert.InDelta(t, 79.6, *out.Altitude, 1e-9)
	// input untouched
	assert.Equal(t, 35.0, *in.Altitude)

	noAlt := exif.Coordinate{Latitude: 1, Longitude: 2}
	out, err = c.CoordinateToWGS84(context.Background(), noAlt)
	require.NoError(t, err)
	assert.Nil(t, out.Altitude)
	src.AssertNumberOfCalls(t, "Undulation", 1)
}
