// internal/exif/tags.go
package exif

import (
	"fmt"
	"io"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/bstardust/geokit/internal/logger"
)

func init() {
	// Vendor maker notes otherwise abort decoding on some cameras
	goexif.RegisterParsers(mknote.All...)
}

// Value is a decoded tag value. Text holds ASCII tags, Numbers holds
// integer, float and rational components in order.
type Value struct {
	Text    string
	Numbers []float64
}

// Number returns the i-th numeric component
func (v Value) Number(i int) (float64, bool) {
	if i < 0 || i >= len(v.Numbers) {
		return 0, false
	}
	return v.Numbers[i], true
}

// Tags is a raw EXIF dictionary keyed by standard EXIF field names
type Tags map[goexif.FieldName]Value

// Get returns the value for a field
func (t Tags) Get(name goexif.FieldName) (Value, bool) {
	v, ok := t[name]
	return v, ok
}

// Decode parses the EXIF container in r and returns its tags
func Decode(r io.Reader) (Tags, error) {
	x, err := goexif.Decode(r)
	if err != nil {
		if x == nil || goexif.IsCriticalError(err) {
			return nil, fmt.Errorf("failed to decode EXIF: %w", err)
		}
		logger.Debug("Partial EXIF decode: %v", err)
	}
	return FromExif(x)
}

// FromExif flattens a goexif structure into a Tags dictionary.
// Tags whose values cannot be converted are skipped.
func FromExif(x *goexif.Exif) (Tags, error) {
	w := tagWalker{tags: make(Tags)}
	if err := x.Walk(&w); err != nil {
		return nil, fmt.Errorf("failed to walk EXIF tags: %w", err)
	}
	return w.tags, nil
}

type tagWalker struct {
	tags Tags
}

func (w *tagWalker) Walk(name goexif.FieldName, tag *tiff.Tag) error {
	v, err := convertTag(tag)
	if err != nil {
		logger.WithFields(logger.Fields{"tag": string(name)}).Debugf("skipping undecodable tag: %v", err)
		return nil
	}
	w.tags[name] = v
	return nil
}

func convertTag(tag *tiff.Tag) (Value, error) {
	var v Value
	n := int(tag.Count)

	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return v, err
		}
		v.Text = s
	case tiff.RatVal:
		v.Numbers = make([]float64, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return v, err
			}
			// 0/0 is how many cameras write an unset component
			if den == 0 {
				if num != 0 {
					return v, fmt.Errorf("zero denominator at index %d", i)
				}
				v.Numbers = append(v.Numbers, 0)
				continue
			}
			v.Numbers = append(v.Numbers, float64(num)/float64(den))
		}
	case tiff.IntVal:
		v.Numbers = make([]float64, 0, n)
		for i := 0; i < n; i++ {
			x, err := tag.Int64(i)
			if err != nil {
				return v, err
			}
			v.Numbers = append(v.Numbers, float64(x))
		}
	case tiff.FloatVal:
		v.Numbers = make([]float64, 0, n)
		for i := 0; i < n; i++ {
			f, err := tag.Float(i)
			if err != nil {
				return v, err
			}
			v.Numbers = append(v.Numbers, f)
		}
	default:
		// Undefined/opaque payloads (maker notes, version bytes) carry no field we read
		return v, fmt.Errorf("unsupported tag format %v", tag.Format())
	}

	return v, nil
}
