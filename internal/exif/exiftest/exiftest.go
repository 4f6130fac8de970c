// Package exiftest builds small JPEG files carrying EXIF blocks for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
)

// TIFF field types
const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// Tag ids used by the fixtures
const (
	tagMake             = 0x010F
	tagModel            = 0x0110
	tagOrientation      = 0x0112
	tagDateTime         = 0x0132
	tagExifPointer      = 0x8769
	tagGPSPointer       = 0x8825
	tagDateTimeOriginal = 0x9003
	tagFocalLength      = 0x920A
	tagPixelX           = 0xA002
	tagPixelY           = 0xA003
	tagFocal35mm        = 0xA405
	tagGPSLatRef        = 0x0001
	tagGPSLat           = 0x0002
	tagGPSLonRef        = 0x0003
	tagGPSLon           = 0x0004
	tagGPSAltRef        = 0x0005
	tagGPSAlt           = 0x0006
)

// Rational is a numerator/denominator pair
type Rational [2]uint32

// GPS describes the GPS IFD; DMS triples are written as given so malformed
// encodings can be reproduced.
type GPS struct {
	LatRef string
	Lat    [3]Rational
	LonRef string
	Lon    [3]Rational
	// AltRef is written only when Alt is set
	AltRef byte
	Alt    *Rational
}

// Fixture describes the image and the tags to embed
type Fixture struct {
	Width, Height    int
	Make, Model      string
	Orientation      uint16
	DateTime         string
	DateTimeOriginal string
	FocalLength      *Rational
	FocalLength35mm  uint16
	PixelX, PixelY   uint32
	GPS              *GPS
}

// DecimalToDMS converts decimal degrees to a whole degrees/minutes plus
// hundredths-of-second triple.
func DecimalToDMS(decimal float64) [3]Rational {
	decimal = math.Abs(decimal)
	d := math.Floor(decimal)
	m := math.Floor((decimal - d) * 60)
	s := ((decimal-d)*60 - m) * 60
	return [3]Rational{{uint32(d), 1}, {uint32(m), 1}, {uint32(math.Round(s * 100)), 100}}
}

// PlainJPEG encodes a solid JPEG without any EXIF block
func PlainJPEG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG encodes a JPEG with an APP1 EXIF segment built from fx
func JPEG(fx Fixture) []byte {
	raw := PlainJPEG(fx.Width, fx.Height)
	payload := append([]byte("Exif\x00\x00"), TIFF(fx)...)

	var out bytes.Buffer
	out.Write(raw[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(raw[2:])
	return out.Bytes()
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: b}
}

func longEntry(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func byteEntry(tag uint16, v byte) entry {
	return entry{tag: tag, typ: typeByte, count: 1, data: []byte{v}}
}

func rationalEntry(tag uint16, vals ...Rational) entry {
	b := make([]byte, 8*len(vals))
	for i, r := range vals {
		binary.LittleEndian.PutUint32(b[i*8:], r[0])
		binary.LittleEndian.PutUint32(b[i*8+4:], r[1])
	}
	return entry{tag: tag, typ: typeRational, count: uint32(len(vals)), data: b}
}

func ifdSize(entries []entry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += len(e.data) + len(e.data)%2
		}
	}
	return size
}

func writeIFD(buf *bytes.Buffer, offset int, entries []entry) {
	le := binary.LittleEndian
	dataOffset := offset + 2 + 12*len(entries) + 4
	var data bytes.Buffer

	binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, le, e.tag)
		binary.Write(buf, le, e.typ)
		binary.Write(buf, le, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			buf.Write(v)
			continue
		}
		binary.Write(buf, le, uint32(dataOffset+data.Len()))
		data.Write(e.data)
		if len(e.data)%2 == 1 {
			data.WriteByte(0)
		}
	}
	binary.Write(buf, le, uint32(0))
	buf.Write(data.Bytes())
}

// TIFF returns a little-endian TIFF structure holding the EXIF tags of fx
func TIFF(fx Fixture) []byte {
	var ifd0, exifIFD, gpsIFD []entry

	if fx.Make != "" {
		ifd0 = append(ifd0, asciiEntry(tagMake, fx.Make))
	}
	if fx.Model != "" {
		ifd0 = append(ifd0, asciiEntry(tagModel, fx.Model))
	}
	if fx.Orientation != 0 {
		ifd0 = append(ifd0, shortEntry(tagOrientation, fx.Orientation))
	}
	if fx.DateTime != "" {
		ifd0 = append(ifd0, asciiEntry(tagDateTime, fx.DateTime))
	}

	if fx.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, asciiEntry(tagDateTimeOriginal, fx.DateTimeOriginal))
	}
	if fx.FocalLength != nil {
		exifIFD = append(exifIFD, rationalEntry(tagFocalLength, *fx.FocalLength))
	}
	if fx.PixelX != 0 {
		exifIFD = append(exifIFD, longEntry(tagPixelX, fx.PixelX))
	}
	if fx.PixelY != 0 {
		exifIFD = append(exifIFD, longEntry(tagPixelY, fx.PixelY))
	}
	if fx.FocalLength35mm != 0 {
		exifIFD = append(exifIFD, shortEntry(tagFocal35mm, fx.FocalLength35mm))
	}

	if g := fx.GPS; g != nil {
		if g.LatRef != "" {
			gpsIFD = append(gpsIFD, asciiEntry(tagGPSLatRef, g.LatRef))
		}
		gpsIFD = append(gpsIFD, rationalEntry(tagGPSLat, g.Lat[:]...))
		if g.LonRef != "" {
			gpsIFD = append(gpsIFD, asciiEntry(tagGPSLonRef, g.LonRef))
		}
		gpsIFD = append(gpsIFD, rationalEntry(tagGPSLon, g.Lon[:]...))
		if g.Alt != nil {
			gpsIFD = append(gpsIFD, byteEntry(tagGPSAltRef, g.AltRef))
			gpsIFD = append(gpsIFD, rationalEntry(tagGPSAlt, *g.Alt))
		}
	}

	// Pointer entries are sized now and patched once offsets are known
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, longEntry(tagExifPointer, 0))
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, longEntry(tagGPSPointer, 0))
	}

	ifd0Offset := 8
	exifOffset := ifd0Offset + ifdSize(ifd0)
	gpsOffset := exifOffset
	if len(exifIFD) > 0 {
		gpsOffset += ifdSize(exifIFD)
	}

	for i := range ifd0 {
		switch ifd0[i].tag {
		case tagExifPointer:
			ifd0[i] = longEntry(tagExifPointer, uint32(exifOffset))
		case tagGPSPointer:
			ifd0[i] = longEntry(tagGPSPointer, uint32(gpsOffset))
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	binary.Write(&buf, binary.LittleEndian, uint32(ifd0Offset))

	writeIFD(&buf, ifd0Offset, ifd0)
	if len(exifIFD) > 0 {
		writeIFD(&buf, exifOffset, exifIFD)
	}
	if len(gpsIFD) > 0 {
		writeIFD(&buf, gpsOffset, gpsIFD)
	}
	return buf.Bytes()
}
