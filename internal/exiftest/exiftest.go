// Package exiftest builds small JPEG and PNG fixtures carrying EXIF
// orientation, capture date and GPS tags for package tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"os"
)

// GPS holds degrees/minutes/seconds as numerator/denominator pairs.
type GPS struct {
	Lat    [3][2]uint32
	LatRef string
	Lon    [3][2]uint32
	LonRef string
}

// Fields lists the tags written to the fixture. Zero values are omitted.
type Fields struct {
	Orientation      int
	DateTimeOriginal string
	GPS              *GPS
}

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

type ifd []entry

func (d ifd) size() int {
	n := 2 + 12*len(d) + 4
	for _, e := range d {
		if len(e.value) > 4 {
			n += len(e.value) + len(e.value)%2
		}
	}
	return n
}

func (d ifd) encode(offset int) []byte {
	le := binary.LittleEndian
	var head, data bytes.Buffer
	dataOffset := offset + 2 + 12*len(d) + 4

	_ = binary.Write(&head, le, uint16(len(d)))
	for _, e := range d {
		_ = binary.Write(&head, le, e.tag)
		_ = binary.Write(&head, le, e.typ)
		_ = binary.Write(&head, le, e.count)
		if len(e.value) <= 4 {
			v := make([]byte, 4)
			copy(v, e.value)
			head.Write(v)
			continue
		}
		_ = binary.Write(&head, le, uint32(dataOffset+data.Len()))
		data.Write(e.value)
		if len(e.value)%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(&head, le, uint32(0))

	head.Write(data.Bytes())
	return head.Bytes()
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func ascii(s string) entry {
	v := append([]byte(s), 0)
	return entry{typ: typeASCII, count: uint32(len(v)), value: v}
}

func rationals(parts [3][2]uint32) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, u32(p[0])...)
		b = append(b, u32(p[1])...)
	}
	return b
}

// TIFF returns a little-endian TIFF/EXIF block holding f.
func TIFF(f Fields) []byte {
	var ifd0, exifIFD, gpsIFD ifd

	if f.Orientation != 0 {
		ifd0 = append(ifd0, entry{tag: 0x0112, typ: typeShort, count: 1, value: u16(uint16(f.Orientation))})
	}
	if f.DateTimeOriginal != "" {
		e := ascii(f.DateTimeOriginal)
		e.tag = 0x9003
		exifIFD = append(exifIFD, e)
	}
	if f.GPS != nil {
		if f.GPS.LatRef != "" {
			e := ascii(f.GPS.LatRef)
			e.tag = 0x0001
			gpsIFD = append(gpsIFD, e)
		}
		gpsIFD = append(gpsIFD, entry{tag: 0x0002, typ: typeRational, count: 3, value: rationals(f.GPS.Lat)})
		if f.GPS.LonRef != "" {
			e := ascii(f.GPS.LonRef)
			e.tag = 0x0003
			gpsIFD = append(gpsIFD, e)
		}
		gpsIFD = append(gpsIFD, entry{tag: 0x0004, typ: typeRational, count: 3, value: rationals(f.GPS.Lon)})
	}

	// Pointer entries are appended with placeholder offsets; sizes don't
	// depend on their values.
	exifIdx, gpsIdx := -1, -1
	if len(exifIFD) > 0 {
		exifIdx = len(ifd0)
		ifd0 = append(ifd0, entry{tag: 0x8769, typ: typeLong, count: 1, value: u32(0)})
	}
	if len(gpsIFD) > 0 {
		gpsIdx = len(ifd0)
		ifd0 = append(ifd0, entry{tag: 0x8825, typ: typeLong, count: 1, value: u32(0)})
	}

	ifd0Offset := 8
	exifOffset := ifd0Offset + ifd0.size()
	gpsOffset := exifOffset
	if len(exifIFD) > 0 {
		gpsOffset += exifIFD.size()
	}
	if exifIdx >= 0 {
		ifd0[exifIdx].value = u32(uint32(exifOffset))
	}
	if gpsIdx >= 0 {
		ifd0[gpsIdx].value = u32(uint32(gpsOffset))
	}

	var buf bytes.Buffer
	buf.Write([]byte{'I', 'I', 0x2A, 0x00})
	buf.Write(u32(uint32(ifd0Offset)))
	buf.Write(ifd0.encode(ifd0Offset))
	if len(exifIFD) > 0 {
		buf.Write(exifIFD.encode(exifOffset))
	}
	if len(gpsIFD) > 0 {
		buf.Write(gpsIFD.encode(gpsOffset))
	}
	return buf.Bytes()
}

// JPEG encodes img and inserts f as an APP1 Exif segment after SOI.
func JPEG(img image.Image, f Fields) ([]byte, error) {
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	raw := enc.Bytes()

	payload := append([]byte("Exif\x00\x00"), TIFF(f)...)
	segLen := len(payload) + 2

	var out bytes.Buffer
	out.Write(raw[:2])
	out.Write([]byte{0xFF, 0xE1, byte(segLen >> 8), byte(segLen)})
	out.Write(payload)
	out.Write(raw[2:])
	return out.Bytes(), nil
}

// PNG encodes img and inserts f as an eXIf chunk after IHDR.
func PNG(img image.Image, f Fields) ([]byte, error) {
	var enc bytes.Buffer
	if err := png.Encode(&enc, img); err != nil {
		return nil, err
	}
	raw := enc.Bytes()
	const afterIHDR = 8 + 25

	data := TIFF(f)
	var chunk bytes.Buffer
	_ = binary.Write(&chunk, binary.BigEndian, uint32(len(data)))
	body := append([]byte("eXIf"), data...)
	chunk.Write(body)
	_ = binary.Write(&chunk, binary.BigEndian, crc32.ChecksumIEEE(body))

	var out bytes.Buffer
	out.Write(raw[:afterIHDR])
	out.Write(chunk.Bytes())
	out.Write(raw[afterIHDR:])
	return out.Bytes(), nil
}

// WriteJPEG writes a JPEG fixture to path.
func WriteJPEG(path string, img image.Image, f Fields) error {
	b, err := JPEG(img, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// WritePNG writes a PNG fixture to path.
func WritePNG(path string, img image.Image, f Fields) error {
	b, err := PNG(img, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
