// Package pcd reads Point Cloud Data (PCD v0.7) files into interleaved
// pointcloud.SourceRecords.
//
// Supported encodings are DATA ascii and DATA binary. binary_compressed is
// rejected. Multi-byte values are little-endian in the resulting record,
// matching what PCL writes for DATA binary.
package pcd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/pc2draco/internal/geometry"
	"github.com/banshee-data/pc2draco/internal/pointcloud"
)

// Data encodings.
const (
	DataASCII            = "ascii"
	DataBinary           = "binary"
	DataBinaryCompressed = "binary_compressed"
)

const (
	maxHeaderLines = 64
	maxFieldCount  = 1 << 16
)

// MaxDataBytes caps the decoded point buffer. Headers that declare more are
// rejected before any data is read.
var MaxDataBytes int64 = 1 << 31

var (
	// ErrUnsupported is returned for well-formed files this reader cannot load.
	ErrUnsupported = errors.New("unsupported pcd feature")
	// ErrTooLarge is returned when the header declares more data than
	// MaxDataBytes allows.
	ErrTooLarge = errors.New("pcd data too large")
)

// Header is the parsed PCD header.
type Header struct {
	Version string
	Fields  []string
	Sizes   []int
	Types   []string
	Counts  []int
	Width   int
	Height  int
	Points  int
	Data    string
}

// dataType maps a (TYPE, SIZE) pair to an element type.
func dataType(typ string, size int) (geometry.DataType, error) {
	switch {
	case typ == "I" && size == 1:
		return geometry.DTInt8, nil
	case typ == "U" && size == 1:
		return geometry.DTUint8, nil
	case typ == "I" && size == 2:
		return geometry.DTInt16, nil
	case typ == "U" && size == 2:
		return geometry.DTUint16, nil
	case typ == "I" && size == 4:
		return geometry.DTInt32, nil
	case typ == "U" && size == 4:
		return geometry.DTUint32, nil
	case typ == "F" && size == 4:
		return geometry.DTFloat32, nil
	case typ == "F" && size == 8:
		return geometry.DTFloat64, nil
	}
	return geometry.DTInvalid, fmt.Errorf("%w: TYPE %s SIZE %d", pointcloud.ErrUnrecognizedElementType, typ, size)
}

// ReadFile decodes the PCD file at path.
func ReadFile(path string) (*pointcloud.SourceRecord, *Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	rec, h, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, h, nil
}

// Decode reads one PCD document from r.
func Decode(r io.Reader) (*pointcloud.SourceRecord, *Header, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, nil, err
	}

	rec := &pointcloud.SourceRecord{
		Height: h.Height,
		Width:  h.Width,
	}
	offset := 0
	for i, name := range h.Fields {
		dt, err := dataType(h.Types[i], h.Sizes[i])
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec.Fields = append(rec.Fields, pointcloud.FieldDescriptor{
			Name:     name,
			Offset:   offset,
			Datatype: dt,
			Count:    h.Counts[i],
		})
		offset += h.Sizes[i] * h.Counts[i]
	}
	rec.PointStep = offset

	hi, size := bits.Mul64(uint64(h.Points), uint64(rec.PointStep))
	if hi != 0 || size > uint64(MaxDataBytes) {
		return nil, nil, fmt.Errorf("%w: %d points of %d bytes (max %d bytes)",
			ErrTooLarge, h.Points, rec.PointStep, MaxDataBytes)
	}

	switch h.Data {
	case DataBinary:
		// size is an upper bound; the buffer only grows with bytes actually read.
		rec.Data, err = io.ReadAll(io.LimitReader(br, int64(size)))
		if err == nil && uint64(len(rec.Data)) < size {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read binary data (%d points): %w", h.Points, err)
		}
	case DataASCII:
		rec.Data, err = readASCII(br, h, rec.Fields, rec.PointStep)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("%w: DATA %s", ErrUnsupported, h.Data)
	}
	debugf("decoded %d points, %d fields, stride %d (%s)", h.Points, len(h.Fields), rec.PointStep, h.Data)
	return rec, h, nil
}

func readHeader(br *bufio.Reader) (*Header, error) {
	h := &Header{Height: 1}
	for n := 0; n < maxHeaderLines; n++ {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tok := strings.Fields(line)
		key, vals := strings.ToUpper(tok[0]), tok[1:]
		switch key {
		case "VERSION":
			if len(vals) > 0 {
				h.Version = vals[0]
			}
		case "FIELDS":
			h.Fields = vals
		case "SIZE":
			if h.Sizes, err = atoiAll(key, vals); err != nil {
				return nil, err
			}
		case "TYPE":
			h.Types = vals
		case "COUNT":
			if h.Counts, err = atoiAll(key, vals); err != nil {
				return nil, err
			}
		case "WIDTH":
			if h.Width, err = atoiOne(key, vals); err != nil {
				return nil, err
			}
		case "HEIGHT":
			if h.Height, err = atoiOne(key, vals); err != nil {
				return nil, err
			}
		case "POINTS":
			if h.Points, err = atoiOne(key, vals); err != nil {
				return nil, err
			}
		case "VIEWPOINT":
		case "DATA":
			if len(vals) != 1 {
				return nil, fmt.Errorf("malformed DATA line %q", line)
			}
			h.Data = strings.ToLower(vals[0])
			return h, h.validate()
		default:
			return nil, fmt.Errorf("unknown header key %q", tok[0])
		}
	}
	return nil, fmt.Errorf("no DATA line within %d header lines", maxHeaderLines)
}

func (h *Header) validate() error {
	if len(h.Fields) == 0 {
		return errors.New("header has no FIELDS")
	}
	if h.Counts == nil {
		h.Counts = make([]int, len(h.Fields))
		for i := range h.Counts {
			h.Counts[i] = 1
		}
	}
	if len(h.Sizes) != len(h.Fields) || len(h.Types) != len(h.Fields) || len(h.Counts) != len(h.Fields) {
		return fmt.Errorf("header has %d FIELDS but %d SIZE, %d TYPE, %d COUNT entries",
			len(h.Fields), len(h.Sizes), len(h.Types), len(h.Counts))
	}
	for i, c := range h.Counts {
		if c < 1 || c > maxFieldCount {
			return fmt.Errorf("field %q: COUNT %d", h.Fields[i], c)
		}
	}
	if h.Width < 0 || h.Height < 0 {
		return fmt.Errorf("negative WIDTH/HEIGHT %d/%d", h.Width, h.Height)
	}
	hi, wh := bits.Mul64(uint64(h.Width), uint64(h.Height))
	if hi != 0 || wh > math.MaxInt {
		return fmt.Errorf("%w: WIDTH*HEIGHT %d*%d overflows", ErrTooLarge, h.Width, h.Height)
	}
	if h.Points == 0 {
		h.Points = int(wh)
	}
	if h.Points != int(wh) {
		return fmt.Errorf("POINTS %d != WIDTH*HEIGHT %d", h.Points, wh)
	}
	return nil
}

func atoiOne(key string, vals []string) (int, error) {
	if len(vals) != 1 {
		return 0, fmt.Errorf("%s expects one value, got %d", key, len(vals))
	}
	v, err := strconv.Atoi(vals[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func atoiAll(key string, vals []string) ([]int, error) {
	out := make([]int, len(vals))
	for i, s := range vals {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[i] = v
	}
	return out, nil
}

// readASCII parses one whitespace-separated line per point.
func readASCII(br *bufio.Reader, h *Header, fields []pointcloud.FieldDescriptor, stride int) ([]byte, error) {
	var data []byte
	row := make([]byte, stride)
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	point := 0
	for point < h.Points && sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tok := strings.Fields(line)
		base := len(data)
		data = append(data, row...)
		t := 0
		for _, f := range fields {
			w := f.Datatype.Width()
			for c := 0; c < f.Count; c++ {
				if t >= len(tok) {
					return nil, fmt.Errorf("point %d: expected more values for field %q", point, f.Name)
				}
				dst := data[base+f.Offset+c*w:]
				if err := putASCII(dst, f.Datatype, tok[t]); err != nil {
					return nil, fmt.Errorf("point %d field %q: %w", point, f.Name, err)
				}
				t++
			}
		}
		if t != len(tok) {
			return nil, fmt.Errorf("point %d: %d values, want %d", point, len(tok), t)
		}
		point++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ascii data: %w", err)
	}
	if point != h.Points {
		return nil, fmt.Errorf("ascii data has %d points, header says %d", point, h.Points)
	}
	return data, nil
}

func putASCII(dst []byte, dt geometry.DataType, s string) error {
	switch dt {
	case geometry.DTInt8, geometry.DTInt16, geometry.DTInt32:
		v, err := strconv.ParseInt(s, 10, dt.Width()*8)
		if err != nil {
			return err
		}
		putUint(dst, dt.Width(), uint64(v))
	case geometry.DTUint8, geometry.DTUint16, geometry.DTUint32:
		v, err := strconv.ParseUint(s, 10, dt.Width()*8)
		if err != nil {
			return err
		}
		putUint(dst, dt.Width(), v)
	case geometry.DTFloat32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case geometry.DTFloat64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	default:
		return fmt.Errorf("%w: %s", pointcloud.ErrUnrecognizedElementType, dt)
	}
	return nil
}

func putUint(dst []byte, width int, v uint64) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	}
}
