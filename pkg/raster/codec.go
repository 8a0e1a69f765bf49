package raster

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// Extension is the file extension of encoded rasters.
const Extension = ".fpr"

const (
	codecVersion uint16 = 1
	// chunkValues bounds how many values are read at once, so a header announcing more data than
	// the stream holds does not allocate it upfront.
	chunkValues = 1 << 14
)

var (
	magic = [4]byte{'F', 'P', 'R', 'S'}

	ErrBadMagic   = errors.New("not a raster file")
	ErrBadVersion = errors.New("unsupported raster file version")
	ErrTruncated  = errors.New("raster data is shorter than its header announces")
)

type header struct {
	Magic    [4]byte
	Version  uint16
	_        uint16
	X, Y, Z  uint32
	Channels uint32
}

// Encode writes r to w: a fixed header followed by the voxel data as little-endian float32.
func Encode(w io.Writer, r *Raster) error {
	if r == nil {
		return ErrNilRaster
	}

	bw := bufio.NewWriter(w)
	hdr := header{
		Magic:    magic,
		Version:  codecVersion,
		X:        uint32(r.size.X),
		Y:        uint32(r.size.Y),
		Z:        uint32(r.size.Z),
		Channels: uint32(r.channels),
	}

	err := binary.Write(bw, binary.LittleEndian, hdr)
	if err != nil {
		return errors.Wrap(err, "unable to write raster header")
	}

	err = binary.Write(bw, binary.LittleEndian, r.data)
	if err != nil {
		return errors.Wrap(err, "unable to write raster data")
	}

	return errors.Wrap(bw.Flush(), "unable to flush raster")
}

// Decode reads a raster written by Encode.
func Decode(rd io.Reader) (*Raster, error) {
	br := bufio.NewReader(rd)

	var hdr header

	err := binary.Read(br, binary.LittleEndian, &hdr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read raster header")
	}

	if hdr.Magic != magic {
		return nil, ErrBadMagic
	}

	if hdr.Version != codecVersion {
		return nil, errors.Wrapf(ErrBadVersion, "version %d", hdr.Version)
	}

	size := Size{X: int(hdr.X), Y: int(hdr.Y), Z: int(hdr.Z)}

	total, err := values(size, int(hdr.Channels))
	if err != nil {
		return nil, errors.Wrap(err, "invalid raster header")
	}

	data, err := readValues(br, total)
	if err != nil {
		return nil, err
	}

	return &Raster{data: data, size: size, channels: int(hdr.Channels)}, nil
}

// readValues reads total little-endian float32, chunk by chunk.
func readValues(rd io.Reader, total int) ([]float32, error) {
	data := make([]float32, 0, min(total, chunkValues))
	buf := make([]byte, 4*min(total, chunkValues))

	for len(data) < total {
		chunk := buf[:4*min(total-len(data), chunkValues)]

		_, err := io.ReadFull(rd, chunk)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.Wrapf(ErrTruncated, "expected %d values", total)
		}

		if err != nil {
			return nil, errors.Wrap(err, "unable to read raster data")
		}

		for i := 0; i < len(chunk); i += 4 {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(chunk[i:])))
		}
	}

	return data, nil
}

// WriteFile encodes r into the file at path, replacing it.
func WriteFile(path string, r *Raster) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}

	err = Encode(file, r)
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to encode %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}

// ReadFile decodes the raster stored at path.
func ReadFile(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", path)
	}
	defer file.Close()

	r, err := Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}

	return r, nil
}
