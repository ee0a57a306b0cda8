// Package stl encodes triangle soups as binary STL.
//
// Layout: an 80-byte header, a little-endian uint32 triangle count, then one
// 50-byte record per triangle holding the facet normal, three vertices (all
// float32 triplets) and a zero uint16 attribute count.
package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chazu/ripples/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	HeaderSize = 80
	RecordSize = 50

	// HeaderText is written at the start of every generated file.
	HeaderText = "Rippling Water Surface"
)

// ErrShort is returned by ReadInfo when the buffer cannot hold the header
// and triangle count, or is shorter than the count implies.
var ErrShort = errors.New("stl: buffer too short")

// record is one facet as laid out on disk.
type record struct {
	N, V1, V2, V3 [3]float32
	_             uint16
}

// Size returns the encoded length of n triangles.
func Size(n int) int {
	return HeaderSize + 4 + RecordSize*n
}

// Normal returns the unit normal of t following the right-hand rule, or the
// zero vector for a degenerate triangle.
func Normal(t mesh.Triangle) v3.Vec {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	l := n.Length()
	if l == 0 || math.IsNaN(l) {
		return v3.Vec{}
	}
	return v3.Vec{X: n.X / l, Y: n.Y / l, Z: n.Z / l}
}

// Encode writes tris to w. header is truncated or zero padded to 80 bytes.
func Encode(w io.Writer, header string, tris []mesh.Triangle) error {
	var h [HeaderSize]byte
	copy(h[:], header)
	if _, err := w.Write(h[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tris))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, t := range tris {
		r := record{
			N:  f32(Normal(t)),
			V1: f32(t[0]),
			V2: f32(t[1]),
			V3: f32(t[2]),
		}
		if err := binary.Write(w, binary.LittleEndian, &r); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
	}
	return nil
}

// Marshal returns the binary STL encoding of tris.
func Marshal(header string, tris []mesh.Triangle) []byte {
	var buf bytes.Buffer
	buf.Grow(Size(len(tris)))
	// bytes.Buffer writes never fail.
	_ = Encode(&buf, header, tris)
	return buf.Bytes()
}

// Info is the decoded preamble of a binary STL buffer.
type Info struct {
	Header string // header text up to the first NUL
	Count  uint32
}

// ReadInfo decodes the header and triangle count of b and checks that b is
// long enough to hold Count records.
func ReadInfo(b []byte) (Info, error) {
	if len(b) < HeaderSize+4 {
		return Info{}, ErrShort
	}
	h := b[:HeaderSize]
	if i := bytes.IndexByte(h, 0); i >= 0 {
		h = h[:i]
	}
	info := Info{
		Header: string(h),
		Count:  binary.LittleEndian.Uint32(b[HeaderSize:]),
	}
	if len(b) < Size(int(info.Count)) {
		return info, fmt.Errorf("%w: %d bytes for %d triangles", ErrShort, len(b), info.Count)
	}
	return info, nil
}

func f32(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
