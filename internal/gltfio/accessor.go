package gltfio

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/qmuntal/gltf"
)

var (
	// ErrUnsupportedAccessor is returned for accessor layouts the importer
	// cannot decode.
	ErrUnsupportedAccessor = errors.New("unsupported accessor")
	// ErrAccessorBounds is returned when an accessor reads past its buffer.
	ErrAccessorBounds = errors.New("accessor out of buffer bounds")
)

func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

func componentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentFloat, gltf.ComponentUint:
		return 4
	}
	return 0
}

// accessorView locates the bytes of an accessor. A nil data slice stands for
// an accessor without a buffer view, whose elements are all zero.
type accessorView struct {
	data       []byte
	start      int
	stride     int
	count      int
	components int
	size       int
}

func (v accessorView) at(elem, comp int) []byte {
	off := v.start + elem*v.stride + comp*v.size
	return v.data[off : off+v.size]
}

// bufferRange returns the bytes of a buffer view from offset to the end of
// the view.
func bufferRange(doc *gltf.Document, view, offset int) ([]byte, error) {
	if view < 0 || view >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d: %w", view, ErrAccessorBounds)
	}
	bv := doc.BufferViews[view]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d buffer %d: %w", view, bv.Buffer, ErrAccessorBounds)
	}
	data := doc.Buffers[bv.Buffer].Data
	end := len(data)
	if bv.ByteLength > 0 {
		end = bv.ByteOffset + bv.ByteLength
	}
	start := bv.ByteOffset + offset
	if start < 0 || start > end || end > len(data) {
		return nil, fmt.Errorf("buffer view %d: %w", view, ErrAccessorBounds)
	}
	return data[start:end], nil
}

func viewAccessor(doc *gltf.Document, index int, want gltf.AccessorType) (accessorView, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return accessorView{}, fmt.Errorf("accessor %d: %w", index, ErrAccessorBounds)
	}
	acc := doc.Accessors[index]
	if acc.Type != want {
		return accessorView{}, fmt.Errorf("%w: accessor %d is %v, want %v", ErrUnsupportedAccessor, index, acc.Type, want)
	}

	v := accessorView{
		count:      acc.Count,
		components: componentCount(acc.Type),
		size:       componentSize(acc.ComponentType),
	}
	if v.components == 0 || v.size == 0 {
		return accessorView{}, fmt.Errorf("%w: accessor %d %v/%v", ErrUnsupportedAccessor, index, acc.Type, acc.ComponentType)
	}
	elem := v.components * v.size
	v.stride = elem
	if acc.BufferView == nil {
		return v, nil
	}

	data, err := bufferRange(doc, *acc.BufferView, acc.ByteOffset)
	if err != nil {
		return accessorView{}, fmt.Errorf("accessor %d: %w", index, err)
	}
	v.data = data
	if s := doc.BufferViews[*acc.BufferView].ByteStride; s != 0 {
		v.stride = s
	}
	if v.count > 0 && (v.count-1)*v.stride+elem > len(v.data) {
		return accessorView{}, fmt.Errorf("accessor %d: %w", index, ErrAccessorBounds)
	}
	return v, nil
}

// sparseEntries returns the element indices replaced by an accessor's sparse
// section and a tightly packed view of their values. Dense accessors yield
// no indices.
func sparseEntries(doc *gltf.Document, index int, dense accessorView) ([]uint32, accessorView, error) {
	acc := doc.Accessors[index]
	sp := acc.Sparse
	if sp == nil || sp.Count == 0 {
		return nil, accessorView{}, nil
	}

	isize := componentSize(sp.Indices.ComponentType)
	idata, err := bufferRange(doc, sp.Indices.BufferView, sp.Indices.ByteOffset)
	if err != nil {
		return nil, accessorView{}, fmt.Errorf("accessor %d sparse indices: %w", index, err)
	}
	if isize == 0 || sp.Count*isize > len(idata) {
		return nil, accessorView{}, fmt.Errorf("accessor %d sparse indices: %w", index, ErrAccessorBounds)
	}
	indices := make([]uint32, sp.Count)
	for i := range indices {
		var ok bool
		indices[i], ok = decodeIndex(sp.Indices.ComponentType, idata[i*isize:(i+1)*isize])
		if !ok {
			return nil, accessorView{}, fmt.Errorf("%w: accessor %d sparse indices are %v", ErrUnsupportedAccessor, index, sp.Indices.ComponentType)
		}
		if int(indices[i]) >= dense.count {
			return nil, accessorView{}, fmt.Errorf("accessor %d sparse index %d: %w", index, indices[i], ErrAccessorBounds)
		}
	}

	vdata, err := bufferRange(doc, sp.Values.BufferView, sp.Values.ByteOffset)
	if err != nil {
		return nil, accessorView{}, fmt.Errorf("accessor %d sparse values: %w", index, err)
	}
	values := accessorView{
		data:       vdata,
		stride:     dense.components * dense.size,
		count:      sp.Count,
		components: dense.components,
		size:       dense.size,
	}
	if sp.Count*values.stride > len(vdata) {
		return nil, accessorView{}, fmt.Errorf("accessor %d sparse values: %w", index, ErrAccessorBounds)
	}
	return indices, values, nil
}

// readFloats reads a float accessor of the given type into a flat slice,
// applying its sparse substitutions. Normalized integer components are
// converted to [0, 1] or [-1, 1].
func readFloats(doc *gltf.Document, index int, want gltf.AccessorType) ([]float32, error) {
	v, err := viewAccessor(doc, index, want)
	if err != nil {
		return nil, err
	}
	acc := doc.Accessors[index]
	if acc.ComponentType != gltf.ComponentFloat && !acc.Normalized {
		return nil, fmt.Errorf("%w: accessor %d has non-normalized %v components", ErrUnsupportedAccessor, index, acc.ComponentType)
	}

	out := make([]float32, v.count*v.components)
	if v.data != nil {
		for i := range v.count {
			for c := range v.components {
				out[i*v.components+c] = decodeFloat(acc.ComponentType, v.at(i, c))
			}
		}
	}

	indices, values, err := sparseEntries(doc, index, v)
	if err != nil {
		return nil, err
	}
	for k, i := range indices {
		for c := range v.components {
			out[int(i)*v.components+c] = decodeFloat(acc.ComponentType, values.at(k, c))
		}
	}
	return out, nil
}

func decodeFloat(ct gltf.ComponentType, b []byte) float32 {
	switch ct {
	case gltf.ComponentUbyte:
		return float32(b[0]) / 255
	case gltf.ComponentByte:
		return max(float32(int8(b[0]))/127, -1)
	case gltf.ComponentUshort:
		return float32(binary.LittleEndian.Uint16(b)) / 65535
	case gltf.ComponentShort:
		return max(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1)
	default:
		return gomath.Float32frombits(binary.LittleEndian.Uint32(b))
	}
}

func decodeIndex(ct gltf.ComponentType, b []byte) (uint32, bool) {
	switch ct {
	case gltf.ComponentUbyte:
		return uint32(b[0]), true
	case gltf.ComponentUshort:
		return uint32(binary.LittleEndian.Uint16(b)), true
	case gltf.ComponentUint:
		return binary.LittleEndian.Uint32(b), true
	}
	return 0, false
}

// readIndices reads an unsigned scalar accessor, applying its sparse
// substitutions.
func readIndices(doc *gltf.Document, index int) ([]uint32, error) {
	v, err := viewAccessor(doc, index, gltf.AccessorScalar)
	if err != nil {
		return nil, err
	}

	ct := doc.Accessors[index].ComponentType
	if _, ok := decodeIndex(ct, make([]byte, 4)); !ok {
		return nil, fmt.Errorf("%w: index accessor %d has %v components", ErrUnsupportedAccessor, index, ct)
	}
	out := make([]uint32, v.count)
	if v.data != nil {
		for i := range out {
			out[i], _ = decodeIndex(ct, v.at(i, 0))
		}
	}

	indices, values, err := sparseEntries(doc, index, v)
	if err != nil {
		return nil, err
	}
	for k, i := range indices {
		out[i], _ = decodeIndex(ct, values.at(k, 0))
	}
	return out, nil
}
