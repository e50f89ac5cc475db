// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"encoding/binary"
	"io"
)

// GLB header.
type glbHeader [3]uint32

// Indices in glbHeader.
const (
	headerMagic   = 0
	headerVersion = 1
	headerLength  = 2
)

// GLB chunk.
type glbChunk [2]uint32

// Indices in glbChunk.
const (
	chunkLength = 0
	chunkType   = 1
	// Then payload.
)

const (
	// glbHeader[headerMagic].
	magic = 0x46546c67

	// glbChunk[chunkType].
	typeJSON = 0x4e4f534a
	typeBIN  = 0x004e4942
)

// IsGLB returns whether r refers to a binary glTF (version 2).
// It assumes that r was positioned accordingly.
func IsGLB(r io.Reader) bool {
	var h glbHeader
	err := binary.Read(r, binary.LittleEndian, h[:])
	switch {
	case err != nil, h[headerMagic] != magic, h[headerVersion] != 2:
		return false
	default:
		return true
	}
}

// SeekJSON seeks into r until it finds the beginning
// of the JSON string.
// If successful, it returns the length of the chunk.
// r must refer to an unread GLB blob.
func SeekJSON(r io.Reader) (n int, err error) {
	if !IsGLB(r) {
		err = newErr("not a GLB blob")
		return
	}
	var c glbChunk
	err = binary.Read(r, binary.LittleEndian, c[:])
	switch {
	case err != nil:
	case c[chunkLength] == 0 || c[chunkType] != typeJSON:
		err = newErr("invalid GLB chunk")
	default:
		n = int(c[chunkLength])
	}
	return
}

// ReadGLB reads a whole GLB blob from r.
// It returns the JSON chunk and the BIN chunk, if present.
// r must refer to an unread GLB blob.
func ReadGLB(r io.Reader) (js, bin []byte, err error) {
	n, err := SeekJSON(r)
	if err != nil {
		return
	}
	if js, err = readChunk(r, int64(n)); err != nil {
		return nil, nil, newErr("truncated GLB JSON chunk")
	}
	var c glbChunk
	switch err = binary.Read(r, binary.LittleEndian, c[:]); {
	case err == io.EOF:
		return js, nil, nil
	case err != nil:
		return nil, nil, newErr("truncated GLB chunk header")
	case c[chunkType] != typeBIN:
		// Unknown chunks must be ignored, but BIN
		// is always the second chunk when present.
		return js, nil, nil
	}
	if bin, err = readChunk(r, int64(c[chunkLength])); err != nil {
		return nil, nil, newErr("truncated GLB BIN chunk")
	}
	return js, bin, nil
}

// readChunk reads n bytes from r. Memory grows with the
// data actually read, not with n.
func readChunk(r io.Reader, n int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// WriteGLB writes a GLB blob made of js and bin into w.
// bin may be empty, in which case no BIN chunk is written.
func WriteGLB(w io.Writer, js, bin []byte) error {
	pad := func(b []byte, c byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, c)
		}
		return b
	}
	js = pad(append([]byte(nil), js...), ' ')
	bin = pad(append([]byte(nil), bin...), 0)
	length := 12 + 8 + len(js)
	if len(bin) > 0 {
		length += 8 + len(bin)
	}
	h := glbHeader{magic, 2, uint32(length)}
	if err := binary.Write(w, binary.LittleEndian, h[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, glbChunk{uint32(len(js)), typeJSON}); err != nil {
		return err
	}
	if _, err := w.Write(js); err != nil {
		return err
	}
	if len(bin) == 0 {
		return nil
	}
	if err := binary.Write(w, binary.LittleEndian, glbChunk{uint32(len(bin)), typeBIN}); err != nil {
		return err
	}
	_, err := w.Write(bin)
	return err
}
