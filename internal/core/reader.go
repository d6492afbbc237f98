// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

// Reader stage: Decodes the raw byte source into a growable buffer of
// Unicode scalar values with a position cursor.
// The encoding is detected from a BOM sniff (UTF-8, UTF-16LE, UTF-16BE),
// defaulting to UTF-8. Malformed sequences, lone surrogates, values above
// U+10FFFF and control characters outside TAB/LF/CR (plus NEL/LS/PS line
// breaks) are rejected with the byte offset of the offending data.

package core

import "io"

const (
	inputRawBufferSize = 512
	// Large enough that a single cache request never needs two grow steps.
	inputBufferSize = inputRawBufferSize * 3
)

// ReadHandler supplies raw bytes from the input source. It fills the buffer
// with up to len(buffer) bytes and returns the count read; io.EOF signals the
// end of the source.
type ReadHandler func(buffer []byte) (n int, err error)

// reader owns the decoded-input buffer consumed by the scanner.
type reader struct {
	read ReadHandler

	raw     []byte // Undecoded bytes.
	rawPos  int    // The first undecoded byte.
	rawEOF  bool   // The source is exhausted.
	rawBase int    // Byte offset of raw[0] in the source.

	encoding   Encoding
	bomChecked bool

	buffer []rune // Decoded codepoints; buffer[pos:] are unread.
	pos    int
	mark   Mark

	err error
}

func newReaderBytes(input []byte) *reader {
	pos := 0
	return &reader{
		read: func(buffer []byte) (int, error) {
			if pos == len(input) {
				return 0, io.EOF
			}
			n := copy(buffer, input[pos:])
			pos += n
			return n, nil
		},
		raw:    make([]byte, 0, inputRawBufferSize),
		buffer: make([]rune, 0, inputBufferSize),
	}
}

func newReaderIO(r io.Reader) *reader {
	return &reader{
		read:   r.Read,
		raw:    make([]byte, 0, inputRawBufferSize),
		buffer: make([]rune, 0, inputBufferSize),
	}
}

// unread reports how many decoded codepoints are buffered and unconsumed.
func (r *reader) unread() int {
	return len(r.buffer) - r.pos
}

// peek returns the i-th unconsumed codepoint, or 0 past the end of input.
// The caller must have cached at least i+1 codepoints (or hit EOF).
func (r *reader) peek(i int) rune {
	if r.pos+i < len(r.buffer) {
		return r.buffer[r.pos+i]
	}
	return 0
}

// skip consumes one codepoint which must not be a line break.
func (r *reader) skip() {
	r.pos++
	r.mark.Index++
	r.mark.Column++
}

// skipBreak consumes one line break (CR LF counts as a single break).
func (r *reader) skipBreak() {
	if r.peek(0) == '\r' && r.peek(1) == '\n' {
		r.pos += 2
		r.mark.Index += 2
	} else {
		r.pos++
		r.mark.Index++
	}
	r.mark.Line++
	r.mark.Column = 0
}

// readBreak consumes one line break and appends its normalized form:
// CR LF, CR, LF and NEL become '\n'; LS and PS are kept verbatim.
func (r *reader) readBreak(s []rune) []rune {
	c := r.peek(0)
	if c == 0x2028 || c == 0x2029 {
		s = append(s, c)
	} else {
		s = append(s, '\n')
	}
	r.skipBreak()
	return s
}

// cache ensures at least n unconsumed codepoints are buffered, decoding more
// of the source as needed. At end of input fewer may remain; peek then
// returns 0 for positions past the end.
func (r *reader) cache(n int) error {
	if r.err != nil {
		return r.err
	}
	for r.unread() < n {
		if r.rawEOF && r.rawPos == len(r.raw) {
			return nil
		}
		if err := r.decodeMore(); err != nil {
			r.err = err
			return err
		}
	}
	return nil
}

// fill tops up the raw byte buffer from the source.
func (r *reader) fill() error {
	if r.rawEOF {
		return nil
	}
	// Compact the consumed prefix.
	if r.rawPos > 0 {
		r.rawBase += r.rawPos
		r.raw = r.raw[:copy(r.raw, r.raw[r.rawPos:])]
		r.rawPos = 0
	}
	chunk := make([]byte, inputRawBufferSize)
	n, err := r.read(chunk)
	r.raw = append(r.raw, chunk[:n]...)
	if err == io.EOF {
		r.rawEOF = true
		return nil
	}
	if err != nil {
		return ReaderError{Offset: r.rawBase + len(r.raw), Value: -1, Problem: err.Error()}
	}
	return nil
}

// sniffBOM determines the stream encoding from the first bytes.
func (r *reader) sniffBOM() error {
	for !r.rawEOF && len(r.raw) < 3 {
		if err := r.fill(); err != nil {
			return err
		}
	}
	r.bomChecked = true
	b := r.raw
	switch {
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		if r.encoding == ANY_ENCODING {
			r.encoding = UTF16LE_ENCODING
		}
		r.rawPos = 2
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		if r.encoding == ANY_ENCODING {
			r.encoding = UTF16BE_ENCODING
		}
		r.rawPos = 2
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		if r.encoding == ANY_ENCODING {
			r.encoding = UTF8_ENCODING
		}
		r.rawPos = 3
	default:
		if r.encoding == ANY_ENCODING {
			r.encoding = UTF8_ENCODING
		}
	}
	return nil
}

// decodeMore decodes at least one codepoint into the buffer, refilling the
// raw byte buffer from the source as needed.
func (r *reader) decodeMore() error {
	if !r.bomChecked {
		if err := r.sniffBOM(); err != nil {
			return err
		}
	}

	// Compact the decoded buffer once most of it has been consumed.
	if r.pos > cap(r.buffer)/2 {
		r.buffer = r.buffer[:copy(r.buffer, r.buffer[r.pos:])]
		r.pos = 0
	}

	decoded := false
	for !decoded {
		if r.rawPos == len(r.raw) {
			if r.rawEOF {
				return nil
			}
			if err := r.fill(); err != nil {
				return err
			}
			continue
		}
		var c rune
		var err error
		switch r.encoding {
		case UTF16LE_ENCODING, UTF16BE_ENCODING:
			c, err = r.decodeUTF16()
		default:
			c, err = r.decodeUTF8()
		}
		if err != nil {
			return err
		}
		if c < 0 {
			// Not enough bytes for a full sequence yet.
			if r.rawEOF {
				return ReaderError{
					Offset:  r.rawBase + r.rawPos,
					Value:   int(r.raw[r.rawPos]),
					Problem: "incomplete character sequence at end of stream",
				}
			}
			if err := r.fill(); err != nil {
				return err
			}
			continue
		}
		if err := r.checkPrintable(c); err != nil {
			return err
		}
		r.buffer = append(r.buffer, c)
		decoded = true
	}
	return nil
}

// utf8Width gives the sequence length for a leading byte, or 0 if invalid.
// Table per RFC 3629.
func utf8Width(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	}
	return 0
}

// decodeUTF8 decodes one codepoint, returning -1 if more raw bytes are
// needed to complete the sequence.
func (r *reader) decodeUTF8() (rune, error) {
	b := r.raw[r.rawPos:]
	offset := r.rawBase + r.rawPos
	w := utf8Width(b[0])
	if w == 0 {
		return 0, ReaderError{Offset: offset, Value: int(b[0]), Problem: "invalid leading UTF-8 octet"}
	}
	if len(b) < w {
		return -1, nil
	}
	c := rune(b[0] & (0xFF >> uint(w)))
	if w == 1 {
		c = rune(b[0])
	}
	for k := 1; k < w; k++ {
		if b[k]&0xC0 != 0x80 {
			return 0, ReaderError{Offset: offset + k, Value: int(b[k]), Problem: "invalid trailing UTF-8 octet"}
		}
		c = c<<6 | rune(b[k]&0x3F)
	}
	// Reject overlong encodings and forbidden values.
	switch {
	case w == 2 && c < 0x80, w == 3 && c < 0x800, w == 4 && c < 0x10000:
		return 0, ReaderError{Offset: offset, Value: int(c), Problem: "overlong UTF-8 sequence"}
	case c >= 0xD800 && c <= 0xDFFF:
		return 0, ReaderError{Offset: offset, Value: int(c), Problem: "surrogate value in UTF-8 stream"}
	case c > 0x10FFFF:
		return 0, ReaderError{Offset: offset, Value: int(c), Problem: "character value above U+10FFFF"}
	}
	r.rawPos += w
	return c, nil
}

// decodeUTF16 decodes one codepoint from a UTF-16 stream, returning -1 if
// more raw bytes are needed.
func (r *reader) decodeUTF16() (rune, error) {
	b := r.raw[r.rawPos:]
	offset := r.rawBase + r.rawPos
	if len(b) < 2 {
		return -1, nil
	}
	unit := func(i int) rune {
		if r.encoding == UTF16LE_ENCODING {
			return rune(b[i]) | rune(b[i+1])<<8
		}
		return rune(b[i])<<8 | rune(b[i+1])
	}
	c := unit(0)
	if c >= 0xDC00 && c <= 0xDFFF {
		return 0, ReaderError{Offset: offset, Value: int(c), Problem: "unexpected low surrogate"}
	}
	if c < 0xD800 || c > 0xDBFF {
		r.rawPos += 2
		return c, nil
	}
	// High surrogate: a low surrogate must follow.
	if len(b) < 4 {
		return -1, nil
	}
	low := unit(2)
	if low < 0xDC00 || low > 0xDFFF {
		return 0, ReaderError{Offset: offset + 2, Value: int(low), Problem: "expected low surrogate"}
	}
	r.rawPos += 4
	return 0x10000 + (c-0xD800)<<10 + (low - 0xDC00), nil
}

// checkPrintable rejects codepoints YAML 1.1 forbids in a character stream.
func (r *reader) checkPrintable(c rune) error {
	switch {
	case c == 0x09 || c == 0x0A || c == 0x0D || c == 0x85:
		return nil
	case c >= 0x20 && c <= 0x7E:
		return nil
	case c >= 0xA0 && c <= 0xD7FF:
		return nil
	case c >= 0xE000 && c <= 0xFFFD:
		return nil
	case c >= 0x10000 && c <= 0x10FFFF:
		return nil
	}
	return ReaderError{
		Offset:  r.rawBase + r.rawPos,
		Value:   int(c),
		Problem: "control characters are not allowed",
	}
}
