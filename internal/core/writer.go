// Copyright 2006-2010 Kirill Simonov
// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0 AND MIT

package core

import "io"

const writerBufferSize = 65536

// writer buffers emitter output and hands it to the destination in large
// chunks. Write failures are sticky: once the destination errors, every
// later call reports the same WriterError.
type writer struct {
	out io.Writer
	buf []byte
	err error
}

func newWriter(out io.Writer) *writer {
	return &writer{
		out: out,
		buf: make([]byte, 0, writerBufferSize),
	}
}

func (w *writer) WriteByte(c byte) error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) == cap(w.buf) {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	w.buf = append(w.buf, c)
	return nil
}

func (w *writer) WriteString(s string) error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf)+len(s) > cap(w.buf) {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	w.buf = append(w.buf, s...)
	return nil
}

func (w *writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.out.Write(w.buf); err != nil {
		w.err = WriterError{Err: err}
		return w.err
	}
	w.buf = w.buf[:0]
	return nil
}
