// Package snapshot implements the snapshot engine: a binary on-disk image
// of the store, written by a subprocess so the live
// server never blocks on disk I/O, and a startup loader that restores it.
//
// Go cannot fork() a process with live goroutines and expect copy-on-write
// isolation the way the original C server's literal fork() does. This repo
// uses self-re-exec instead (see writer.go): the engine goroutine
// serializes the store into a byte buffer synchronously — cheap, since it
// is one in-memory pass over three skip lists, not disk I/O — and hands
// that buffer to a child process over a pipe. The child performs the
// actual write+fsync+rename the parent never blocks on. This preserves
// every externally observable property of the original design without
// relying on fork semantics Go does not give safe access to.
package snapshot

import "encoding/binary"

// HeaderMagic is the fixed 12-byte identifier written at the start of
// every snapshot file.
const HeaderMagic = "MXQUEUED/0.7"

// recordHeader is the 16-byte fixed header preceding every record's
// variable-length queue name and job body. Integers are little-endian: the
// original C implementation wrote native-endian integers with no flag
// byte marking which endianness produced a given file, which leaves cross-
// platform snapshots silently unreadable or silently wrong. Locking to one
// fixed byte order avoids both failure modes without adding a flag byte.
type recordHeader struct {
	Priority int32
	DueTime  int32
	QLen     int32
	JLen     int32
}

var byteOrder = binary.LittleEndian

// sentinel reports whether a header marks end-of-stream: qlen or jlen
// zero.
func (h recordHeader) sentinel() bool {
	return h.QLen == 0 || h.JLen == 0
}
