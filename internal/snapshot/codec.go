package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/corvusq/queued/internal/job"
	"github.com/corvusq/queued/internal/store"
)

// ErrBadHeader is returned by Decode when the leading 12 bytes of a
// snapshot file do not match HeaderMagic.
var ErrBadHeader = fmt.Errorf("invalid database file")

// Encode serializes records into the on-disk snapshot format: the header
// magic, one record per entry (priority, due_time, queue name, job body
// with no trailing CRLF), then a zero-valued sentinel record.
func Encode(w io.Writer, records []store.Record) error {
	if _, err := io.WriteString(w, HeaderMagic); err != nil {
		return err
	}

	for _, rec := range records {
		if err := writeRecord(w, rec); err != nil {
			return err
		}
	}

	return writeRecordHeader(w, recordHeader{})
}

func writeRecord(w io.Writer, rec store.Record) error {
	h := recordHeader{
		Priority: rec.Priority,
		DueTime:  int32(rec.DueTime),
		QLen:     int32(len(rec.Queue)),
		JLen:     rec.Job.Length,
	}
	if err := writeRecordHeader(w, h); err != nil {
		return err
	}
	if _, err := io.WriteString(w, rec.Queue); err != nil {
		return err
	}
	_, err := w.Write(rec.Job.Payload())
	return err
}

func writeRecordHeader(w io.Writer, h recordHeader) error {
	var buf [16]byte
	byteOrder.PutUint32(buf[0:4], uint32(h.Priority))
	byteOrder.PutUint32(buf[4:8], uint32(h.DueTime))
	byteOrder.PutUint32(buf[8:12], uint32(h.QLen))
	byteOrder.PutUint32(buf[12:16], uint32(h.JLen))
	_, err := w.Write(buf[:])
	return err
}

func readRecordHeader(r io.Reader) (recordHeader, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return recordHeader{}, err
	}
	return recordHeader{
		Priority: int32(byteOrder.Uint32(buf[0:4])),
		DueTime:  int32(byteOrder.Uint32(buf[4:8])),
		QLen:     int32(byteOrder.Uint32(buf[8:12])),
		JLen:     int32(byteOrder.Uint32(buf[12:16])),
	}, nil
}

// LoadedRecord is one entry read back from a snapshot file, ready to be
// applied to a Store via Store.Restore.
type LoadedRecord struct {
	Priority int32
	DueTime  int64
	Queue    string
	Job      *job.Job
}

// Decode reads a snapshot stream: the header magic, then records up to the
// sentinel.
func Decode(r io.Reader) ([]LoadedRecord, error) {
	magic := make([]byte, len(HeaderMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	if string(magic) != HeaderMagic {
		return nil, ErrBadHeader
	}

	var records []LoadedRecord
	for {
		h, err := readRecordHeader(r)
		if err != nil {
			return nil, fmt.Errorf("reading record header: %w", err)
		}
		if h.sentinel() {
			return records, nil
		}

		qname := make([]byte, h.QLen)
		if _, err := io.ReadFull(r, qname); err != nil {
			return nil, fmt.Errorf("reading queue name: %w", err)
		}

		body := make([]byte, h.JLen)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("reading job body: %w", err)
		}

		j := &job.Job{
			Priority: h.Priority,
			DueTime:  int64(h.DueTime),
			Queue:    string(qname),
			Length:   h.JLen,
			Body:     append(body, '\r', '\n'),
		}

		records = append(records, LoadedRecord{
			Priority: h.Priority,
			DueTime:  int64(h.DueTime),
			Queue:    string(qname),
			Job:      j,
		})
	}
}

// Serialize is a convenience wrapper returning Encode's output as a byte
// slice, used by the writer to hand a complete, self-contained buffer to
// the subprocess.
func Serialize(records []store.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
