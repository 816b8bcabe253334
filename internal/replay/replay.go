// Package replay streams MarketEvents from a file, in either text or
// binary framing, following the original source's replay/src/lib.rs
// single-pass reader shape. An optional memory-mapped variant reads binary
// records out of a mapped region instead of through a buffered file reader.
package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"lobkernel/internal/codec"
	"lobkernel/internal/core"
)

// Format selects which wire framing a Reader expects.
type Format int

const (
	FormatText Format = iota
	FormatBinary
)

// Reader is a lazy, finite, single-pass sequence of MarketEvents read from
// a file. It is not restartable — the underlying file position advances
// with every call to Next.
type Reader struct {
	file   *os.File
	buf    *bufio.Reader
	format Format
	table  *core.SymbolTable
}

// Open opens path for reading in the given format. Predeclared symbols
// are interned into the table in order before any event is read, so their
// SymbolIds are deterministic and match what the tape's producer assumed.
func Open(path string, format Format, table *core.SymbolTable, predeclaredSymbols []string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	for _, s := range predeclaredSymbols {
		if _, err := table.Intern(s); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &Reader{file: f, buf: bufio.NewReader(f), format: format, table: table}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next returns the next event, or ok=false at clean EOF. A truncated
// prefix or payload is a fatal error — the reader is left at an
// indeterminate position and must not be reused after an error.
func (r *Reader) Next() (core.MarketEvent, bool, error) {
	if r.format == FormatBinary {
		return r.nextBinary()
	}
	return r.nextText()
}

func (r *Reader) nextText() (core.MarketEvent, bool, error) {
	line, err := r.buf.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return core.MarketEvent{}, false, nil
			}
			// Last line without a trailing newline: decode it before EOF.
		} else {
			return core.MarketEvent{}, false, fmt.Errorf("replay: read line: %w", err)
		}
	}
	event, decErr := codec.DecodeEventJSONLine(line, r.table)
	if decErr != nil {
		return core.MarketEvent{}, false, decErr
	}
	return event, true, nil
}

func (r *Reader) nextBinary() (core.MarketEvent, bool, error) {
	header := make([]byte, codec.BinRecordHeaderLen)
	n, err := io.ReadFull(r.buf, header)
	if err != nil {
		if err == io.EOF && n == 0 {
			return core.MarketEvent{}, false, nil
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			// Fewer bytes remain than a full header: the record is truncated.
			// A legacy bare-length record is only recognised below, once a
			// full header's worth of bytes has been read.
			return core.MarketEvent{}, false, fmt.Errorf("%w: truncated record prefix", codec.ErrBinaryRecordTooShort)
		}
		return core.MarketEvent{}, false, fmt.Errorf("replay: read header: %w", err)
	}

	if !isMagic(header[0:4]) {
		// Legacy bare-length record: header[0:4] is a u32 LE payload length
		// with no magic/version/CRC; the remaining already-read header
		// bytes are the start of the payload.
		payloadLen := binary.LittleEndian.Uint32(header[0:4])
		payload := make([]byte, payloadLen)
		already := copy(payload, header[4:])
		if int(payloadLen) > already {
			if _, err := io.ReadFull(r.buf, payload[already:]); err != nil {
				return core.MarketEvent{}, false, fmt.Errorf("replay: read legacy payload: %w", err)
			}
		}
		event, err := codec.DecodeEventJSONLine(string(payload), r.table)
		if err != nil {
			return core.MarketEvent{}, false, err
		}
		return event, true, nil
	}

	if header[4] != codec.BinRecordVersion {
		return core.MarketEvent{}, false, codec.ErrBinaryUnsupportedVer
	}
	declaredLen := binary.LittleEndian.Uint32(header[5:9])
	checksum := binary.LittleEndian.Uint32(header[9:13])

	payload := make([]byte, declaredLen)
	if _, err := io.ReadFull(r.buf, payload); err != nil {
		return core.MarketEvent{}, false, fmt.Errorf("replay: read payload: %w", err)
	}

	event, err := codec.DecodeEventBinPayload(payload, checksum, r.table)
	if err != nil {
		return core.MarketEvent{}, false, err
	}
	return event, true, nil
}

func isMagic(b []byte) bool {
	return b[0] == codec.BinRecordMagic[0] && b[1] == codec.BinRecordMagic[1] &&
		b[2] == codec.BinRecordMagic[2] && b[3] == codec.BinRecordMagic[3]
}
