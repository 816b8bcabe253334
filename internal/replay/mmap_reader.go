package replay

import (
	"context"
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/mmap"
	tomb "gopkg.in/tomb.v2"

	"lobkernel/internal/codec"
	"lobkernel/internal/core"
)

// MmapReader reads binary records from a memory-mapped file at a tracked
// offset, with the same next-event semantics as a binary-format Reader,
// legacy bare-length records included. Each record's header and payload
// are copied out of the mapping with ReadAt before decoding; it does not
// hand out slices of the mapped region and has no seek operation. A tomb
// supervises the mapping's lifetime: the caller's ctx being canceled or
// Close being called both tear the mapping down through the same path.
type MmapReader struct {
	ra     *mmap.ReaderAt
	offset int64
	format Format
	table  *core.SymbolTable
	t      tomb.Tomb
}

// OpenMmap opens path as a memory-mapped binary-format reader.
func OpenMmap(ctx context.Context, path string, table *core.SymbolTable, predeclaredSymbols []string) (*MmapReader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: mmap open %s: %w", path, err)
	}
	for _, s := range predeclaredSymbols {
		if _, err := table.Intern(s); err != nil {
			ra.Close()
			return nil, err
		}
	}
	r := &MmapReader{ra: ra, format: FormatBinary, table: table}
	r.t.Go(func() error {
		select {
		case <-ctx.Done():
		case <-r.t.Dying():
		}
		return r.ra.Close()
	})
	return r, nil
}

// Close tears down the tomb and releases the mapping.
func (r *MmapReader) Close() error {
	r.t.Kill(nil)
	return r.t.Wait()
}

// Next returns the next event by slicing the mapped region, or ok=false
// once the offset reaches the end of the file.
func (r *MmapReader) Next() (core.MarketEvent, bool, error) {
	if r.offset >= int64(r.ra.Len()) {
		return core.MarketEvent{}, false, nil
	}

	remaining := int64(r.ra.Len()) - r.offset
	if remaining < codec.BinRecordHeaderLen {
		return core.MarketEvent{}, false, fmt.Errorf("%w: truncated record prefix", codec.ErrBinaryRecordTooShort)
	}

	header := make([]byte, codec.BinRecordHeaderLen)
	if _, err := r.ra.ReadAt(header, r.offset); err != nil {
		return core.MarketEvent{}, false, fmt.Errorf("replay: mmap read header: %w", err)
	}
	if !isMagic(header[0:4]) {
		// Legacy bare-length record: u32 LE payload length, no magic/version/CRC.
		payloadLen := binary.LittleEndian.Uint32(header[0:4])
		payload := make([]byte, payloadLen)
		if _, err := r.ra.ReadAt(payload, r.offset+4); err != nil {
			return core.MarketEvent{}, false, fmt.Errorf("replay: mmap read legacy payload: %w", err)
		}
		event, err := codec.DecodeEventJSONLine(string(payload), r.table)
		if err != nil {
			return core.MarketEvent{}, false, err
		}
		r.offset += 4 + int64(payloadLen)
		return event, true, nil
	}
	if header[4] != codec.BinRecordVersion {
		return core.MarketEvent{}, false, codec.ErrBinaryUnsupportedVer
	}
	declaredLen := binary.LittleEndian.Uint32(header[5:9])
	checksum := binary.LittleEndian.Uint32(header[9:13])

	payload := make([]byte, declaredLen)
	if _, err := r.ra.ReadAt(payload, r.offset+codec.BinRecordHeaderLen); err != nil {
		return core.MarketEvent{}, false, fmt.Errorf("replay: mmap read payload: %w", err)
	}

	event, err := codec.DecodeEventBinPayload(payload, checksum, r.table)
	if err != nil {
		return core.MarketEvent{}, false, err
	}
	r.offset += int64(codec.BinRecordHeaderLen) + int64(declaredLen)
	return event, true, nil
}
