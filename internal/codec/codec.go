// Package codec implements the two wire formats for MarketEvent: a
// line-delimited text format and a length-framed binary format with
// magic, version, and CRC32, translated from the original source's
// codec/src/lib.rs into idiomatic Go encoding/json and encoding/binary.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	"lobkernel/internal/core"
)

// Errors returned by the codec, surfaced to the replay reader and then to
// the caller. None of these are panics — malformed input is always data,
// never a programming error.
var (
	ErrEmptyLine               = errors.New("codec: empty line")
	ErrUnknownSymbolId         = errors.New("codec: unknown symbol id")
	ErrBinaryRecordTooShort    = errors.New("codec: binary record too short")
	ErrBinaryMagicMismatch     = errors.New("codec: binary magic mismatch")
	ErrBinaryUnsupportedVer    = errors.New("codec: unsupported binary version")
	ErrBinaryLengthMismatch    = errors.New("codec: binary length mismatch")
	ErrBinaryChecksumMismatch  = errors.New("codec: binary checksum mismatch")
	ErrBinaryLengthOverflow    = errors.New("codec: binary length overflow")
)

// BinRecordMagic is the 4-byte ASCII magic that opens every binary record.
var BinRecordMagic = [4]byte{'L', 'O', 'B', '2'}

// BinRecordVersion is the only binary record version this codec writes.
const BinRecordVersion uint8 = 1

// BinRecordHeaderLen is the fixed header size: magic(4) + version(1) +
// payload_len(4) + crc32(4).
const BinRecordHeaderLen = 13

// jsonLevelUpdate mirrors the text envelope's per-update fields.
type jsonLevelUpdate struct {
	Side  string `json:"side"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

type jsonPriceQty [2]int64

type jsonEventData struct {
	TsNs    uint64            `json:"ts_ns"`
	Symbol  string            `json:"symbol"`
	Updates []jsonLevelUpdate `json:"updates,omitempty"`
	Bids    []jsonPriceQty    `json:"bids,omitempty"`
	Asks    []jsonPriceQty    `json:"asks,omitempty"`
}

type jsonEnvelope struct {
	Type string        `json:"type"`
	Data jsonEventData `json:"data"`
}

// EncodeEventJSONLine renders event as a single JSON line (no trailing
// newline), resolving its SymbolId to text via table.
func EncodeEventJSONLine(event core.MarketEvent, table *core.SymbolTable) (string, error) {
	text, ok := table.TryResolve(event.Symbol)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownSymbolId, event.Symbol)
	}

	env := jsonEnvelope{Data: jsonEventData{TsNs: event.TsNs, Symbol: text}}
	switch event.Kind {
	case core.KindL2Delta:
		env.Type = "l2_delta"
		env.Data.Updates = make([]jsonLevelUpdate, len(event.Updates))
		for i, u := range event.Updates {
			env.Data.Updates[i] = jsonLevelUpdate{Side: u.Side.String(), Price: u.Price.Ticks(), Qty: u.Qty.Lots()}
		}
	case core.KindL2Snapshot:
		env.Type = "l2_snapshot"
		env.Data.Bids = toJSONPairs(event.Bids)
		env.Data.Asks = toJSONPairs(event.Asks)
	default:
		return "", fmt.Errorf("codec: unknown event kind %d", event.Kind)
	}

	out, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("codec: marshal json line: %w", err)
	}
	return string(out), nil
}

func toJSONPairs(levels []core.PriceQty) []jsonPriceQty {
	out := make([]jsonPriceQty, len(levels))
	for i, l := range levels {
		out[i] = jsonPriceQty{l.Price.Ticks(), l.Qty.Lots()}
	}
	return out
}

// DecodeEventJSONLine parses a single text line into a MarketEvent,
// interning its symbol text into table (extending the table as needed).
func DecodeEventJSONLine(line string, table *core.SymbolTable) (core.MarketEvent, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	if trimmed == "" {
		return core.MarketEvent{}, ErrEmptyLine
	}

	var env jsonEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return core.MarketEvent{}, fmt.Errorf("codec: decode json line: %w", err)
	}

	symbolID, err := table.Intern(env.Data.Symbol)
	if err != nil {
		return core.MarketEvent{}, err
	}

	switch env.Type {
	case "l2_delta":
		updates := make([]core.LevelUpdate, len(env.Data.Updates))
		for i, u := range env.Data.Updates {
			side, err := core.ParseSide(u.Side)
			if err != nil {
				return core.MarketEvent{}, err
			}
			price, err := core.NewPrice(u.Price)
			if err != nil {
				return core.MarketEvent{}, err
			}
			qty, err := core.NewQty(u.Qty)
			if err != nil {
				return core.MarketEvent{}, err
			}
			updates[i] = core.LevelUpdate{Side: side, Price: price, Qty: qty}
		}
		return core.NewL2Delta(env.Data.TsNs, symbolID, updates), nil

	case "l2_snapshot":
		bids, err := fromJSONPairs(env.Data.Bids)
		if err != nil {
			return core.MarketEvent{}, err
		}
		asks, err := fromJSONPairs(env.Data.Asks)
		if err != nil {
			return core.MarketEvent{}, err
		}
		return core.NewL2Snapshot(env.Data.TsNs, symbolID, bids, asks), nil

	default:
		return core.MarketEvent{}, fmt.Errorf("codec: unknown event type %q", env.Type)
	}
}

func fromJSONPairs(pairs []jsonPriceQty) ([]core.PriceQty, error) {
	out := make([]core.PriceQty, len(pairs))
	for i, pq := range pairs {
		price, err := core.NewPrice(pq[0])
		if err != nil {
			return nil, err
		}
		qty, err := core.NewQty(pq[1])
		if err != nil {
			return nil, err
		}
		out[i] = core.PriceQty{Price: price, Qty: qty}
	}
	return out, nil
}

// EncodeEventBinRecord builds a full binary record: header + payload. The
// payload uses the same JSON schema as the text format for simplicity and
// auditability; only the record framing is binary.
func EncodeEventBinRecord(event core.MarketEvent, table *core.SymbolTable) ([]byte, error) {
	line, err := EncodeEventJSONLine(event, table)
	if err != nil {
		return nil, err
	}
	payload := []byte(line)
	if len(payload) > 0xFFFFFFFF {
		return nil, ErrBinaryLengthOverflow
	}

	buf := make([]byte, BinRecordHeaderLen+len(payload))
	copy(buf[0:4], BinRecordMagic[:])
	buf[4] = BinRecordVersion
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[9:13], crc32.ChecksumIEEE(payload))
	copy(buf[BinRecordHeaderLen:], payload)
	return buf, nil
}

// DecodeEventBinHeader validates magic, then version, then declared
// length against the actual remaining bytes, in that exact order, and
// returns the payload length and expected checksum.
func DecodeEventBinHeader(header []byte, remaining int) (payloadLen int, checksum uint32, err error) {
	if len(header) < BinRecordHeaderLen {
		return 0, 0, ErrBinaryRecordTooShort
	}
	if !bytes.Equal(header[0:4], BinRecordMagic[:]) {
		return 0, 0, ErrBinaryMagicMismatch
	}
	if header[4] != BinRecordVersion {
		return 0, 0, ErrBinaryUnsupportedVer
	}
	length := binary.LittleEndian.Uint32(header[5:9])
	if int(length) != remaining {
		return 0, 0, fmt.Errorf("%w: expected %d got %d", ErrBinaryLengthMismatch, length, remaining)
	}
	crc := binary.LittleEndian.Uint32(header[9:13])
	return int(length), crc, nil
}

// DecodeEventBinPayload validates payload against checksum and decodes it
// as a JSON line payload.
func DecodeEventBinPayload(payload []byte, checksum uint32, table *core.SymbolTable) (core.MarketEvent, error) {
	actual := crc32.ChecksumIEEE(payload)
	if actual != checksum {
		return core.MarketEvent{}, fmt.Errorf("%w: expected %x got %x", ErrBinaryChecksumMismatch, checksum, actual)
	}
	return DecodeEventJSONLine(string(payload), table)
}

// DecodeEventBinRecord decodes a full in-memory record (header + payload).
func DecodeEventBinRecord(record []byte, table *core.SymbolTable) (core.MarketEvent, error) {
	if len(record) < BinRecordHeaderLen {
		return core.MarketEvent{}, ErrBinaryRecordTooShort
	}
	payload := record[BinRecordHeaderLen:]
	payloadLen, checksum, err := DecodeEventBinHeader(record[:BinRecordHeaderLen], len(payload))
	if err != nil {
		return core.MarketEvent{}, err
	}
	return DecodeEventBinPayload(payload[:payloadLen], checksum, table)
}
