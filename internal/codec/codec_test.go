package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobkernel/internal/core"
)

func sampleDelta(t *testing.T, table *core.SymbolTable) core.MarketEvent {
	t.Helper()
	sym, err := table.Intern("BTC-USD")
	require.NoError(t, err)
	price, _ := core.NewPrice(100)
	qty, _ := core.NewQty(5)
	return core.NewL2Delta(42, sym, []core.LevelUpdate{{Side: core.Bid, Price: price, Qty: qty}})
}

func sampleSnapshot(t *testing.T, table *core.SymbolTable) core.MarketEvent {
	t.Helper()
	sym, err := table.Intern("BTC-USD")
	require.NoError(t, err)
	bidPrice, _ := core.NewPrice(100)
	bidQty, _ := core.NewQty(1)
	askPrice, _ := core.NewPrice(101)
	askQty, _ := core.NewQty(2)
	return core.NewL2Snapshot(7, sym, []core.PriceQty{{Price: bidPrice, Qty: bidQty}}, []core.PriceQty{{Price: askPrice, Qty: askQty}})
}

func TestRoundTripJSONLineDelta(t *testing.T) {
	table := core.NewSymbolTable()
	event := sampleDelta(t, table)

	line, err := EncodeEventJSONLine(event, table)
	require.NoError(t, err)

	decodeTable := core.NewSymbolTable()
	decoded, err := DecodeEventJSONLine(line, decodeTable)
	require.NoError(t, err)
	assert.Equal(t, event.TsNs, decoded.TsNs)
	assert.Equal(t, event.Updates, decoded.Updates)
}

func TestRoundTripJSONLineSnapshot(t *testing.T) {
	table := core.NewSymbolTable()
	event := sampleSnapshot(t, table)

	line, err := EncodeEventJSONLine(event, table)
	require.NoError(t, err)

	decodeTable := core.NewSymbolTable()
	decoded, err := DecodeEventJSONLine(line, decodeTable)
	require.NoError(t, err)
	assert.Equal(t, event.Bids, decoded.Bids)
	assert.Equal(t, event.Asks, decoded.Asks)
}

func TestInvalidLineReturnsError(t *testing.T) {
	table := core.NewSymbolTable()
	_, err := DecodeEventJSONLine("", table)
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = DecodeEventJSONLine("not json", table)
	assert.Error(t, err)
}

func TestRoundTripBinRecordWithHeaderAndCRC(t *testing.T) {
	table := core.NewSymbolTable()
	event := sampleDelta(t, table)

	record, err := EncodeEventBinRecord(event, table)
	require.NoError(t, err)
	assert.Equal(t, byte('L'), record[0])
	assert.Equal(t, byte('O'), record[1])
	assert.Equal(t, byte('B'), record[2])
	assert.Equal(t, byte('2'), record[3])
	assert.Equal(t, BinRecordVersion, record[4])

	decodeTable := core.NewSymbolTable()
	decoded, err := DecodeEventBinRecord(record, decodeTable)
	require.NoError(t, err)
	assert.Equal(t, event.TsNs, decoded.TsNs)
}

func TestBinRecordCRCMismatchIsRejected(t *testing.T) {
	table := core.NewSymbolTable()
	event := sampleDelta(t, table)

	record, err := EncodeEventBinRecord(event, table)
	require.NoError(t, err)

	// Flip a byte in the payload.
	record[BinRecordHeaderLen] ^= 0xFF

	decodeTable := core.NewSymbolTable()
	_, err = DecodeEventBinRecord(record, decodeTable)
	assert.ErrorIs(t, err, ErrBinaryChecksumMismatch)
}

func TestBinRecordMagicAndVersionChecks(t *testing.T) {
	table := core.NewSymbolTable()
	event := sampleDelta(t, table)
	record, err := EncodeEventBinRecord(event, table)
	require.NoError(t, err)

	bad := append([]byte(nil), record...)
	bad[0] = 'X'
	_, err = DecodeEventBinRecord(bad, core.NewSymbolTable())
	assert.ErrorIs(t, err, ErrBinaryMagicMismatch)

	bad2 := append([]byte(nil), record...)
	bad2[4] = 9
	_, err = DecodeEventBinRecord(bad2, core.NewSymbolTable())
	assert.ErrorIs(t, err, ErrBinaryUnsupportedVer)
}
