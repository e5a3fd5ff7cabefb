package saffire

import (
	"testing"
	"time"

	"github.com/herlein/fwctl/pkg/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// TestSerializeRouteScenarioS1 reproduces spec.md §8 scenario S1: source
// channel 1 (first analog input) routed to stream channel 0 encodes as
// (0x80<<12)|0x400.
func TestSerializeRouteScenarioS1(t *testing.T) {
	assert.Equal(t, uint32(0x00080400), serializeRoute(1, blkStream+0))
}

func TestLowRateFrameHeaderAndLength(t *testing.T) {
	var r D3Routing
	for i := range r.OutSrc {
		r.OutSrc[i] = uint32(i + 1)
	}
	frame := lowRateFrame(r)
	require.Len(t, frame, 316)
	assert.Equal(t, []byte{0x80, 0x00, 0x30, 0x02}, frame[0:4])
	assert.Equal(t, uint32(0x00080400), be32(frame[20:24]))
}

func TestHighRateFrameHeaderAndLength(t *testing.T) {
	var r D3Routing
	frame := highRateFrame(r)
	require.Len(t, frame, 284)
	assert.Equal(t, []byte{0x80, 0x00, 0x30, 0x02}, frame[0:4])
	assert.Equal(t, byte(1), frame[17])
}

// TestSetRoutingWritesBothTables confirms the atomicity decision: both
// the low-rate and high-rate tables are written on every SetRouting
// call, regardless of the device's current sample rate.
func TestSetRoutingWritesBothTables(t *testing.T) {
	mem := transaction.NewMemTransactor()
	d := &D3{T: mem, WriteAddress: 0x1000, ReadAddress: 0x2000, Timeout: time.Second}

	var r D3Routing
	for i := range r.OutSrc {
		r.OutSrc[i] = uint32(i + 1)
	}
	require.NoError(t, d.SetRouting(r))

	writes := 0
	for _, tr := range mem.Transactions {
		if tr.Write {
			writes++
		}
	}
	assert.Equal(t, 2, writes)
}

// TestDiscoverCommandEndpointDerivesReadFromWrite confirms the read
// register sits one quadlet past the write register named by the
// bootstrap base-address pair.
func TestDiscoverCommandEndpointDerivesReadFromWrite(t *testing.T) {
	mem := transaction.NewMemTransactor()
	mem.Seed(bootstrapAddress, []byte{0x00, 0x00, 0xff, 0xff, 0xe0, 0x01, 0x00, 0x00})
	h := transaction.Handle{NodeID: 1}

	writeAddress, readAddress, err := DiscoverCommandEndpoint(mem, h, time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0000ffffe0010000), writeAddress)
	assert.Equal(t, writeAddress+4, readAddress)
}

func TestNewD3WiresDiscoveredEndpoint(t *testing.T) {
	mem := transaction.NewMemTransactor()
	mem.Seed(bootstrapAddress, []byte{0x00, 0x00, 0xff, 0xff, 0xe0, 0x01, 0x00, 0x00})
	h := transaction.Handle{NodeID: 1}

	d, err := NewD3(mem, h, time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0000ffffe0010000), d.WriteAddress)
	assert.Equal(t, uint64(0x0000ffffe0010004), d.ReadAddress)
}

// TestSetRoutingResetsAndRetriesOnNonzeroStatus mirrors the MOTU-style
// reset-then-retry contract this codec borrows for Saffire: a nonzero
// status quadlet triggers a 16-byte reset frame followed by one retry.
func TestSetRoutingResetsAndRetriesOnNonzeroStatus(t *testing.T) {
	mem := transaction.NewMemTransactor()
	mem.Seed(0x2000, []byte{0x00, 0x00, 0x00, 0x01})
	d := &D3{T: mem, WriteAddress: 0x1000, ReadAddress: 0x2000, Timeout: time.Second}

	var r D3Routing
	err := d.SetRouting(r)
	require.NoError(t, err)

	writeCount := 0
	for _, tr := range mem.Transactions {
		if tr.Write && tr.Address == 0x1000 {
			writeCount++
		}
	}
	// low-rate: initial write + reset + retry; high-rate: same pattern.
	assert.Equal(t, 6, writeCount)
}
