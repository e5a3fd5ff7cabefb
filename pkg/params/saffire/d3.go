package saffire

import (
	"fmt"
	"time"

	"github.com/herlein/fwctl/pkg/transaction"
)

// Source block offsets used by serializeRoute, matching the register
// map baked into the Pro 40 D3's router command frame
// (libs/dice/protocols/src/focusrite/spro40d3.rs).
const (
	blkNone   uint32 = 0
	blkAnalog uint32 = 0x80
	blkSpdif  uint32 = 0x180
	blkAdat   uint32 = 0x200
	blkMixer  uint32 = 0x300
	blkStream uint32 = 0x400
)

// D3Routing holds the three source lists an owner sets when wiring the
// Pro 40 D3's router: 22 output sources, 18 mixer-input sources, and 2
// master-meter sources. Source ids use the device's 1-based channel
// numbering (0 means "no source").
type D3Routing struct {
	OutSrc   [22]uint32
	MixerSrc [18]uint32
	MeterSrc [2]uint32
}

// serializeRoute packs a (from, to) pair into the device's 32-bit
// routing word: the upper bits select the source block+channel, the
// lower 12 bits name the destination. Channel ranges below follow the
// Pro 40 D3's fixed block layout:
// 1-8 analog, 9-10 S/PDIF, 11-18 ADAT, 19-38 stream, 39+ mixer.
func serializeRoute(from, to uint32) uint32 {
	var source uint32
	switch {
	case from < 1:
		source = blkNone
	case from < 9:
		source = blkAnalog + from - 1
	case from < 11:
		source = blkSpdif + from - 9
	case from < 19:
		source = blkAdat + from - 11
	case from < 39:
		source = blkStream + from - 19
	default:
		source = blkMixer + from - 39
	}
	return (source << 12) | to
}

func putRoute(buf []byte, from, to uint32) {
	v := serializeRoute(from, to)
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

// routingHeader is the fixed command header every routing frame opens
// with, regardless of rate table.
var routingHeader = [4]byte{0x80, 0x00, 0x30, 0x02}

// lowRateFrame builds the 316-byte routing frame for the 44.1/48kHz
// table (8 ADAT channels).
func lowRateFrame(r D3Routing) []byte {
	frame := make([]byte, 316)
	copy(frame[0:4], routingHeader[:])

	for i := 0; i < 18; i++ {
		putRoute(frame[20+i*4:], uint32(1+i), blkStream+uint32(i))
	}

	for i := 0; i < 5; i++ {
		putRoute(frame[92+i*8:], r.OutSrc[i*2], blkAnalog+8-uint32(i)*2)
		putRoute(frame[96+i*8:], r.OutSrc[1+i*2], blkAnalog+9-uint32(i)*2)
	}
	putRoute(frame[132:], r.OutSrc[10], blkSpdif)
	putRoute(frame[136:], r.OutSrc[11], blkSpdif+1)

	for i := 0; i < 8; i++ {
		putRoute(frame[140+i*4:], r.OutSrc[12+i], blkAdat+uint32(i))
	}
	putRoute(frame[172:], r.OutSrc[20], blkStream+18)
	putRoute(frame[176:], r.OutSrc[21], blkStream+19)

	for i := 0; i < 8; i++ {
		putRoute(frame[180+i*4:], r.MixerSrc[i], blkMixer+uint32(i))
	}
	for i := 0; i < 8; i++ {
		putRoute(frame[212+i*4:], r.MixerSrc[8+i], blkMixer+8+uint32(i))
	}
	putRoute(frame[244:], r.MixerSrc[16], blkMixer+16)
	putRoute(frame[248:], r.MixerSrc[17], blkMixer+17)

	putRoute(frame[252:], r.MeterSrc[0], 0x0)
	putRoute(frame[256:], r.MeterSrc[1], 0x0)

	return frame
}

// highRateFrame builds the 284-byte routing frame for the 88.2/96kHz
// table (4 ADAT channels).
func highRateFrame(r D3Routing) []byte {
	frame := make([]byte, 284)
	copy(frame[0:4], routingHeader[:])
	frame[17] = 1

	for i := 0; i < 14; i++ {
		putRoute(frame[20+i*4:], uint32(1+i), blkStream+uint32(i))
	}

	for i := 0; i < 5; i++ {
		putRoute(frame[76+i*8:], r.OutSrc[i*2], blkAnalog+8-uint32(i)*2)
		putRoute(frame[80+i*8:], r.OutSrc[1+i*2], blkAnalog+9-uint32(i)*2)
	}
	putRoute(frame[116:], r.OutSrc[10], blkSpdif)
	putRoute(frame[120:], r.OutSrc[11], blkSpdif+1)

	for i := 0; i < 4; i++ {
		putRoute(frame[124+i*4:], r.OutSrc[12+i], blkAdat+uint32(i))
	}
	putRoute(frame[140:], r.OutSrc[20], blkStream+14)
	putRoute(frame[144:], r.OutSrc[21], blkStream+15)

	for i := 0; i < 8; i++ {
		putRoute(frame[148+i*4:], r.MixerSrc[i], blkMixer+uint32(i))
	}
	for i := 0; i < 8; i++ {
		putRoute(frame[180+i*4:], r.MixerSrc[8+i], blkMixer+8+uint32(i))
	}
	putRoute(frame[212:], r.MixerSrc[16], blkMixer+16)
	putRoute(frame[216:], r.MixerSrc[17], blkMixer+17)

	putRoute(frame[220:], r.MeterSrc[0], 0x0)
	putRoute(frame[224:], r.MeterSrc[1], 0x0)

	return frame
}

// bootstrapAddress is the fixed offset from which a Pro 40 D3 publishes
// its command-channel base address pair at bus enumeration
// (spro40d3.rs's approach, named but not detailed in spec.md §3:
// "discovered at runtime from a base-address quadlet pair").
const bootstrapAddress uint64 = 0xffffe0000000

// DiscoverCommandEndpoint reads the two-quadlet base-address pair a
// Pro 40 D3 publishes at bootstrapAddress and returns the write/read
// register addresses derived from it. The two quadlets form one
// big-endian 64-bit base address, high quadlet first: the base names
// the write register, and the read register is one quadlet further on.
func DiscoverCommandEndpoint(t transaction.Transactor, h transaction.Handle, timeout time.Duration) (writeAddress, readAddress uint64, err error) {
	buf := make([]byte, 8)
	if err := t.Read(h, bootstrapAddress, buf, timeout); err != nil {
		return 0, 0, fmt.Errorf("saffire: read command endpoint: %w", err)
	}
	base := uint64(buf[0])<<56 | uint64(buf[1])<<48 | uint64(buf[2])<<40 | uint64(buf[3])<<32 |
		uint64(buf[4])<<24 | uint64(buf[5])<<16 | uint64(buf[6])<<8 | uint64(buf[7])
	writeAddress = base
	readAddress = base + 4
	return writeAddress, readAddress, nil
}

// D3 drives the Pro 40 D3's router/mixer command channel: a pair of
// write/read register addresses negotiated at init time, reached over
// the same transaction.Transactor every other component uses.
type D3 struct {
	T            transaction.Transactor
	Node         transaction.Handle
	WriteAddress uint64
	ReadAddress  uint64
	Timeout      time.Duration
}

// NewD3 discovers the command endpoint and returns a ready D3.
func NewD3(t transaction.Transactor, h transaction.Handle, timeout time.Duration) (*D3, error) {
	writeAddress, readAddress, err := DiscoverCommandEndpoint(t, h, timeout)
	if err != nil {
		return nil, err
	}
	return &D3{T: t, Node: h, WriteAddress: writeAddress, ReadAddress: readAddress, Timeout: timeout}, nil
}

// sendMessage writes message to the write register, then reads back a
// status quadlet from the read register (libs/dice/protocols/src/focusrite/spro40d3.rs
// send_message).
func (d *D3) sendMessage(message []byte) (uint32, error) {
	if err := d.T.Write(d.Node, d.WriteAddress, message, d.Timeout); err != nil {
		return 0, fmt.Errorf("saffire: write routing frame: %w", err)
	}
	status := make([]byte, 4)
	if err := d.T.Read(d.Node, d.ReadAddress, status, d.Timeout); err != nil {
		return 0, fmt.Errorf("saffire: read routing status: %w", err)
	}
	return uint32(status[0])<<24 | uint32(status[1])<<16 | uint32(status[2])<<8 | uint32(status[3]), nil
}

// sendCommand issues message and, if the device reports a nonzero
// status, resets the command sequence with a 16-byte reset frame and
// retries once (libs/dice/protocols/src/focusrite/spro40d3.rs
// send_command). Writing both routing tables is SetRouting's job.
func (d *D3) sendCommand(message []byte) error {
	status, err := d.sendMessage(message)
	if err != nil {
		return err
	}
	if status == 0 {
		return nil
	}
	reset := make([]byte, 16)
	reset[0] = 0x80
	if _, err := d.sendMessage(reset); err != nil {
		return err
	}
	_, err = d.sendMessage(message)
	return err
}

// SetRouting writes both the low-rate and high-rate routing tables
// unconditionally, so the device's router stays correct across a
// sample-rate change without a second call (spec.md §8 scenario S1 and
// the D3 atomicity open question).
func (d *D3) SetRouting(r D3Routing) error {
	if err := d.sendCommand(lowRateFrame(r)); err != nil {
		return fmt.Errorf("saffire: set low-rate routing: %w", err)
	}
	if err := d.sendCommand(highRateFrame(r)); err != nil {
		return fmt.Errorf("saffire: set high-rate routing: %w", err)
	}
	return nil
}
