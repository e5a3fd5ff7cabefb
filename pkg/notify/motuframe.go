package notify

// FrameBuffer accumulates bytes arriving at a MOTU Command DSP receive
// address and extracts complete length-prefixed frames as they become
// available (spec.md §4.G: "Frames are appended to a rolling buffer;
// the decoder extracts complete commands"). Each frame is
// { length u16 BE, payload []byte }; unlike the outbound envelope of
// component I, it carries no marker or sequence-number byte.
type FrameBuffer struct {
	buf []byte
}

// Append adds newly arrived bytes to the rolling buffer.
func (f *FrameBuffer) Append(data []byte) {
	f.buf = append(f.buf, data...)
}

// Next extracts and removes the oldest complete frame, if one is fully
// buffered. It returns ok=false if the buffer holds no complete frame
// yet.
func (f *FrameBuffer) Next() (payload []byte, ok bool) {
	if len(f.buf) < 2 {
		return nil, false
	}
	length := int(f.buf[0])<<8 | int(f.buf[1])
	if len(f.buf) < 2+length {
		return nil, false
	}
	payload = make([]byte, length)
	copy(payload, f.buf[2:2+length])
	f.buf = f.buf[2+length:]
	return payload, true
}

// Drain extracts every complete frame currently buffered, in arrival
// order.
func (f *FrameBuffer) Drain() [][]byte {
	var out [][]byte
	for {
		payload, ok := f.Next()
		if !ok {
			return out
		}
		out = append(out, payload)
	}
}

// Pending reports how many bytes are currently buffered, including any
// complete frames not yet extracted by Next or Drain.
func (f *FrameBuffer) Pending() int {
	return len(f.buf)
}
