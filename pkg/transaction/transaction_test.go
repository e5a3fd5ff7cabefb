package transaction_test

import (
	"testing"

	"github.com/herlein/fwctl/pkg/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemTransactorReadWriteRoundTrip(t *testing.T) {
	m := transaction.NewMemTransactor()
	h := transaction.Handle{NodeID: 1}

	require.NoError(t, m.Write(h, 0x100, []byte{1, 2, 3, 4}, 0))
	buf := make([]byte, 4)
	require.NoError(t, m.Read(h, 0x100, buf, 0))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
	assert.Equal(t, 1, m.WriteCount())
}

func TestAlignmentEnforced(t *testing.T) {
	m := transaction.NewMemTransactor()
	h := transaction.Handle{NodeID: 1}
	err := m.Write(h, 0x101, []byte{1, 2, 3, 4}, 0)
	var alignErr *transaction.AlignmentError
	assert.ErrorAs(t, err, &alignErr)
}

func TestDisconnected(t *testing.T) {
	m := transaction.NewMemTransactor()
	m.Disconnected = true
	h := transaction.Handle{NodeID: 1}
	err := m.Read(h, 0x100, make([]byte, 4), 0)
	assert.ErrorIs(t, err, transaction.ErrDisconnected)
}

func TestDeniedRange(t *testing.T) {
	m := transaction.NewMemTransactor()
	m.Denied = &[2]uint64{0x200, 0x300}
	h := transaction.Handle{NodeID: 1}
	err := m.Write(h, 0x200, []byte{0, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, transaction.ErrAcces)
}

func TestLockCompareSwap(t *testing.T) {
	m := transaction.NewMemTransactor()
	h := transaction.Handle{NodeID: 1}
	var zero, want [8]byte
	copy(want[:], []byte{1, 2, 3, 4, 5, 6, 7, 8})

	observed, err := m.LockCompareSwap(h, 0x400, zero, want, 0)
	require.NoError(t, err)
	assert.Equal(t, zero, observed)

	assert.Equal(t, want[:], m.Snapshot(0x400, 8))
}

func TestSerialTransactorDelegates(t *testing.T) {
	m := transaction.NewMemTransactor()
	s := transaction.NewSerialTransactor(m)
	h := transaction.Handle{NodeID: 1}
	require.NoError(t, s.Write(h, 0x100, []byte{9, 9, 9, 9}, 0))
	buf := make([]byte, 4)
	require.NoError(t, s.Read(h, 0x100, buf, 0))
	assert.Equal(t, []byte{9, 9, 9, 9}, buf)
}
