//go:build linux

package transaction

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request numbers for the abstract 1394 character-device
// transaction ioctl, encoded the way Daedaluz-goserial encodes its
// termios ioctls: _IOWR('F', cmd, size) against a fixed-size request
// struct. The real juju/raw1394 ioctl ABI is considerably larger; this
// module only needs the request/response shape spec.md §4.B describes.
const (
	iocMagic        = 'F'
	iocTransaction  = 0x01
	iocLockCompare  = 0x02
	ioctlDirRead    = 2 << 30
	ioctlDirWrite   = 1 << 30
	ioctlSizeShift  = 16
	ioctlTypeShift  = 8
	ioctlNumberMask = 0xff
)

func iowr(magic, nr byte, size uintptr) uintptr {
	return ioctlDirRead | ioctlDirWrite |
		(size << ioctlSizeShift) |
		(uintptr(magic) << ioctlTypeShift) |
		uintptr(nr)
}

// fwTransactionReq mirrors the fixed layout handed to the ioctl: a
// quadlet-aligned address, a transfer length, an inline buffer large
// enough for the block sizes fwctl's section/segment descriptors use,
// and the request kind.
type fwTransactionReq struct {
	Address uint64
	Length  uint32
	Write   uint32
	Kind    uint32
	_       uint32
	Data    [512]byte
}

// CharDeviceTransactor issues node transactions as ioctls against an
// open FireWire character device file descriptor (component B's
// production backend). OpenCharDevice opens the device path it is
// given; device enumeration and bus-reset notification are out of this
// module's scope per spec.md §1.
type CharDeviceTransactor struct {
	f *os.File
}

// OpenCharDevice opens path (e.g. "/dev/fw1") for raw node transactions.
func OpenCharDevice(path string) (*CharDeviceTransactor, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, translateOpenErr(err)
	}
	return &CharDeviceTransactor{f: f}, nil
}

func (c *CharDeviceTransactor) Close() error {
	return c.f.Close()
}

func translateOpenErr(err error) error {
	switch {
	case os.IsPermission(err):
		return fmt.Errorf("%w: %v", ErrAcces, err)
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %v", ErrNoent, err)
	default:
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
}

func (c *CharDeviceTransactor) doIoctl(req *fwTransactionReq, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	errno := ioctlDeadline(c.f.Fd(), iowr(iocMagic, iocTransaction, unsafe.Sizeof(*req)), uintptr(unsafe.Pointer(req)), deadline)
	return translateErrno(errno)
}

func translateErrno(errno error) error {
	if errno == nil {
		return nil
	}
	switch errno {
	case unix.EACCES, unix.EPERM:
		return fmt.Errorf("%w: %v", ErrAcces, errno)
	case unix.ENODEV, unix.ENOENT:
		return fmt.Errorf("%w: %v", ErrNoent, errno)
	case unix.ENXIO, unix.ESHUTDOWN:
		return fmt.Errorf("%w: %v", ErrDisconnected, errno)
	default:
		return fmt.Errorf("%w: %v", ErrIO, errno)
	}
}

// ioctlDeadline retries EAGAIN/EINTR until deadline, matching the
// "block up to timeout_ms" contract of spec.md §5.
func ioctlDeadline(fd uintptr, req uintptr, arg uintptr, deadline time.Time) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
		if errno == 0 {
			return nil
		}
		if errno == unix.EINTR && time.Now().Before(deadline) {
			continue
		}
		if errno == unix.EAGAIN {
			if time.Now().After(deadline) {
				return ErrIO
			}
			time.Sleep(time.Millisecond)
			continue
		}
		return errno
	}
}

func (c *CharDeviceTransactor) Read(h Handle, address uint64, buf []byte, timeout time.Duration) error {
	if err := CheckAlignment(address, len(buf)); err != nil {
		return err
	}
	if len(buf) > len(fwTransactionReq{}.Data) {
		return fmt.Errorf("%w: block read of %d bytes exceeds transport buffer", ErrIO, len(buf))
	}
	req := fwTransactionReq{Address: address, Length: uint32(len(buf)), Write: 0, Kind: uint32(KindFor(buf))}
	if err := c.doIoctl(&req, timeout); err != nil {
		return err
	}
	copy(buf, req.Data[:len(buf)])
	return nil
}

func (c *CharDeviceTransactor) Write(h Handle, address uint64, buf []byte, timeout time.Duration) error {
	if err := CheckAlignment(address, len(buf)); err != nil {
		return err
	}
	if len(buf) > len(fwTransactionReq{}.Data) {
		return fmt.Errorf("%w: block write of %d bytes exceeds transport buffer", ErrIO, len(buf))
	}
	req := fwTransactionReq{Address: address, Length: uint32(len(buf)), Write: 1, Kind: uint32(KindFor(buf))}
	copy(req.Data[:], buf)
	return c.doIoctl(&req, timeout)
}

func (c *CharDeviceTransactor) LockCompareSwap(h Handle, address uint64, compare, swap [8]byte, timeout time.Duration) ([8]byte, error) {
	if err := CheckAlignment(address, 8); err != nil {
		return [8]byte{}, err
	}
	req := fwTransactionReq{Address: address, Length: 8, Write: 1, Kind: uint32(KindBlock)}
	copy(req.Data[0:8], compare[:])
	copy(req.Data[8:16], swap[:])
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	errno := ioctlDeadline(c.f.Fd(), iowr(iocMagic, iocLockCompare, unsafe.Sizeof(req)), uintptr(unsafe.Pointer(&req)), deadline)
	if err := translateErrno(errno); err != nil {
		return [8]byte{}, err
	}
	var observed [8]byte
	copy(observed[:], req.Data[0:8])
	return observed, nil
}
