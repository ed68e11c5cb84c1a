package wire

import (
	"encoding/binary"

	"github.com/jackc/pgio"
)

// Every wire integer on the PostgreSQL protocol is big-endian; there is no
// runtime host-endianness probe here (the original C port picked its pack
// function pointers at module-init time by testing the machine's byte
// order — a portability relic flagged in spec.md's Design Notes). The
// *BE helpers below are what the rest of this package uses; the *Swapped
// helpers exist only because spec.md's external interface section names
// both native and byte-swapped forms for completeness.

// AppendUint16BE appends n to buf in big-endian wire order.
func AppendUint16BE(buf []byte, n uint16) []byte { return pgio.AppendUint16(buf, n) }

// AppendUint32BE appends n to buf in big-endian wire order.
func AppendUint32BE(buf []byte, n uint32) []byte { return pgio.AppendUint32(buf, n) }

// AppendUint64BE appends n to buf in big-endian wire order.
func AppendUint64BE(buf []byte, n uint64) []byte { return pgio.AppendUint64(buf, n) }

// AppendInt16BE appends n to buf in big-endian wire order.
func AppendInt16BE(buf []byte, n int16) []byte { return pgio.AppendInt16(buf, n) }

// AppendInt32BE appends n to buf in big-endian wire order.
func AppendInt32BE(buf []byte, n int32) []byte { return pgio.AppendInt32(buf, n) }

// AppendInt64BE appends n to buf in big-endian wire order.
func AppendInt64BE(buf []byte, n int64) []byte { return pgio.AppendInt64(buf, n) }

// SetUint32BE backpatches the 4 bytes at buf[pos:pos+4] with n, used to
// fill in a message length after the body has already been written.
func SetUint32BE(buf []byte, pos int, n uint32) {
	pgio.SetInt32(buf[pos:pos+4], int32(n))
}

func Uint16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func Uint32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func Uint64BE(b []byte) uint64 { return binary.BigEndian.Uint64(b) }
func Int16BE(b []byte) int16   { return int16(binary.BigEndian.Uint16(b)) }
func Int32BE(b []byte) int32   { return int32(binary.BigEndian.Uint32(b)) }
func Int64BE(b []byte) int64   { return int64(binary.BigEndian.Uint64(b)) }

// Swapped forms read/write the opposite byte order of the wire. They see
// no use in the codec itself; they round out the {int,uint}x{2,4,8}x
// {native,swapped} surface spec.md §6 names as conventional.

func AppendUint16Swapped(buf []byte, n uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, n)
}

func AppendUint32Swapped(buf []byte, n uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, n)
}

func AppendUint64Swapped(buf []byte, n uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, n)
}

func AppendInt16Swapped(buf []byte, n int16) []byte {
	return binary.LittleEndian.AppendUint16(buf, uint16(n))
}

func AppendInt32Swapped(buf []byte, n int32) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(n))
}

func AppendInt64Swapped(buf []byte, n int64) []byte {
	return binary.LittleEndian.AppendUint64(buf, uint64(n))
}

func Uint16Swapped(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func Uint32Swapped(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func Uint64Swapped(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func Int16Swapped(b []byte) int16   { return int16(binary.LittleEndian.Uint16(b)) }
func Int32Swapped(b []byte) int32   { return int32(binary.LittleEndian.Uint32(b)) }
func Int64Swapped(b []byte) int64   { return int64(binary.LittleEndian.Uint64(b)) }
