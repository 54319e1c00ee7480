package rdt

import "encoding/binary"

// any flags bit inside wireFlagsMask is rejected as corrupt
const (
	FlagData Flags = 0
	FlagNak  Flags = 1

	wireFlagsMask = 0xFE
)

type Flags = uint8

type Frame struct {
	Seq      Seq
	Ack      Seq
	Len      uint8
	Flags    Flags
	Checksum uint16
	Payload  [MaxPayload]byte
}

func FillChecksum(f *Frame) error {
	if f.Len > MaxPayload {
		return errPayloadTooLong
	}
	if f.Flags&wireFlagsMask != 0 {
		return errBadFlags
	}
	f.Checksum = checksumOf(f)
	return nil
}

// never mutates f
func Check(f *Frame) bool {
	if f.Len > MaxPayload {
		return false
	}
	if f.Flags&wireFlagsMask != 0 {
		return false
	}
	return checksumOf(f) == f.Checksum
}

func checksumOf(f *Frame) uint16 {
	header := [4]byte{f.Seq, f.Ack, f.Len, f.Flags}
	crc := crc16(header[:], 0)
	crc = crc16(f.Payload[:f.Len], crc)
	return crc
}

// checksum field is little-endian, stable only between peers built from this package
func (f *Frame) MarshalBinary() []byte {
	buf := make([]byte, FrameSize)
	buf[0] = f.Seq
	buf[1] = f.Ack
	buf[2] = f.Len
	buf[3] = f.Flags
	binary.LittleEndian.PutUint16(buf[4:6], f.Checksum)
	copy(buf[HeaderSize:], f.Payload[:])
	return buf
}

// does not validate the checksum; callers should call Check
func UnmarshalFrame(buf []byte) (*Frame, error) {
	if len(buf) != FrameSize {
		return nil, errBadFrameSize
	}
	f := &Frame{
		Seq:      buf[0],
		Ack:      buf[1],
		Len:      buf[2],
		Flags:    buf[3],
		Checksum: binary.LittleEndian.Uint16(buf[4:6]),
	}
	copy(f.Payload[:], buf[HeaderSize:])
	return f, nil
}
