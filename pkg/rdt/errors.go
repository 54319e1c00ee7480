package rdt

import "github.com/pkg/errors"

var (
	errPayloadTooLong = errors.New("rdt: payload exceeds MaxPayload octets")
	errBadFlags       = errors.New("rdt: flags use a reserved bookkeeping bit")
	errBadFrameSize   = errors.New("rdt: wire frame is not FrameSize octets")
)
