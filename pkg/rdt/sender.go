package rdt

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

type slotStatus int

const (
	slotIdle slotStatus = iota
	slotWaitingAck
	slotWaitingNak
)

// indexed directly by sequence number
type outSlot struct {
	seq     Seq
	len     uint8
	payload [MaxPayload]byte
	status  slotStatus
}

// a fully-formed, not-yet-sequenced chunk of payload bytes awaiting
// admission to the ring once window_start advances
type overflowMsg struct {
	len     uint8
	payload [MaxPayload]byte
}

// no thread of its own: FromUpperLayer, FromLowerLayer and OnTimer are
// called synchronously by the host
type Sender struct {
	host SenderHost
	log  hclog.Logger

	windowStart   Seq
	toSend        Seq
	nextSeqNumber Seq

	outBuf   [256]outSlot
	external []*overflowMsg

	timers *timerQueue

	senderTimeout time.Duration
	nakTimeout    time.Duration
}

func NewSender(host SenderHost, log hclog.Logger) *Sender {
	return NewSenderWithTimeouts(host, log, SenderTimeout, NakTimeout)
}

// nakTimeout must be shorter than senderTimeout
func NewSenderWithTimeouts(host SenderHost, log hclog.Logger, senderTimeout, nakTimeout time.Duration) *Sender {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if nakTimeout >= senderTimeout {
		panic("rdt: nakTimeout must be shorter than senderTimeout")
	}
	s := &Sender{host: host, log: log, senderTimeout: senderTimeout, nakTimeout: nakTimeout}
	s.timers = newTimerQueue(host, host, s.onTimerExpire, log)
	return s
}

func (s *Sender) Init() {
	s.log.Info("sender initializing", "at", s.host.Now())
}

func (s *Sender) Final() {
	s.log.Info("sender finalizing", "at", s.host.Now())
}

func (s *Sender) FromUpperLayer(msg []byte) {
	cursor := 0
	for cursor < len(msg) {
		if Add(s.nextSeqNumber, 1) == s.windowStart {
			// ring is full
			var buf *overflowMsg
			if n := len(s.external); n == 0 || s.external[n-1].len == MaxPayload {
				buf = &overflowMsg{}
				s.external = append(s.external, buf)
			} else {
				buf = s.external[n-1]
			}
			n := copy(buf.payload[buf.len:MaxPayload], msg[cursor:])
			buf.len += uint8(n)
			cursor += n
			continue
		}

		last := Minus(s.nextSeqNumber, 1)
		windowEndExcl := Add(s.windowStart, WindowSize)
		if s.nextSeqNumber != s.windowStart &&
			!Between(s.windowStart, last, windowEndExcl) &&
			s.outBuf[last].len < MaxPayload {
			// pack into the tail of the last assigned slot
			slot := &s.outBuf[last]
			n := copy(slot.payload[slot.len:MaxPayload], msg[cursor:])
			slot.len += uint8(n)
			cursor += n
			continue
		}

		slot := &s.outBuf[s.nextSeqNumber]
		*slot = outSlot{seq: s.nextSeqNumber}
		n := copy(slot.payload[0:MaxPayload], msg[cursor:])
		slot.len = uint8(n)
		cursor += n
		Inc(&s.nextSeqNumber)
	}
	s.sendReady()
}

func (s *Sender) sendReady() {
	windowEnd := s.windowEnd()
	for Between(s.windowStart, s.toSend, windowEnd) {
		slot := &s.outBuf[s.toSend]
		slot.status = slotWaitingAck
		s.transmit(slot, FlagData, 0)
		s.timers.add(s.toSend, s.senderTimeout)
		Inc(&s.toSend)
	}
}

// min_mod(window_start+WindowSize, next_seq_number)
func (s *Sender) windowEnd() Seq {
	offset := Minus(s.nextSeqNumber, s.windowStart)
	if offset <= WindowSize {
		return s.nextSeqNumber
	}
	return Add(s.windowStart, WindowSize)
}

func (s *Sender) FromLowerLayer(pkt *Frame) {
	if !Check(pkt) {
		s.log.Debug("dropping corrupt frame at sender")
		return
	}
	if pkt.Flags == FlagNak {
		s.handleNak(pkt.Ack)
		return
	}
	s.handleAck(pkt.Ack)
}

func (s *Sender) handleAck(ack Seq) {
	s.log.Debug("ack received", "at", s.host.Now(), "ack", ack)
	for Lte(s.windowStart, ack) {
		s.timers.cancel(s.outBuf[s.windowStart].seq)
		s.advanceWindow()
	}
	s.sendReady()
}

func (s *Sender) advanceWindow() {
	if len(s.external) > 0 {
		buf := s.external[0]
		s.external = s.external[1:]
		slot := &s.outBuf[s.nextSeqNumber]
		*slot = outSlot{seq: s.nextSeqNumber, len: buf.len, payload: buf.payload}
		Inc(&s.nextSeqNumber)
	} else {
		s.outBuf[s.windowStart].len = 0
		s.outBuf[s.windowStart].status = slotIdle
	}
	Inc(&s.windowStart)
}

func (s *Sender) handleNak(missing Seq) {
	s.log.Debug("nak received", "at", s.host.Now(), "missing", missing)
	if Lt(missing, s.windowStart) {
		return // stale: already delivered and acknowledged
	}
	slot := &s.outBuf[missing]
	if slot.status == slotWaitingNak {
		return // absorbed by the pending shorter timer
	}
	s.timers.cancel(missing)
	s.transmit(slot, FlagData, 0)
	s.timers.add(missing, s.nakTimeout)
	slot.status = slotWaitingNak
}

func (s *Sender) onTimerExpire(seq Seq) {
	s.log.Debug("timer expired, retransmitting", "at", s.host.Now(), "seq", seq)
	slot := &s.outBuf[seq]
	wasNaking := slot.status == slotWaitingNak
	s.transmit(slot, FlagData, 0)
	if wasNaking {
		s.timers.add(seq, s.nakTimeout)
		slot.status = slotWaitingNak
	} else {
		s.timers.add(seq, s.senderTimeout)
		slot.status = slotWaitingAck
	}
}

func (s *Sender) OnTimer() {
	s.timers.onExpiry()
}

func (s *Sender) transmit(slot *outSlot, flags Flags, ack Seq) {
	s.log.Debug("transmitting data frame", "at", s.host.Now(), "seq", slot.seq)
	frame := &Frame{Seq: slot.seq, Ack: ack, Len: slot.len, Flags: flags}
	copy(frame.Payload[:], slot.payload[:slot.len])
	if err := FillChecksum(frame); err != nil {
		s.log.Error("failed to checksum outgoing data frame", "err", err)
		return
	}
	s.host.SendToLower(frame)
}
