package rdt

import "time"

// testSenderHost is a SenderHost that records transmitted frames instead
// of actually delivering them anywhere; tests feed them to a receiver (or
// inspect them directly) by hand.
type testSenderHost struct {
	clock *fakeClock
	timer *fakeHostTimer
	sent  []*Frame
}

func newTestSenderHost() *testSenderHost {
	clock := &fakeClock{}
	return &testSenderHost{clock: clock, timer: &fakeHostTimer{clock: clock}}
}

func (h *testSenderHost) Now() float64              { return h.clock.Now() }
func (h *testSenderHost) SendToLower(f *Frame)       { h.sent = append(h.sent, f) }
func (h *testSenderHost) TimerStart(d time.Duration) { h.timer.TimerStart(d) }
func (h *testSenderHost) TimerStop()                 { h.timer.TimerStop() }
func (h *testSenderHost) TimerIsSet() bool           { return h.timer.TimerIsSet() }

// testReceiverHost is a ReceiverHost that records both outgoing control
// frames and upward-delivered payloads.
type testReceiverHost struct {
	clock     *fakeClock
	sent      []*Frame
	delivered [][]byte
}

func newTestReceiverHost() *testReceiverHost {
	return &testReceiverHost{clock: &fakeClock{}}
}

func (h *testReceiverHost) Now() float64        { return h.clock.Now() }
func (h *testReceiverHost) SendToLower(f *Frame) { h.sent = append(h.sent, f) }
func (h *testReceiverHost) DeliverToUpper(data []byte) {
	cp := append([]byte{}, data...)
	h.delivered = append(h.delivered, cp)
}
