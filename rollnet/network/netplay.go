package network

import (
	"fmt"
	"math/rand"

	"github.com/HeatXD/rollnet/rollnet/bitvector"
	"github.com/HeatXD/rollnet/rollnet/lib"
	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/transport"
	"github.com/sirupsen/logrus"
)

type OoPacket struct {
	SendTime uint64
	Entry    *QueueEntry
}

type State int64

const (
	Syncing State = iota
	Running
	Disconnected
)

func (s State) String() string {
	switch s {
	case Syncing:
		return "syncing"
	case Running:
		return "running"
	}
	return "disconnected"
}

const (
	UDP_HEADER_SIZE           = 28 /* Size of IP + UDP headers */
	NUM_SYNC_PACKETS          = 5
	SYNC_RETRY_INTERVAL       = 200
	SYNC_FIRST_RETRY_INTERVAL = 500
	RUNNING_RETRY_INTERVAL    = 200
	KEEP_ALIVE_INTERVAL       = 200
	QUALITY_REPORT_INTERVAL   = 1000
	NETWORK_STATS_INTERVAL    = 1000
	UDP_SHUTDOWN_TIMER        = 5000
	MAX_SEQ_DISTANCE          = (1 << 15)
	PENDING_OUTPUT_SIZE       = 128
	SEND_QUEUE_SIZE           = 64
	EVENT_QUEUE_SIZE          = 1024
)

// Config describes one remote endpoint.
type Config struct {
	Socket     transport.Socket
	RemoteAddr string
	// Queue is the handle the endpoint feeds inputs for.
	Queue int64
	// InputWidth is the number of words per input sent to the peer.
	InputWidth int64
	Fps        int64
	// Status is the local connect status shared with the session, nil for
	// endpoints that never forward it.
	Status []rollapi.ConnectStatus
	Clock  platform.Clock
	Log    *logrus.Entry
}

// Netplay is the protocol state for one remote peer or spectator.
type Netplay struct {
	Socket                transport.Socket
	RemoteAddr            string
	Queue                 int64
	InputWidth            int64
	Fps                   int64
	Clock                 platform.Clock
	Log                   *logrus.Entry
	LastReceivedInput     lib.GameInput
	LastAckedInput        lib.GameInput
	LastSentInput         lib.GameInput
	LocalConnectStatus    []rollapi.ConnectStatus
	LocalFrameAdvantage   int64
	RemoteFrameAdvantage  int64
	RoundTripTime         int64
	PeerConnectStatus     []rollapi.ConnectStatus
	TimeSync              lib.TimeSync
	CurrentState          State
	PendingOutput         lib.RingBuffer[lib.GameInput]
	LastSendTime          uint64
	MagicNumber           uint16
	RemoteMagicNumber     uint16
	NextSendSeq           uint16
	NextRecvSeq           uint16
	SendQueue             lib.RingBuffer[QueueEntry]
	EventQueue            lib.RingBuffer[Event]
	SendLatency           int64
	OopPercent            int64
	OoPacket              OoPacket
	NetplayState          StateType
	DisconnectNotifyStart uint64
	DisconnectNotifySent  bool
	DisconnectTimeout     uint64
	DisconnectEventSent   bool
	LastRecvTime          uint64
	ShutDownTimeout       uint64
	StatsStartTime        uint64
	KbpsSent              int64
	BytesSent             int64
	PacketsSent           int64
	// MaxSyncRetries bounds the sync requests sent without any reply, 0
	// retries forever.
	MaxSyncRetries int64
	// ResyncAllowed lets a disconnected endpoint restart the handshake when
	// the peer sends a fresh sync request.
	ResyncAllowed bool
	// AckOnly endpoints never send inputs and acknowledge every input message.
	AckOnly bool
}

func (n *Netplay) Init(cfg Config, poll *lib.Poll) {
	n.Socket = cfg.Socket
	n.RemoteAddr = cfg.RemoteAddr
	n.Queue = cfg.Queue
	n.InputWidth = cfg.InputWidth
	if n.InputWidth <= 0 {
		n.InputWidth = 1
	}
	n.Fps = cfg.Fps
	if n.Fps <= 0 {
		n.Fps = rollapi.DEFAULT_FPS
	}
	n.Clock = cfg.Clock
	if n.Clock == nil {
		n.Clock = platform.SystemClock{}
	}
	n.Log = cfg.Log
	if n.Log == nil {
		n.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	n.Log = n.Log.WithField("peer", n.RemoteAddr)
	n.LocalConnectStatus = cfg.Status
	n.LastReceivedInput.Init(lib.NULL_FRAME, nil, n.InputWidth)
	n.LastAckedInput.Init(lib.NULL_FRAME, nil, n.InputWidth)
	n.LastSentInput.Init(lib.NULL_FRAME, nil, n.InputWidth)
	n.LocalFrameAdvantage = 0
	n.RemoteFrameAdvantage = 0
	n.RoundTripTime = 0
	n.TimeSync.Init(n.Log)
	n.PendingOutput.Init(PENDING_OUTPUT_SIZE)
	n.SendQueue.Init(SEND_QUEUE_SIZE)
	n.EventQueue.Init(EVENT_QUEUE_SIZE)
	n.LastSendTime = 0
	n.NextSendSeq = 0
	n.NextRecvSeq = 0
	n.MagicNumber = 0
	for n.MagicNumber == 0 {
		n.MagicNumber = uint16(rand.Uint32())
	}
	n.RemoteMagicNumber = 0
	n.DisconnectNotifySent = false
	n.DisconnectEventSent = false
	n.LastRecvTime = 0
	n.ShutDownTimeout = 0
	n.StatsStartTime = 0
	n.KbpsSent = 0
	n.BytesSent = 0
	n.PacketsSent = 0
	n.resetPeerConnectStatus(len(cfg.Status))

	n.SendLatency = platform.GetConfigInt("ROLLNET_NETWORK_DELAY")
	n.OopPercent = platform.GetConfigInt("ROLLNET_OOP_PERCENT")
	n.OoPacket.Entry = nil

	if poll != nil {
		poll.RegisterLoop(n)
	}
}

func (n *Netplay) resetPeerConnectStatus(size int) {
	if size <= 0 {
		size = MSG_MAX_PLAYERS
	}
	n.PeerConnectStatus = make([]rollapi.ConnectStatus, size)
	for i := range n.PeerConnectStatus {
		n.PeerConnectStatus[i].LastFrame = lib.NULL_FRAME
	}
}

func (n *Netplay) SetDisconnectNotifyStart(timeout uint64) {
	n.DisconnectNotifyStart = timeout
}

func (n *Netplay) SetDisconnectTimeout(timeout uint64) {
	n.DisconnectTimeout = timeout
}

// Synchronize starts the handshake.
func (n *Netplay) Synchronize() {
	n.CurrentState = Syncing
	n.NetplayState.Sync.RoundTripsRemaining = NUM_SYNC_PACKETS
	n.NetplayState.Sync.Retries = 0
	n.SendSyncRequest()
}

func (n *Netplay) IsSynchronized() bool {
	return n.CurrentState == Running
}

func (n *Netplay) IsRunning() bool {
	return n.CurrentState == Running
}

func (n *Netplay) IsDisconnected() bool {
	return n.CurrentState == Disconnected
}

// Disconnect stops the endpoint and tells the peer so with a last input
// message.
func (n *Netplay) Disconnect() {
	if n.CurrentState == Disconnected {
		return
	}
	n.Log.Info("disconnecting endpoint")
	n.CurrentState = Disconnected
	n.ShutDownTimeout = n.Clock.NowMS() + UDP_SHUTDOWN_TIMER
	n.SendPendingOutput()
}

func (n *Netplay) GetPeerConnectStatus(id int64) (bool, int64) {
	if id < 0 || id >= int64(len(n.PeerConnectStatus)) {
		return false, lib.NULL_FRAME
	}
	return !n.PeerConnectStatus[id].Disconnected, n.PeerConnectStatus[id].LastFrame
}

// SendInput queues one local input for the peer and sends everything not
// acknowledged yet.
func (n *Netplay) SendInput(input lib.GameInput) {
	if n.CurrentState != Running {
		return
	}
	if n.PendingOutput.Full() {
		// The peer stopped acknowledging; keeping more would overflow the queue.
		n.Log.Warnf("pending output full at frame %d, disconnecting", input.Frame)
		n.queueDisconnected()
		n.Disconnect()
		return
	}
	n.TimeSync.AdvanceFrame(input, n.LocalFrameAdvantage, n.RemoteFrameAdvantage)
	n.PendingOutput.Push(input.Clone())
	n.SendPendingOutput()
}

func (n *Netplay) SendPendingOutput() {
	msg := new(NetplayMsgType)
	msg.Init(Input)

	if n.PendingOutput.Size > 0 {
		last := n.LastAckedInput
		front := n.PendingOutput.Front()
		msg.Input.StartFrame = front.Frame
		msg.Input.InputWidth = front.Width()

		if last.Frame != lib.NULL_FRAME && last.Frame+1 != msg.Input.StartFrame {
			n.Log.Panic(fmt.Sprintf("Assert Error last.Frame+1 != StartFrame. last.Frame = %d StartFrame = %d", last.Frame, msg.Input.StartFrame))
		}
		w := new(bitvector.Vector)
		for j := int64(0); j < n.PendingOutput.Size; j++ {
			current := n.PendingOutput.Item(j)
			for i := int64(0); i < current.Width()*32; i++ {
				if current.Value(i) != last.Value(i) {
					w.SetBit()
					if current.Value(i) {
						w.SetBit()
					} else {
						w.ClearBit()
					}
					w.WriteNibblet(i)
				}
			}
			w.ClearBit()
			last = current
			n.LastSentInput = current
		}
		msg.Input.Bits = w.Bits
		msg.Input.NumBits = w.Len()
	}
	msg.Input.AckFrame = n.LastReceivedInput.Frame
	msg.Input.DisconnectRequested = n.CurrentState == Disconnected
	if n.LocalConnectStatus != nil {
		msg.Input.PeerConnectStatus = make([]rollapi.ConnectStatus, len(n.LocalConnectStatus))
		copy(msg.Input.PeerConnectStatus, n.LocalConnectStatus)
	}
	n.SendMsg(msg)
}

func (n *Netplay) SendInputAck() {
	msg := new(NetplayMsgType)
	msg.Init(InputAck)
	msg.InputAck.AckFrame = n.LastReceivedInput.Frame
	n.SendMsg(msg)
}

func (n *Netplay) SendSyncRequest() {
	n.NetplayState.Sync.Random = rand.Uint32()
	n.NetplayState.Sync.LastRequestTime = n.Clock.NowMS()
	msg := new(NetplayMsgType)
	msg.Init(SyncRequest)
	msg.SyncRequest.RandomRequest = n.NetplayState.Sync.Random
	n.SendMsg(msg)
}

func (n *Netplay) SendMsg(msg *NetplayMsgType) {
	now := n.Clock.NowMS()
	msg.Hdr.Magic = n.MagicNumber
	msg.Hdr.SequenceNumber = n.NextSendSeq
	n.NextSendSeq++

	data, err := Encode(msg)
	if err != nil {
		n.Log.WithError(err).Error("dropping outgoing message")
		return
	}
	n.PacketsSent++
	n.LastSendTime = now
	n.BytesSent += int64(len(data))

	if n.SendQueue.Full() {
		n.PumpSendQueue()
	}
	var entry QueueEntry
	entry.Init(now, n.RemoteAddr, data)
	n.SendQueue.PushEvict(entry)
	n.PumpSendQueue()
}

func (n *Netplay) write(entry *QueueEntry) {
	if err := n.Socket.SendTo(entry.Data, entry.DestAddr); err != nil {
		n.Log.WithError(err).Warn("netplay write error")
	}
}

func (n *Netplay) PumpSendQueue() {
	now := n.Clock.NowMS()
	for !n.SendQueue.Empty() {
		entry := n.SendQueue.Front()

		if n.SendLatency > 0 {
			// should really come up with a gaussian distributation based on the configured
			// value, but this will do for now.
			jitter := (n.SendLatency * 2 / 3) + ((rand.Int63() % n.SendLatency) / 3)
			if now < entry.QueueTime+uint64(jitter) {
				break
			}
		}
		if n.OopPercent > 0 && n.OoPacket.Entry == nil && ((rand.Int63() % 100) < n.OopPercent) {
			delay := rand.Int63() % (n.SendLatency*10 + 1000)
			n.Log.Debugf("creating rogue oop (delay: %d)", delay)
			n.OoPacket.SendTime = now + uint64(delay)
			n.OoPacket.Entry = &entry
		} else {
			n.write(&entry)
		}
		n.SendQueue.Pop()
	}
	if n.OoPacket.Entry != nil && n.OoPacket.SendTime < now {
		n.Log.Debug("sending rogue oop!")
		n.write(n.OoPacket.Entry)
		n.OoPacket.Entry = nil
	}
}

// OnMsg handles one decoded message from the peer.
func (n *Netplay) OnMsg(msg *NetplayMsgType) {
	if n.CurrentState == Disconnected {
		if msg.Hdr.Type != SyncRequest || !n.ResyncAllowed {
			return
		}
		n.resynchronize()
	}

	// filter out messages that don't match what we expect
	seq := msg.Hdr.SequenceNumber
	if msg.Hdr.Type != SyncRequest && msg.Hdr.Type != SyncReply {
		if msg.Hdr.Magic != n.RemoteMagicNumber {
			n.Log.Debugf("rejecting %s with magic %d", msg.Hdr.Type, msg.Hdr.Magic)
			return
		}

		// filter out out-of-order packets
		skipped := seq - n.NextRecvSeq
		if skipped > MAX_SEQ_DISTANCE {
			n.Log.Debugf("dropping out of order packet (seq: %d, last seq: %d)", seq, n.NextRecvSeq)
			return
		}
	}

	var handled bool
	switch msg.Hdr.Type {
	case SyncRequest:
		handled = n.OnSyncRequest(msg)
	case SyncReply:
		handled = n.OnSyncReply(msg)
	case Input:
		handled = n.OnInput(msg)
	case QualityReport:
		handled = n.OnQualityReport(msg)
	case QualityReply:
		handled = n.OnQualityReply(msg)
	case KeepAlive:
		handled = true
	case InputAck:
		handled = n.OnInputAck(msg)
	}

	if handled {
		n.NextRecvSeq = seq
		n.LastRecvTime = n.Clock.NowMS()
		if n.DisconnectNotifySent && n.CurrentState == Running {
			n.QueueEvent(Event{Type: EventNetworkResumed})
			n.DisconnectNotifySent = false
		}
	}
}

// resynchronize restarts the handshake after the peer came back with a new
// session.
func (n *Netplay) resynchronize() {
	n.Log.Info("peer requested a new handshake, resynchronizing")
	n.RemoteMagicNumber = 0
	n.NextRecvSeq = 0
	n.DisconnectNotifySent = false
	n.DisconnectEventSent = false
	n.ShutDownTimeout = 0
	n.LastReceivedInput.Init(lib.NULL_FRAME, nil, n.InputWidth)
	n.LastAckedInput.Init(lib.NULL_FRAME, nil, n.InputWidth)
	n.PendingOutput.Init(PENDING_OUTPUT_SIZE)
	n.resetPeerConnectStatus(len(n.LocalConnectStatus))
	n.Synchronize()
}

func (n *Netplay) OnSyncRequest(msg *NetplayMsgType) bool {
	if n.RemoteMagicNumber != 0 && msg.Hdr.Magic != n.RemoteMagicNumber {
		n.Log.Debugf("ignoring sync request from unknown endpoint (%d != %d)", msg.Hdr.Magic, n.RemoteMagicNumber)
		return false
	}
	reply := new(NetplayMsgType)
	reply.Init(SyncReply)
	reply.SyncReply.RandomReply = msg.SyncRequest.RandomRequest
	n.SendMsg(reply)
	return true
}

func (n *Netplay) OnSyncReply(msg *NetplayMsgType) bool {
	if n.CurrentState != Syncing {
		return msg.Hdr.Magic == n.RemoteMagicNumber
	}

	if msg.SyncReply.RandomReply != n.NetplayState.Sync.Random {
		n.Log.Debugf("sync reply %d != %d, keep looking", msg.SyncReply.RandomReply, n.NetplayState.Sync.Random)
		return false
	}

	n.NetplayState.Sync.RoundTripsRemaining--
	n.NetplayState.Sync.Retries = 0
	if n.NetplayState.Sync.RoundTripsRemaining == 0 {
		n.Log.Info("synchronized")
		now := n.Clock.NowMS()
		n.CurrentState = Running
		n.LastReceivedInput.Frame = lib.NULL_FRAME
		n.RemoteMagicNumber = msg.Hdr.Magic
		n.NetplayState.Running.LastInputPacketRecvTime = now
		n.NetplayState.Running.LastQualityReportTime = now
		n.NetplayState.Running.LastNetworkStatsInterval = now
		n.LastRecvTime = now
		n.QueueEvent(Event{Type: EventSynchronized})
	} else {
		var evt Event
		evt.Init(EventSynchronizing)
		evt.Synchronizing.Total = NUM_SYNC_PACKETS
		evt.Synchronizing.Count = NUM_SYNC_PACKETS - n.NetplayState.Sync.RoundTripsRemaining
		n.QueueEvent(evt)
		n.SendSyncRequest()
	}
	return true
}

func (n *Netplay) OnInput(msg *NetplayMsgType) bool {
	// If a disconnect is requested, go ahead and disconnect now.
	if msg.Input.DisconnectRequested {
		if n.CurrentState != Disconnected && !n.DisconnectEventSent {
			n.Log.Info("disconnecting endpoint on remote request")
			n.queueDisconnected()
		}
	} else {
		remoteStatus := msg.Input.PeerConnectStatus
		for i := 0; i < len(remoteStatus) && i < len(n.PeerConnectStatus); i++ {
			n.PeerConnectStatus[i].Disconnected = n.PeerConnectStatus[i].Disconnected || remoteStatus[i].Disconnected
			n.PeerConnectStatus[i].LastFrame = lib.MAX(n.PeerConnectStatus[i].LastFrame, remoteStatus[i].LastFrame)
		}
	}

	if msg.Input.NumBits > 0 {
		if !n.decodeInputs(msg) {
			return false
		}
	}

	// Get rid of our buffered input
	n.popAcknowledged(msg.Input.AckFrame)
	return true
}

func (n *Netplay) decodeInputs(msg *NetplayMsgType) bool {
	width := msg.Input.InputWidth
	if width <= 0 || width > lib.GAMEINPUT_MAX_WORDS {
		n.Log.Warnf("dropping input with width %d", width)
		return false
	}
	if width != n.LastReceivedInput.Width() {
		if n.LastReceivedInput.Frame != lib.NULL_FRAME {
			n.Log.Warnf("dropping input with width %d, expected %d", width, n.LastReceivedInput.Width())
			return false
		}
		n.LastReceivedInput.Init(lib.NULL_FRAME, nil, width)
	}
	if n.LastReceivedInput.Frame < 0 {
		n.LastReceivedInput.Frame = msg.Input.StartFrame - 1
	}
	if msg.Input.StartFrame > n.LastReceivedInput.Frame+1 {
		n.Log.Warnf("dropping input starting at %d, last received %d", msg.Input.StartFrame, n.LastReceivedInput.Frame)
		return false
	}

	r := bitvector.NewReader(msg.Input.Bits)
	currentFrame := msg.Input.StartFrame
	received := false
	for r.Offset < msg.Input.NumBits && !r.Overrun {
		/*
		* Keep walking through the frames (parsing bits) until we reach
		* the inputs for the frame right after the one we're on.
		 */
		useInputs := currentFrame == n.LastReceivedInput.Frame+1

		for r.ReadBit() > 0 {
			on := r.ReadBit()
			button := r.ReadNibblet()
			if button >= width*32 {
				n.Log.Warnf("dropping input with bit index %d", button)
				return received
			}
			if useInputs {
				if on > 0 {
					n.LastReceivedInput.Set(button)
				} else {
					n.LastReceivedInput.Clear(button)
				}
			}
		}
		if r.Overrun {
			break
		}

		if useInputs {
			n.LastReceivedInput.Frame = currentFrame
			var evt Event
			evt.Init(EventInput)
			evt.Input = n.LastReceivedInput.Clone()
			n.QueueEvent(evt)
			n.NetplayState.Running.LastInputPacketRecvTime = n.Clock.NowMS()
			received = true
		}

		currentFrame++
	}
	if received && n.AckOnly {
		n.SendInputAck()
	}
	return true
}

func (n *Netplay) popAcknowledged(ackFrame int64) {
	for n.PendingOutput.Size > 0 && n.PendingOutput.Front().Frame < ackFrame {
		n.LastAckedInput = n.PendingOutput.Pop()
	}
}

func (n *Netplay) OnInputAck(msg *NetplayMsgType) bool {
	n.popAcknowledged(msg.InputAck.AckFrame)
	return true
}

func (n *Netplay) OnQualityReport(msg *NetplayMsgType) bool {
	// send a reply so the other side can compute the round trip transmit time.
	reply := new(NetplayMsgType)
	reply.Init(QualityReply)
	reply.QualityReply.Pong = msg.QualityReport.Ping
	n.SendMsg(reply)

	n.RemoteFrameAdvantage = msg.QualityReport.FrameAdvantage
	return true
}

func (n *Netplay) OnQualityReply(msg *NetplayMsgType) bool {
	now := n.Clock.NowMS()
	if msg.QualityReply.Pong > now {
		return false
	}
	n.RoundTripTime = int64(now - msg.QualityReply.Pong)
	return true
}

func (n *Netplay) GetNetworkStats() rollapi.NetworkStats {
	return rollapi.NetworkStats{
		Ping:               n.RoundTripTime,
		SendQueueLen:       n.PendingOutput.Size,
		KbpsSent:           n.KbpsSent,
		RemoteFramesBehind: n.RemoteFrameAdvantage,
		LocalFramesBehind:  n.LocalFrameAdvantage,
	}
}

// SetLocalFrameNumber estimates how far ahead of the peer we are, counting
// half a round trip of frames the peer has simulated but not sent yet.
func (n *Netplay) SetLocalFrameNumber(localFrame int64) {
	remoteFrame := n.LastReceivedInput.Frame + (n.RoundTripTime * n.Fps / 1000)
	n.LocalFrameAdvantage = remoteFrame - localFrame
}

func (n *Netplay) RecommendFrameDelay(maxWait int64) int64 {
	return n.TimeSync.RecommendFrameWaitDuration(false, maxWait)
}

func (n *Netplay) GetEvent() (Event, bool) {
	if n.EventQueue.Empty() {
		return Event{}, false
	}
	return n.EventQueue.Pop(), true
}

func (n *Netplay) QueueEvent(e Event) {
	if n.EventQueue.PushEvict(e) {
		n.Log.Warn("endpoint event queue full, dropped oldest event")
	}
}

func (n *Netplay) queueDisconnected() {
	if n.DisconnectEventSent {
		return
	}
	n.QueueEvent(Event{Type: EventDisconnected})
	n.DisconnectEventSent = true
}

func (n *Netplay) UpdateNetworkStats() {
	now := n.Clock.NowMS()

	if n.StatsStartTime == 0 {
		n.StatsStartTime = now
	}
	if now <= n.StatsStartTime || n.PacketsSent == 0 {
		return
	}
	totalBytesSent := n.BytesSent + (UDP_HEADER_SIZE * n.PacketsSent)
	seconds := float64(now-n.StatsStartTime) / 1000.0
	bps := float64(totalBytesSent) / seconds
	udpOverhead := 100.0 * float64(UDP_HEADER_SIZE*n.PacketsSent) / float64(totalBytesSent)

	n.KbpsSent = int64(bps / 1024)

	n.Log.Debugf("network stats -- bandwidth: %d KBps, packets sent: %5d (%.2f pps), KB sent: %d, UDP overhead: %.2f %%",
		n.KbpsSent, n.PacketsSent, float64(n.PacketsSent)/seconds, totalBytesSent/1024, udpOverhead)
}

func (n *Netplay) OnLoopPoll() bool {
	now := n.Clock.NowMS()

	n.PumpSendQueue()
	switch n.CurrentState {
	case Syncing:
		var nextInterval uint64 = SYNC_RETRY_INTERVAL
		if n.NetplayState.Sync.RoundTripsRemaining == NUM_SYNC_PACKETS {
			nextInterval = SYNC_FIRST_RETRY_INTERVAL
		}
		if n.NetplayState.Sync.LastRequestTime+nextInterval < now {
			n.NetplayState.Sync.Retries++
			if n.MaxSyncRetries > 0 && n.NetplayState.Sync.Retries > n.MaxSyncRetries {
				n.Log.Warnf("no sync reply after %d requests, giving up", n.MaxSyncRetries)
				n.queueDisconnected()
				n.CurrentState = Disconnected
				n.ShutDownTimeout = now + UDP_SHUTDOWN_TIMER
				break
			}
			n.Log.Debugf("no luck syncing after %d ms, re-queueing sync packet", nextInterval)
			n.SendSyncRequest()
		}

	case Running:
		if n.NetplayState.Running.LastInputPacketRecvTime+RUNNING_RETRY_INTERVAL < now {
			n.Log.Debugf("haven't exchanged packets in a while (last received: %d last sent: %d), resending",
				n.LastReceivedInput.Frame, n.LastSentInput.Frame)
			if n.AckOnly {
				n.SendInputAck()
			} else {
				n.SendPendingOutput()
			}
			n.NetplayState.Running.LastInputPacketRecvTime = now
		}

		if n.NetplayState.Running.LastQualityReportTime+QUALITY_REPORT_INTERVAL < now {
			msg := new(NetplayMsgType)
			msg.Init(QualityReport)
			msg.QualityReport.Ping = now
			msg.QualityReport.FrameAdvantage = n.LocalFrameAdvantage
			n.SendMsg(msg)
			n.NetplayState.Running.LastQualityReportTime = now
		}

		if n.NetplayState.Running.LastNetworkStatsInterval+NETWORK_STATS_INTERVAL < now {
			n.UpdateNetworkStats()
			n.NetplayState.Running.LastNetworkStatsInterval = now
		}

		if n.LastSendTime+KEEP_ALIVE_INTERVAL < now {
			msg := new(NetplayMsgType)
			msg.Init(KeepAlive)
			n.SendMsg(msg)
		}

		if n.DisconnectTimeout > 0 && n.DisconnectNotifyStart > 0 && !n.DisconnectNotifySent && (n.LastRecvTime+n.DisconnectNotifyStart < now) {
			n.Log.Infof("endpoint has stopped receiving packets for %d ms, sending notification", n.DisconnectNotifyStart)
			var evt Event
			evt.Init(EventNetworkInterrupted)
			if n.DisconnectTimeout > n.DisconnectNotifyStart {
				evt.DisconnectTimeout = n.DisconnectTimeout - n.DisconnectNotifyStart
			}
			n.QueueEvent(evt)
			n.DisconnectNotifySent = true
		}

		if n.DisconnectTimeout > 0 && (n.LastRecvTime+n.DisconnectTimeout < now) {
			if !n.DisconnectEventSent {
				n.Log.Infof("endpoint has stopped receiving packets for %d ms, disconnecting", n.DisconnectTimeout)
				n.queueDisconnected()
			}
		}

	case Disconnected:
		if n.ShutDownTimeout > 0 && n.ShutDownTimeout < now {
			n.Log.Debug("endpoint shut down")
			n.ShutDownTimeout = 0
		}
	}
	return true
}
