package network

import "github.com/HeatXD/rollnet/rollnet/rollapi"

const MSG_MAX_PLAYERS = rollapi.MAX_PLAYERS

type MsgType uint8

const (
	Invalid MsgType = iota
	SyncRequest
	SyncReply
	Input
	QualityReport
	QualityReply
	KeepAlive
	InputAck
)

func (t MsgType) String() string {
	switch t {
	case SyncRequest:
		return "sync-request"
	case SyncReply:
		return "sync-reply"
	case Input:
		return "input"
	case QualityReport:
		return "quality-report"
	case QualityReply:
		return "quality-reply"
	case KeepAlive:
		return "keep-alive"
	case InputAck:
		return "input-ack"
	}
	return "invalid"
}

type HdrType struct {
	Magic          uint16
	SequenceNumber uint16
	Type           MsgType
}

type SyncRequestType struct {
	RandomRequest uint32 /* please reply back with this random data */
}

type SyncReplyType struct {
	RandomReply uint32 /* OK, here's your random data back */
}

type QualityReportType struct {
	FrameAdvantage int64 /* what's the other guy's frame advantage? */
	Ping           uint64
}

type QualityReplyType struct {
	Pong uint64
}

// InputType carries every unacknowledged input starting at StartFrame,
// delta compressed against the last input the receiver acknowledged.
type InputType struct {
	PeerConnectStatus   []rollapi.ConnectStatus
	StartFrame          int64
	DisconnectRequested bool
	AckFrame            int64
	NumBits             int64
	InputWidth          int64
	Bits                []byte
}

type InputAckType struct {
	AckFrame int64
}

type NetplayMsgType struct {
	Hdr           HdrType
	SyncRequest   SyncRequestType
	SyncReply     SyncReplyType
	QualityReport QualityReportType
	QualityReply  QualityReplyType
	Input         InputType
	InputAck      InputAckType
}

type StateType struct {
	Sync    SyncType
	Running RunningType
}

type SyncType struct {
	RoundTripsRemaining uint32
	Random              uint32
	LastRequestTime     uint64
	Retries             int64
}

type RunningType struct {
	LastQualityReportTime    uint64
	LastNetworkStatsInterval uint64
	LastInputPacketRecvTime  uint64
}

func (n *NetplayMsgType) Init(t MsgType) {
	n.Hdr.Type = t
}
