package backend

import (
	"fmt"
	"sort"

	"github.com/HeatXD/rollnet/rollnet/lib"
	"github.com/HeatXD/rollnet/rollnet/network"
	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/transport"
	"github.com/sirupsen/logrus"
)

// P2PConfig is everything a peer to peer session is built from. Players
// holds every player and spectator; addresses are already normalized.
type P2PConfig struct {
	ID                    string
	NumPlayers            int64
	Fps                   int64
	InputDelay            int64
	MaxPredictionFrames   int64
	SparseSaving          bool
	DisconnectTimeout     uint64
	DisconnectNotifyStart uint64
	MaxSyncRetries        int64
	Players               []rollapi.Player
	Socket                transport.Socket
	Clock                 platform.Clock
	Log                   *logrus.Entry
}

// Peer is one remote address and the player handles it plays for.
type Peer struct {
	Endpoint *network.Netplay
	Handles  []rollapi.PlayerHandle
}

type stagedInput struct {
	Bits uint32
	Set  bool
}

type P2PBackend struct {
	SessionID             string
	Log                   *logrus.Entry
	Clock                 platform.Clock
	Socket                transport.Socket
	Poll                  lib.Poll
	Sync                  lib.Sync
	NumPlayers            int64
	Fps                   int64
	MaxPredictionFrames   int64
	SparseSaving          bool
	DisconnectTimeout     uint64
	DisconnectNotifyStart uint64
	MaxSyncRetries        int64
	LocalHandles          []rollapi.PlayerHandle
	Peers                 []*Peer
	PeerByAddr            map[string]*Peer
	PeerByHandle          map[rollapi.PlayerHandle]*Peer
	Spectators            map[rollapi.PlayerHandle]*network.Netplay
	SpectatorByAddr       map[string]*network.Netplay
	LocalConnectStatus    []rollapi.ConnectStatus
	Staged                []stagedInput
	NextSpectatorFrame    int64
	NextRecommendedSleep  int64
	DisconnectFrame       int64
	Synchronizing         bool
	EventQueue            EventQueue
}

func NewP2PBackend(cfg P2PConfig) *P2PBackend {
	p := new(P2PBackend)
	p.SessionID = cfg.ID
	p.Log = cfg.Log
	if p.Log == nil {
		p.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	p.Clock = cfg.Clock
	if p.Clock == nil {
		p.Clock = platform.SystemClock{}
	}
	p.Socket = cfg.Socket
	p.NumPlayers = cfg.NumPlayers
	p.Fps = cfg.Fps
	p.MaxPredictionFrames = cfg.MaxPredictionFrames
	p.SparseSaving = cfg.SparseSaving
	p.DisconnectTimeout = cfg.DisconnectTimeout
	p.DisconnectNotifyStart = cfg.DisconnectNotifyStart
	p.MaxSyncRetries = cfg.MaxSyncRetries
	p.Synchronizing = true
	p.NextSpectatorFrame = 0
	p.NextRecommendedSleep = 0
	p.DisconnectFrame = lib.NULL_FRAME
	p.EventQueue.Init(p.Log)
	p.Poll.Init()

	p.Sync.Init(lib.Config{
		NumPlayers:          p.NumPlayers,
		NumPredictionFrames: p.MaxPredictionFrames,
		SparseSaving:        p.SparseSaving,
		Log:                 p.Log,
	})
	p.LocalConnectStatus = make([]rollapi.ConnectStatus, p.NumPlayers)
	for i := range p.LocalConnectStatus {
		p.LocalConnectStatus[i].LastFrame = lib.NULL_FRAME
	}
	p.Staged = make([]stagedInput, p.NumPlayers)
	p.PeerByAddr = make(map[string]*Peer)
	p.PeerByHandle = make(map[rollapi.PlayerHandle]*Peer)
	p.Spectators = make(map[rollapi.PlayerHandle]*network.Netplay)
	p.SpectatorByAddr = make(map[string]*network.Netplay)

	players := append([]rollapi.Player(nil), cfg.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].Handle < players[j].Handle })
	for _, player := range players {
		if player.Type == rollapi.PLAYERTYPE_LOCAL {
			p.LocalHandles = append(p.LocalHandles, player.Handle)
			p.Sync.SetFrameDelay(int64(player.Handle), cfg.InputDelay)
		}
	}
	for _, player := range players {
		switch player.Type {
		case rollapi.PLAYERTYPE_REMOTE:
			p.AddRemotePlayer(player)
		case rollapi.PLAYERTYPE_SPECTATOR:
			p.AddSpectator(player)
		}
	}
	p.Log.Infof("p2p session with %d players, %d local, %d spectators", p.NumPlayers, len(p.LocalHandles), len(p.Spectators))
	p.CheckInitialSync()
	return p
}

func (p *P2PBackend) newEndpoint(addr string, queue int64, width int64, status []rollapi.ConnectStatus) *network.Netplay {
	endpoint := new(network.Netplay)
	endpoint.Init(network.Config{
		Socket:     p.Socket,
		RemoteAddr: addr,
		Queue:      queue,
		InputWidth: width,
		Fps:        p.Fps,
		Status:     status,
		Clock:      p.Clock,
		Log:        p.Log,
	}, &p.Poll)
	endpoint.SetDisconnectTimeout(p.DisconnectTimeout)
	endpoint.SetDisconnectNotifyStart(p.DisconnectNotifyStart)
	endpoint.MaxSyncRetries = p.MaxSyncRetries
	return endpoint
}

// AddRemotePlayer attaches the player to the endpoint of its address,
// creating and synchronizing the endpoint on first use.
func (p *P2PBackend) AddRemotePlayer(player rollapi.Player) {
	peer, ok := p.PeerByAddr[player.Address]
	if !ok {
		width := lib.MAX(int64(len(p.LocalHandles)), 1)
		peer = &Peer{Endpoint: p.newEndpoint(player.Address, int64(player.Handle), width, p.LocalConnectStatus)}
		p.PeerByAddr[player.Address] = peer
		p.Peers = append(p.Peers, peer)
		peer.Endpoint.Synchronize()
	}
	peer.Handles = append(peer.Handles, player.Handle)
	p.PeerByHandle[player.Handle] = peer
}

func (p *P2PBackend) AddSpectator(player rollapi.Player) {
	endpoint := p.newEndpoint(player.Address, int64(player.Handle), p.NumPlayers, p.LocalConnectStatus)
	p.Spectators[player.Handle] = endpoint
	p.SpectatorByAddr[player.Address] = endpoint
	endpoint.Synchronize()
}

func (p *P2PBackend) ID() string {
	return p.SessionID
}

// PollRemoteClients reads every waiting packet, runs the endpoint timers and
// turns endpoint events into session state and events. It never blocks.
func (p *P2PBackend) PollRemoteClients() error {
	resyncAllowed := p.Sync.FrameCount == 0
	for _, peer := range p.Peers {
		peer.Endpoint.ResyncAllowed = resyncAllowed
	}
	for packet, ok := p.Socket.TryReceive(); ok; packet, ok = p.Socket.TryReceive() {
		var endpoint *network.Netplay
		if peer, found := p.PeerByAddr[packet.Addr]; found {
			endpoint = peer.Endpoint
		} else if spectator, found := p.SpectatorByAddr[packet.Addr]; found {
			endpoint = spectator
		} else {
			p.Log.Debugf("dropping packet from unknown address %s", packet.Addr)
			continue
		}
		msg, err := network.Decode(packet.Data)
		if err != nil {
			p.Log.WithError(err).Debugf("dropping packet from %s", packet.Addr)
			continue
		}
		endpoint.OnMsg(msg)
	}

	p.Poll.Pump()
	p.PollNetplayEvents()

	if !p.Synchronizing {
		// notify all of our endpoints of their local frame number for their
		// next connection quality report
		for _, peer := range p.Peers {
			peer.Endpoint.SetLocalFrameNumber(p.Sync.FrameCount)
		}
	}
	return nil
}

func (p *P2PBackend) PollNetplayEvents() {
	for _, peer := range p.Peers {
		for evt, ok := peer.Endpoint.GetEvent(); ok; evt, ok = peer.Endpoint.GetEvent() {
			p.OnNetplayPeerEvent(evt, peer)
		}
	}
	for handle, spectator := range p.Spectators {
		for evt, ok := spectator.GetEvent(); ok; evt, ok = spectator.GetEvent() {
			p.OnNetplaySpectatorEvent(evt, handle, spectator)
		}
	}
}

func (p *P2PBackend) peerDisconnected(peer *Peer) bool {
	for _, handle := range peer.Handles {
		if !p.LocalConnectStatus[handle].Disconnected {
			return false
		}
	}
	return true
}

func (p *P2PBackend) OnNetplayPeerEvent(evt network.Event, peer *Peer) {
	addr := peer.Endpoint.RemoteAddr
	switch evt.Type {
	case network.EventSynchronizing:
		p.reconnect(peer)
		p.EventQueue.Push(rollapi.Event{
			Type:   rollapi.EVENT_SYNCHRONIZING,
			Player: peer.Handles[0],
			Addr:   addr,
			Count:  evt.Synchronizing.Count,
			Total:  evt.Synchronizing.Total,
		})

	case network.EventSynchronized:
		p.reconnect(peer)
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_SYNCHRONIZED, Player: peer.Handles[0], Addr: addr})
		p.CheckInitialSync()

	case network.EventInput:
		if int64(len(peer.Handles)) != evt.Input.Width() {
			p.Log.Warnf("input from %s has %d words for %d players, ignoring", addr, evt.Input.Width(), len(peer.Handles))
			return
		}
		for i, handle := range peer.Handles {
			status := &p.LocalConnectStatus[handle]
			if status.Disconnected {
				continue
			}
			if status.LastFrame != lib.NULL_FRAME && evt.Input.Frame != status.LastFrame+1 {
				p.Log.Warnf("input for player %d at frame %d after frame %d, ignoring", handle, evt.Input.Frame, status.LastFrame)
				continue
			}
			var input lib.GameInput
			input.SimpleInit(evt.Input.Frame, evt.Input.Bits[i])
			p.Sync.AddRemoteInput(int64(handle), input)
			status.LastFrame = evt.Input.Frame
		}

	case network.EventDisconnected:
		for _, handle := range peer.Handles {
			if !p.LocalConnectStatus[handle].Disconnected {
				p.DisconnectPlayerQueue(handle, p.LocalConnectStatus[handle].LastFrame)
			}
		}

	case network.EventNetworkInterrupted:
		p.EventQueue.Push(rollapi.Event{
			Type:              rollapi.EVENT_NETWORK_INTERRUPTED,
			Player:            peer.Handles[0],
			Addr:              addr,
			DisconnectTimeout: evt.DisconnectTimeout,
		})

	case network.EventNetworkResumed:
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_NETWORK_RESUMED, Player: peer.Handles[0], Addr: addr})
	}
}

// reconnect takes back a peer that restarted its handshake before the
// first frame was simulated.
func (p *P2PBackend) reconnect(peer *Peer) {
	if p.Sync.FrameCount != 0 || !p.peerDisconnected(peer) {
		return
	}
	p.Log.Infof("peer %s is synchronizing again", peer.Endpoint.RemoteAddr)
	for _, handle := range peer.Handles {
		p.LocalConnectStatus[handle] = rollapi.ConnectStatus{LastFrame: lib.NULL_FRAME}
	}
	p.Synchronizing = true
}

func (p *P2PBackend) OnNetplaySpectatorEvent(evt network.Event, handle rollapi.PlayerHandle, spectator *network.Netplay) {
	addr := spectator.RemoteAddr
	switch evt.Type {
	case network.EventSynchronizing:
		p.EventQueue.Push(rollapi.Event{
			Type:   rollapi.EVENT_SYNCHRONIZING,
			Player: handle,
			Addr:   addr,
			Count:  evt.Synchronizing.Count,
			Total:  evt.Synchronizing.Total,
		})
	case network.EventSynchronized:
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_SYNCHRONIZED, Player: handle, Addr: addr})
		p.CheckInitialSync()
	case network.EventDisconnected:
		spectator.Disconnect()
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_DISCONNECTED, Player: handle, Addr: addr})
		p.CheckInitialSync()
	case network.EventNetworkInterrupted:
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_NETWORK_INTERRUPTED, Player: handle, Addr: addr, DisconnectTimeout: evt.DisconnectTimeout})
	case network.EventNetworkResumed:
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_NETWORK_RESUMED, Player: handle, Addr: addr})
	}
}

func (p *P2PBackend) CheckInitialSync() {
	if !p.Synchronizing {
		return
	}
	// Check to see if everyone is now synchronized.  If so,
	// go ahead and tell the client that we're ok to accept input.
	for _, peer := range p.Peers {
		if !p.peerDisconnected(peer) && !peer.Endpoint.IsSynchronized() {
			return
		}
	}
	for _, spectator := range p.Spectators {
		if !spectator.IsDisconnected() && !spectator.IsSynchronized() {
			return
		}
	}
	p.Log.Info("all peers synchronized, session running")
	p.Synchronizing = false
}

func (p *P2PBackend) GetEvents() ([]rollapi.Event, error) {
	return p.EventQueue.Drain(), nil
}

func (p *P2PBackend) GetCurrentState() (rollapi.SessionState, error) {
	if p.Synchronizing {
		return rollapi.SESSIONSTATE_SYNCHRONIZING, nil
	}
	return rollapi.SESSIONSTATE_RUNNING, nil
}

func (p *P2PBackend) isLocal(handle rollapi.PlayerHandle) bool {
	for _, local := range p.LocalHandles {
		if local == handle {
			return true
		}
	}
	return false
}

// AddLocalInput stages the input of a local player for the next AdvanceFrame.
func (p *P2PBackend) AddLocalInput(handle rollapi.PlayerHandle, bits uint32) error {
	if handle < 0 || int64(handle) >= p.NumPlayers {
		if _, ok := p.Spectators[handle]; ok {
			return fmt.Errorf("%w: handle %d is a spectator", rollapi.ErrNotLocalPlayer, handle)
		}
		return fmt.Errorf("%w: %d", rollapi.ErrInvalidPlayerHandle, handle)
	}
	if !p.isLocal(handle) {
		return fmt.Errorf("%w: handle %d", rollapi.ErrNotLocalPlayer, handle)
	}
	if p.Synchronizing {
		return rollapi.ErrNotSynchronized
	}
	p.Staged[handle] = stagedInput{Bits: bits, Set: true}
	return nil
}

// ConfirmedFrame is the last frame for which the input of every connected
// player is known.
func (p *P2PBackend) ConfirmedFrame() int64 {
	confirmed := int64(-1)
	first := true
	for i := range p.LocalConnectStatus {
		if p.LocalConnectStatus[i].Disconnected {
			continue
		}
		if first || p.LocalConnectStatus[i].LastFrame < confirmed {
			confirmed = p.LocalConnectStatus[i].LastFrame
			first = false
		}
	}
	if first {
		return p.Sync.FrameCount - 1
	}
	return confirmed
}

// AdvanceFrame returns the actions the host performs to simulate the next
// frame, or SkipFrame when running further ahead would break the prediction
// window.
func (p *P2PBackend) AdvanceFrame() (rollapi.FrameResult, error) {
	if p.Synchronizing {
		return rollapi.FrameResult{}, fmt.Errorf("%w: session is synchronizing", rollapi.ErrAdvanceFrame)
	}
	for _, handle := range p.LocalHandles {
		if !p.Staged[handle].Set {
			return rollapi.FrameResult{}, fmt.Errorf("%w: no input for local player %d", rollapi.ErrAdvanceFrame, handle)
		}
	}

	p.CheckRemoteDisconnects()
	confirmed := p.ConfirmedFrame()

	if p.Sync.ReachedPredictionThreshold(confirmed) {
		p.Log.Debugf("frame %d is %d frames past confirmed frame %d, skipping", p.Sync.FrameCount, p.Sync.FrameCount-confirmed, confirmed)
		return rollapi.FrameResult{SkipFrame: true}, nil
	}

	var actions []rollapi.FrameAction
	seekTo := p.Sync.CheckSimulationConsistency(p.DisconnectFrame)
	p.DisconnectFrame = lib.NULL_FRAME
	if seekTo != lib.NULL_FRAME {
		actions = p.Sync.AdjustSimulation(seekTo, confirmed, p.LocalConnectStatus, actions)
	}

	if p.SparseSaving {
		actions = p.Sync.CheckLastSavedState(confirmed, p.LocalConnectStatus, actions)
	} else {
		actions = append(actions, p.Sync.SaveCurrentFrame())
	}

	if confirmed >= 0 {
		p.SendConfirmedToSpectators(confirmed)
		p.Sync.SetLastConfirmedFrame(confirmed)
	}

	p.CheckWaitRecommendation()
	p.CommitLocalInputs()

	actions = append(actions, p.Sync.AdvanceFrame(p.LocalConnectStatus))
	return rollapi.FrameResult{Actions: actions}, nil
}

// CommitLocalInputs moves the staged inputs into the local queues and sends
// them to every peer.
func (p *P2PBackend) CommitLocalInputs() {
	if len(p.LocalHandles) == 0 {
		return
	}
	var input lib.GameInput
	input.Init(lib.NULL_FRAME, nil, int64(len(p.LocalHandles)))
	for i, handle := range p.LocalHandles {
		added := p.Sync.AddLocalInput(int64(handle), p.Staged[handle].Bits)
		p.Staged[handle] = stagedInput{}
		input.Bits[i] = added.Word()
		input.Frame = added.Frame
		if added.Frame != lib.NULL_FRAME {
			p.LocalConnectStatus[handle].LastFrame = added.Frame
		}
	}
	if input.Frame == lib.NULL_FRAME {
		return
	}
	for _, peer := range p.Peers {
		if !p.peerDisconnected(peer) {
			peer.Endpoint.SendInput(input)
		}
	}
}

func (p *P2PBackend) SendConfirmedToSpectators(confirmed int64) {
	if len(p.Spectators) == 0 {
		p.NextSpectatorFrame = confirmed + 1
		return
	}
	for p.NextSpectatorFrame <= confirmed {
		input := p.Sync.GetConfirmedInputs(p.NextSpectatorFrame, p.LocalConnectStatus)
		for _, spectator := range p.Spectators {
			spectator.SendInput(input)
		}
		p.NextSpectatorFrame++
	}
}

func (p *P2PBackend) CheckWaitRecommendation() {
	// send timesync notifications if now is the proper time
	if p.Sync.FrameCount <= p.NextRecommendedSleep {
		return
	}
	interval := int64(0)
	for _, peer := range p.Peers {
		if peer.Endpoint.IsRunning() {
			interval = lib.MAX(interval, peer.Endpoint.RecommendFrameDelay(p.MaxPredictionFrames))
		}
	}
	if interval > 0 {
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_WAIT_RECOMMENDATION, SkipFrames: uint32(interval)})
		p.NextRecommendedSleep = p.Sync.FrameCount + RECOMMENDATION_INTERVAL
	}
}

// CheckRemoteDisconnects drops players that another peer has already
// dropped, at the earliest last frame anyone received from them.
func (p *P2PBackend) CheckRemoteDisconnects() {
	for handle := rollapi.PlayerHandle(0); int64(handle) < p.NumPlayers; handle++ {
		if p.LocalConnectStatus[handle].Disconnected || p.isLocal(handle) {
			continue
		}
		disconnected := false
		syncto := p.LocalConnectStatus[handle].LastFrame
		for _, peer := range p.Peers {
			if !peer.Endpoint.IsRunning() {
				continue
			}
			connected, lastFrame := peer.Endpoint.GetPeerConnectStatus(int64(handle))
			if !connected {
				disconnected = true
				syncto = lib.MIN(syncto, lastFrame)
			}
		}
		if disconnected {
			p.Log.Infof("disconnecting player %d by remote request", handle)
			p.DisconnectPlayerQueue(handle, syncto)
		}
	}
}

// DisconnectPlayerQueue marks the player disconnected after frame syncto.
// Frames after it already simulated are replayed on the next AdvanceFrame.
func (p *P2PBackend) DisconnectPlayerQueue(handle rollapi.PlayerHandle, syncto int64) {
	peer := p.PeerByHandle[handle]
	p.LocalConnectStatus[handle].Disconnected = true
	p.LocalConnectStatus[handle].LastFrame = syncto
	if p.peerDisconnected(peer) {
		peer.Endpoint.Disconnect()
	}

	replayFrom := syncto + 1
	if replayFrom <= p.Sync.LastConfirmedFrame {
		p.Log.Warnf("player %d disconnected at frame %d before confirmed frame %d", handle, syncto, p.Sync.LastConfirmedFrame)
		replayFrom = p.Sync.LastConfirmedFrame + 1
	}
	if replayFrom < p.Sync.FrameCount && (p.DisconnectFrame == lib.NULL_FRAME || replayFrom < p.DisconnectFrame) {
		p.DisconnectFrame = replayFrom
	}

	p.Log.Infof("player %d disconnected after frame %d", handle, syncto)
	p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_DISCONNECTED, Player: handle, Addr: peer.Endpoint.RemoteAddr})
	p.CheckInitialSync()
}

func (p *P2PBackend) DisconnectPlayer(handle rollapi.PlayerHandle) error {
	if spectator, ok := p.Spectators[handle]; ok {
		if spectator.IsDisconnected() {
			return fmt.Errorf("%w: spectator %d", rollapi.ErrPlayerDisconnected, handle)
		}
		spectator.Disconnect()
		p.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_DISCONNECTED, Player: handle, Addr: spectator.RemoteAddr})
		p.CheckInitialSync()
		return nil
	}
	if _, ok := p.PeerByHandle[handle]; !ok {
		if p.isLocal(handle) {
			return fmt.Errorf("%w: cannot disconnect local player %d", rollapi.ErrInvalidPlayerHandle, handle)
		}
		return fmt.Errorf("%w: %d", rollapi.ErrInvalidPlayerHandle, handle)
	}
	if p.LocalConnectStatus[handle].Disconnected {
		return fmt.Errorf("%w: player %d", rollapi.ErrPlayerDisconnected, handle)
	}
	p.Log.Infof("disconnecting player %d at frame %d by user request", handle, p.LocalConnectStatus[handle].LastFrame)
	p.DisconnectPlayerQueue(handle, p.LocalConnectStatus[handle].LastFrame)
	return nil
}

// GetFramesAhead is how many frames this peer runs ahead of the slowest
// connected peer.
func (p *P2PBackend) GetFramesAhead() (int64, error) {
	if p.Synchronizing {
		return 0, rollapi.ErrNotSynchronized
	}
	ahead := int64(0)
	first := true
	for _, peer := range p.Peers {
		if !peer.Endpoint.IsRunning() {
			continue
		}
		advantage := peer.Endpoint.TimeSync.AverageFrameAdvantage()
		if first || advantage > ahead {
			ahead = advantage
			first = false
		}
	}
	return ahead, nil
}

func (p *P2PBackend) GetNetworkStats(handle rollapi.PlayerHandle) (rollapi.NetworkStats, error) {
	var endpoint *network.Netplay
	if spectator, ok := p.Spectators[handle]; ok {
		endpoint = spectator
	} else if peer, ok := p.PeerByHandle[handle]; ok {
		endpoint = peer.Endpoint
	} else {
		return rollapi.NetworkStats{}, fmt.Errorf("%w: %d has no network endpoint", rollapi.ErrInvalidPlayerHandle, handle)
	}
	if !endpoint.IsRunning() {
		return rollapi.NetworkStats{}, fmt.Errorf("%w: endpoint %s is %s", rollapi.ErrNotSynchronized, endpoint.RemoteAddr, endpoint.CurrentState)
	}
	stats := endpoint.GetNetworkStats()
	if int64(handle) < p.NumPlayers {
		stats.RecvQueueLen = lib.MAX(0, p.LocalConnectStatus[handle].LastFrame-p.Sync.FrameCount+1)
	}
	return stats, nil
}

// Close tells every peer we are leaving and releases the socket.
func (p *P2PBackend) Close() error {
	for _, peer := range p.Peers {
		peer.Endpoint.Disconnect()
	}
	for _, spectator := range p.Spectators {
		spectator.Disconnect()
	}
	p.Log.Info("closing p2p session")
	return p.Socket.Close()
}
