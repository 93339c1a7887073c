package rollapi

import "fmt"

// ErrorCode is the error type returned by every session and configuration
// call. Calls add context with fmt.Errorf("%w: ..."), so match codes with
// errors.Is.
type ErrorCode int64

const (
	ERRORCODE_ADD_LOCAL_PLAYER ErrorCode = iota + 1
	ERRORCODE_SOCKET_PARSE
	ERRORCODE_ADD_REMOTE_PLAYER
	ERRORCODE_ADD_SPECTATOR
	ERRORCODE_PLAYER_TYPE_NOT_FOUND
	ERRORCODE_FAILED_SESSION_ALLOC
	ERRORCODE_SESSION_CREATION
	ERRORCODE_SOCKET_BIND_TO_PORT
	ERRORCODE_INVALID_SESSION_TYPE
	ERRORCODE_SESSION_STARTED
	ERRORCODE_INVALID_SESSION_POINTER
	ERRORCODE_NOT_LOCAL_PLAYER
	ERRORCODE_ADVANCE_FRAME
	ERRORCODE_NOT_SYNCHRONIZED
	ERRORCODE_INVALID_PLAYER_HANDLE
	ERRORCODE_PLAYER_DISCONNECTED
	ERRORCODE_MISMATCHED_CHECKSUM
)

var (
	ErrAddLocalPlayer        error = ERRORCODE_ADD_LOCAL_PLAYER
	ErrSocketParse           error = ERRORCODE_SOCKET_PARSE
	ErrAddRemotePlayer       error = ERRORCODE_ADD_REMOTE_PLAYER
	ErrAddSpectator          error = ERRORCODE_ADD_SPECTATOR
	ErrPlayerTypeNotFound    error = ERRORCODE_PLAYER_TYPE_NOT_FOUND
	ErrFailedSessionAlloc    error = ERRORCODE_FAILED_SESSION_ALLOC
	ErrSessionCreation       error = ERRORCODE_SESSION_CREATION
	ErrSocketBindToPort      error = ERRORCODE_SOCKET_BIND_TO_PORT
	ErrInvalidSessionType    error = ERRORCODE_INVALID_SESSION_TYPE
	ErrSessionStarted        error = ERRORCODE_SESSION_STARTED
	ErrInvalidSessionPointer error = ERRORCODE_INVALID_SESSION_POINTER
	ErrNotLocalPlayer        error = ERRORCODE_NOT_LOCAL_PLAYER
	ErrAdvanceFrame          error = ERRORCODE_ADVANCE_FRAME
	ErrNotSynchronized       error = ERRORCODE_NOT_SYNCHRONIZED
	ErrInvalidPlayerHandle   error = ERRORCODE_INVALID_PLAYER_HANDLE
	ErrPlayerDisconnected    error = ERRORCODE_PLAYER_DISCONNECTED
	ErrMismatchedChecksum    error = ERRORCODE_MISMATCHED_CHECKSUM
)

func (e ErrorCode) Error() string {
	switch e {
	case ERRORCODE_ADD_LOCAL_PLAYER:
		return "cannot add local player"
	case ERRORCODE_SOCKET_PARSE:
		return "cannot parse socket address"
	case ERRORCODE_ADD_REMOTE_PLAYER:
		return "cannot add remote player"
	case ERRORCODE_ADD_SPECTATOR:
		return "cannot add spectator"
	case ERRORCODE_PLAYER_TYPE_NOT_FOUND:
		return "player type not found"
	case ERRORCODE_FAILED_SESSION_ALLOC:
		return "failed to allocate session"
	case ERRORCODE_SESSION_CREATION:
		return "session creation failed"
	case ERRORCODE_SOCKET_BIND_TO_PORT:
		return "cannot bind socket to port"
	case ERRORCODE_INVALID_SESSION_TYPE:
		return "invalid session type"
	case ERRORCODE_SESSION_STARTED:
		return "session already started"
	case ERRORCODE_INVALID_SESSION_POINTER:
		return "invalid session"
	case ERRORCODE_NOT_LOCAL_PLAYER:
		return "not a local player"
	case ERRORCODE_ADVANCE_FRAME:
		return "cannot advance frame"
	case ERRORCODE_NOT_SYNCHRONIZED:
		return "session not synchronized"
	case ERRORCODE_INVALID_PLAYER_HANDLE:
		return "invalid player handle"
	case ERRORCODE_PLAYER_DISCONNECTED:
		return "player disconnected"
	case ERRORCODE_MISMATCHED_CHECKSUM:
		return "mismatched checksum"
	}
	return fmt.Sprintf("rollnet error %d", int64(e))
}
