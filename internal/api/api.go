// Package api defines the JSON envelopes exchanged on the execution endpoint.
//
// Both directions use an adjacently tagged envelope: a "status" string naming
// the variant and a "data" object holding its payload.
//
//	{"status":"ExecCmd","data":{"cmd":"echo hi","timeout":5}}
//	{"status":"CommandExecutionOk","data":{"stdout":"hi\n","stderr":"","exit_status":0}}
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/xdg/remexec/internal/executor"
)

// Status is the envelope tag.
type Status string

// Request tags.
const (
	StatusExecCmd Status = "ExecCmd"
)

// Response tags.
const (
	StatusOk           Status = "CommandExecutionOk"
	StatusTimeOut      Status = "CommandExecutionTimeOut"
	StatusSystemError  Status = "CommandSystemError"
	StatusGenericError Status = "GenericError"
)

// Errors returned by DecodeRequest. Both are reported to callers as GenericError.
var (
	ErrMalformed     = errors.New("malformed request")
	ErrUnknownStatus = errors.New("unknown request status")
)

// CommandRequest is the payload of an ExecCmd request.
type CommandRequest struct {
	Cmd     string `json:"cmd"`
	Timeout uint32 `json:"timeout"`
}

// Request is the inbound envelope.
type Request struct {
	Status Status         `json:"status"`
	Data   CommandRequest `json:"data"`
}

// NewExecRequest builds an ExecCmd envelope.
func NewExecRequest(cmd string, timeout uint32) Request {
	return Request{Status: StatusExecCmd, Data: CommandRequest{Cmd: cmd, Timeout: timeout}}
}

// DecodeRequest reads one request envelope from r and converts it to an
// executor.Request. Both "cmd" and "timeout" must be present; timeout must
// fit in an unsigned 32-bit integer.
func DecodeRequest(r io.Reader) (executor.Request, error) {
	var env struct {
		Status Status          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return executor.Request{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	switch env.Status {
	case StatusExecCmd:
	case "":
		return executor.Request{}, fmt.Errorf("%w: missing status", ErrMalformed)
	default:
		return executor.Request{}, fmt.Errorf("%w: %q", ErrUnknownStatus, env.Status)
	}

	var data struct {
		Cmd     *string `json:"cmd"`
		Timeout *uint32 `json:"timeout"`
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return executor.Request{}, fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return executor.Request{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if data.Cmd == nil {
		return executor.Request{}, fmt.Errorf("%w: missing field cmd", ErrMalformed)
	}
	if data.Timeout == nil {
		return executor.Request{}, fmt.Errorf("%w: missing field timeout", ErrMalformed)
	}

	return executor.Request{Command: *data.Cmd, Timeout: *data.Timeout}, nil
}

// CommandOutput is the payload of CommandExecutionOk.
type CommandOutput struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitStatus int32  `json:"exit_status"`
}

// CommandTimedOut is the payload of CommandExecutionTimeOut.
type CommandTimedOut struct {
	Time         int64  `json:"time"`
	ErrorMessage string `json:"error_message"`
	CommandPID   uint32 `json:"command_pid"`
}

// InternalError is the payload of CommandSystemError and GenericError.
type InternalError struct {
	ErrorMessage string `json:"error_message"`
	ErrorCode    int64  `json:"error_code"`
}

// Response is the outbound envelope. Data holds a CommandOutput,
// CommandTimedOut or InternalError matching Status.
type Response struct {
	Status Status `json:"status"`
	Data   any    `json:"data"`
}

// UnmarshalJSON decodes Data into the payload type selected by Status.
func (r *Response) UnmarshalJSON(b []byte) error {
	var env struct {
		Status Status          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	var data any
	switch env.Status {
	case StatusOk:
		data = &CommandOutput{}
	case StatusTimeOut:
		data = &CommandTimedOut{}
	case StatusSystemError, StatusGenericError:
		data = &InternalError{}
	default:
		return fmt.Errorf("unknown response status %q", env.Status)
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("decode %s data: %w", env.Status, err)
	}

	r.Status = env.Status
	switch d := data.(type) {
	case *CommandOutput:
		r.Data = *d
	case *CommandTimedOut:
		r.Data = *d
	case *InternalError:
		r.Data = *d
	}
	return nil
}

// FromResult maps an engine outcome to its response envelope.
// An error always becomes CommandSystemError; GenericError is never produced here.
func FromResult(res executor.Result, err error) Response {
	if err != nil {
		code := int64(-1)
		var xerr *executor.Error
		if errors.As(err, &xerr) {
			code = xerr.Code
		}
		return Response{
			Status: StatusSystemError,
			Data:   InternalError{ErrorMessage: err.Error(), ErrorCode: code},
		}
	}

	switch r := res.(type) {
	case executor.Completed:
		return Response{
			Status: StatusOk,
			Data:   CommandOutput{Stdout: r.Stdout, Stderr: r.Stderr, ExitStatus: r.ExitStatus},
		}
	case executor.TimedOut:
		return Response{
			Status: StatusTimeOut,
			Data:   CommandTimedOut{Time: r.ElapsedSeconds, ErrorMessage: r.Message, CommandPID: r.ProcessID},
		}
	}
	panic(fmt.Sprintf("api: unhandled result %T", res))
}

// NewGenericError builds a GenericError envelope for a request that could not
// be understood.
func NewGenericError(msg string) Response {
	return Response{
		Status: StatusGenericError,
		Data:   InternalError{ErrorMessage: msg, ErrorCode: -1},
	}
}
