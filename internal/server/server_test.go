package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"

	"github.com/xdg/remexec/internal/api"
	"github.com/xdg/remexec/internal/executor"
)

// fakeExecutor returns a canned outcome and records the last request.
type fakeExecutor struct {
	res executor.Result
	err error
	got executor.Request
}

func (f *fakeExecutor) Execute(_ context.Context, req executor.Request) (executor.Result, error) {
	f.got = req
	return f.res, f.err
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, api.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/endpoint", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp api.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return rr, resp
}

func TestNewServer(t *testing.T) {
	server := NewServer(&fakeExecutor{})

	if server.Addr != "0.0.0.0:3000" {
		t.Errorf("expected addr 0.0.0.0:3000, got %s", server.Addr)
	}
	if !server.Metrics {
		t.Error("Metrics should default to true")
	}
}

func TestServer_StartStop(t *testing.T) {
	server := NewServer(&fakeExecutor{res: executor.Completed{}})
	server.Addr = "127.0.0.1:0"

	if err := server.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	addr := server.ListenAddr()
	if addr == "" {
		t.Error("ListenAddr should return non-empty after Start")
	}

	if err := server.Start(); err == nil {
		t.Error("second Start should fail")
	}

	resp, err := http.Post("http://"+addr+"/endpoint", "application/json",
		strings.NewReader(`{"status":"ExecCmd","data":{"cmd":"true","timeout":0}}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	if err := server.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := server.Stop(context.Background()); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestServer_HandleEndpoint_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		res        executor.Result
		err        error
		wantStatus api.Status
		wantData   any
	}{
		{
			name:       "completed",
			res:        executor.Completed{Stdout: "hello\n", ExitStatus: 0},
			wantStatus: api.StatusOk,
			wantData:   api.CommandOutput{Stdout: "hello\n"},
		},
		{
			name:       "non-zero exit",
			res:        executor.Completed{ExitStatus: 7},
			wantStatus: api.StatusOk,
			wantData:   api.CommandOutput{ExitStatus: 7},
		},
		{
			name:       "timed out",
			res:        executor.TimedOut{ElapsedSeconds: 1, Message: executor.TimeoutMessage, ProcessID: 99},
			wantStatus: api.StatusTimeOut,
			wantData:   api.CommandTimedOut{Time: 1, ErrorMessage: executor.TimeoutMessage, CommandPID: 99},
		},
		{
			name:       "system error",
			err:        &executor.Error{Op: "spawn", Code: int64(syscall.EACCES), Err: errors.New("permission denied")},
			wantStatus: api.StatusSystemError,
			wantData:   api.InternalError{ErrorMessage: "permission denied", ErrorCode: int64(syscall.EACCES)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeExecutor{res: tt.res, err: tt.err}
			h := NewServer(fake).Handler()

			rr, resp := post(t, h, `{"status":"ExecCmd","data":{"cmd":"echo hello","timeout":5}}`)

			if rr.Code != http.StatusOK {
				t.Errorf("HTTP status: got %d, want 200", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q, want application/json", ct)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Data != tt.wantData {
				t.Errorf("data: got %#v, want %#v", resp.Data, tt.wantData)
			}
			if fake.got != (executor.Request{Command: "echo hello", Timeout: 5}) {
				t.Errorf("executor got %+v", fake.got)
			}
		})
	}
}

func TestServer_HandleEndpoint_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"unknown status", `{"status":"Reboot","data":{}}`},
		{"negative timeout", `{"status":"ExecCmd","data":{"cmd":"true","timeout":-5}}`},
		{"missing cmd", `{"status":"ExecCmd","data":{"timeout":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeExecutor{res: executor.Completed{}}
			rr, resp := post(t, NewServer(fake).Handler(), tt.body)

			if rr.Code != http.StatusOK {
				t.Errorf("HTTP status: got %d, want 200", rr.Code)
			}
			if resp.Status != api.StatusGenericError {
				t.Errorf("status: got %q, want %q", resp.Status, api.StatusGenericError)
			}
			data, ok := resp.Data.(api.InternalError)
			if !ok {
				t.Fatalf("data: got %T, want api.InternalError", resp.Data)
			}
			if data.ErrorCode != -1 || data.ErrorMessage == "" {
				t.Errorf("data: got %+v", data)
			}
			if fake.got != (executor.Request{}) {
				t.Errorf("executor should not be called, got %+v", fake.got)
			}
		})
	}
}

func TestServer_WrongMethod(t *testing.T) {
	h := NewServer(&fakeExecutor{}).Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/endpoint", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("HTTP status: got %d, want 405", rr.Code)
	}
}

func TestServer_Health(t *testing.T) {
	h := NewServer(&fakeExecutor{}).Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("HTTP status: got %d, want 200", rr.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status: got %q, want ok", health.Status)
	}
	if health.Children < -1 {
		t.Errorf("children: got %d", health.Children)
	}
}

func TestServer_Metrics(t *testing.T) {
	server := NewServer(&fakeExecutor{res: executor.Completed{}})
	h := server.Handler()
	post(t, h, `{"status":"ExecCmd","data":{"cmd":"true","timeout":1}}`)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("HTTP status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `remexec_server_http_requests_total{endpoint="/endpoint",method="POST",status="200"}`) {
		t.Errorf("metrics missing request counter:\n%s", rr.Body.String())
	}

	server.Metrics = false
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("metrics disabled: got %d, want 404", rr.Code)
	}
}
