package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/application"
	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"go.uber.org/zap"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeValidation     = 40000
	codeUnauthorized   = 40100
	codeNotFound       = 40400
	codeStorage        = 50000
)

type Server struct {
	service  *application.RecordService
	log      *zap.Logger
	listener net.Listener
	path     string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start listens on the unix socket at path, replacing a stale socket file.
func Start(path string, service *application.RecordService, log *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{service: service, log: log.Named("rpc"), listener: ln, path: path, ctx: ctx, cancel: cancel}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Error("accept failed", zap.Error(err))
			}
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting, cancels in-flight calls and waits for connections
// to finish.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.cancel()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(s.ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || s.ctx.Err() != nil {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(s.ctx, req)
		if err := enc.Encode(resp); err != nil {
			s.log.Warn("write response failed", zap.String("method", req.Method), zap.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "records.create":
		if resp, ok := s.authz(ctx, req); !ok {
			return resp
		}
		var p struct {
			domain.RecordInput
			Token string `json:"token"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.CreateRecord(ctx, p.RecordInput)
		if err != nil {
			return s.appError(req, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "records.search":
		if resp, ok := s.authz(ctx, req); !ok {
			return resp
		}
		var p struct {
			Token    string `json:"token"`
			Q        string `json:"q"`
			Category string `json:"category"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		list, err := s.service.SearchRecords(ctx, p.Q, p.Category)
		if err != nil {
			return s.appError(req, err)
		}
		return response{JSONRPC: "2.0", Result: list, ID: req.ID}
	case "records.delete":
		if resp, ok := s.authz(ctx, req); !ok {
			return resp
		}
		var p struct {
			Token string `json:"token"`
			ID    uint   `json:"id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.service.DeleteRecord(ctx, p.ID); err != nil {
			return s.appError(req, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"message": "record deleted", "id": p.ID}, ID: req.ID}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeMethodNotFound, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	if !s.service.AuthRequired() {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeNotFound, Message: "authentication is not configured"}, ID: req.ID}
	}
	token, expiresAt, err := s.service.Login(ctx, p.Username, p.Password)
	if err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeUnauthorized, Message: "invalid credentials"}, ID: req.ID}
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"token": token, "expires_at": expiresAt.Format(time.RFC3339)}, ID: req.ID}
}

func (s *Server) authz(ctx context.Context, req request) (response, bool) {
	if !s.service.AuthRequired() {
		return response{}, true
	}
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID), false
	}
	if _, err := s.service.AuthenticateBearerToken(ctx, p.Token); err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeUnauthorized, Message: "unauthorized"}, ID: req.ID}, false
	}
	return response{}, true
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidParams, Message: "invalid params"}, ID: id}
}

func (s *Server) appError(req request, err error) response {
	switch {
	case domain.IsValidation(err):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeValidation, Message: err.Error()}, ID: req.ID}
	case domain.IsNotFound(err):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeNotFound, Message: "Record not found"}, ID: req.ID}
	default:
		s.log.Error("call failed", zap.String("method", req.Method), zap.Error(err))
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeStorage, Message: "storage unavailable"}, ID: req.ID}
	}
}
