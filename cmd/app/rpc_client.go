package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
)

type rpcClient struct {
	socket string
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcRespError   `json:"error"`
	ID      any             `json:"id"`
}

type rpcRespError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newRPCClient(socket string) *rpcClient {
	return &rpcClient{socket: socket}
}

func (c *rpcClient) call(ctx context.Context, method string, params any, out any) error {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return &domain.TransportError{Op: method, Err: err}
	}
	defer func() { _ = conn.Close() }()

	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return &domain.TransportError{Op: method, Err: err}
	}

	var resp rpcResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return &domain.TransportError{Op: method, Err: err}
	}
	if resp.Error != nil {
		return rpcDomainError(method, resp.Error, params)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

// rpcDomainError maps server error codes onto the domain error kinds.
func rpcDomainError(method string, e *rpcRespError, params any) error {
	switch e.Code {
	case 40000:
		return &domain.ValidationError{Message: e.Message}
	case 40100:
		return fmt.Errorf("%s: %w", method, domain.ErrUnauthorized)
	case 40400:
		if p, ok := params.(map[string]any); ok {
			if id, ok := p["id"].(uint); ok {
				return &domain.NotFoundError{ID: id}
			}
		}
		return errors.New(e.Message)
	case 50000:
		return &domain.StorageError{Op: method, Err: errors.New(e.Message)}
	default:
		return fmt.Errorf("rpc error (%d): %s", e.Code, e.Message)
	}
}
