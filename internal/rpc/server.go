// Package rpc implements the JSON-RPC 2.0 API server exposing the name
// registry's read-only view.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/chain"
	klog "github.com/huntnet-tech/huntnet-chain/internal/log"
	"github.com/huntnet-tech/huntnet-chain/internal/mempool"
	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr   string
	chain  *chain.Chain
	view   names.View
	pool   *mempool.Pool // nil disables name_pending
	cfg    config.NameConfig
	server *http.Server
	ln     net.Listener
	logger zerolog.Logger
}

// New creates a new RPC server over the chain-state views.
func New(addr string, ch *chain.Chain, view names.View, pool *mempool.Pool, cfg config.NameConfig) *Server {
	s := &Server{
		addr:   addr,
		chain:  ch,
		view:   view,
		pool:   pool,
		cfg:    cfg,
		logger: klog.WithComponent("rpc"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start begins listening for RPC requests.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("RPC server listening")

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server stopped")
		}
	}()
	return nil
}

// Addr returns the listener address (useful when the port was 0).
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleRequest parses a JSON-RPC request and dispatches it.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeResponse(w, &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: CodeParseError, Message: "failed to read body"},
		})
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: CodeParseError, Message: "invalid JSON"},
		})
		return
	}

	result, rpcErr := s.dispatch(&req)
	writeResponse(w, &Response{
		JSONRPC: "2.0",
		Result:  result,
		Error:   rpcErr,
		ID:      req.ID,
	})
}

// dispatch routes a request to its handler.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	switch req.Method {
	case "name_show":
		return s.handleNameShow(req)
	case "name_history":
		return s.handleNameHistory(req)
	case "name_scan":
		return s.handleNameScan(req)
	case "name_filter":
		return s.handleNameFilter(req)
	case "name_pending":
		return s.handleNamePending(req)
	case "name_checkdb":
		return s.handleNameCheckDB(req)
	case "tx_buildNameUpdate":
		return s.handleBuildNameUpdate(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// parseParams re-marshals the request params into a typed struct.
func parseParams(req *Request, out interface{}) *Error {
	if req.Params == nil {
		return nil
	}
	raw, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		klog.RPC.Error().Err(err).Msg("failed to encode response")
	}
}
