// ABOUTME: Newline-delimited JSON-RPC transport over stdin/stdout
// ABOUTME: Reads one request per line and writes one response line per request

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Version is the reported server version, stamped at build time.
var Version = "dev"

// maxLineSize is the largest accepted request line (1MB).
const maxLineSize = 1 << 20

// Serve runs the transport loop until EOF on r or ctx is canceled. Each line
// on r is one JSON-RPC request; each non-notification produces exactly one
// response line on w. A malformed line yields a parse-error response and the
// loop continues.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var writeMu sync.Mutex
	write := func(resp *JSONRPCResponse) {
		if resp == nil {
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			s.logger.Warn("failed to encode response", "error", err)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := w.Write(append(data, '\n')); err != nil {
			s.logger.Warn("failed to write response", "error", err)
		}
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			write(errorResponse(nil, JSONRPCParseError, "invalid JSON"))
			continue
		}

		write(s.Handle(ctx, &req))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading transport: %w", err)
	}
	return nil
}
