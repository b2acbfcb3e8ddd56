package blender

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"mediafx/internal/host"
	"mediafx/internal/logging"
)

const responsePrefix = "@@mediafx "

// maxLineBytes bounds a single bridge reply.
const maxLineBytes = 4 << 20

// ErrBridgeClosed is returned once the bridge output has ended.
var ErrBridgeClosed = errors.New("blender bridge closed")

// BridgeError is an unexpected failure reported by the bridge script.
type BridgeError struct {
	Op      string
	Code    string
	Message string
}

func (e *BridgeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("blender %s: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("blender %s: %s", e.Op, e.Message)
}

type request struct {
	ID   int64  `json:"id"`
	Op   string `json:"op"`
	Args any    `json:"args,omitempty"`
}

type response struct {
	ID     int64           `json:"id"`
	Result []string        `json:"result,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// ReadyInfo is the bridge greeting.
type ReadyInfo struct {
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	PID     int    `json:"pid"`
}

// Client speaks the bridge protocol over a reader/writer pair.
type Client struct {
	logger *slog.Logger

	wmu sync.Mutex
	w   io.Writer

	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan response
	readErr error

	ready chan response
	done  chan struct{}
}

// NewClient starts reading bridge replies from r. Requests are written to w.
func NewClient(r io.Reader, w io.Writer, logger *slog.Logger) *Client {
	c := &Client{
		logger:  logging.NewComponentLogger(logger, "blender"),
		w:       w,
		pending: make(map[int64]chan response),
		ready:   make(chan response, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop(r)
	return c
}

func (c *Client) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, responsePrefix)
		if !ok {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				c.logger.Debug("blender output", logging.String("line", trimmed))
			}
			continue
		}
		var resp response
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			c.logger.Warn("undecodable bridge reply", logging.String("line", payload), logging.Error(err))
			continue
		}
		c.dispatch(resp)
	}

	err := scanner.Err()
	if err == nil {
		err = ErrBridgeClosed
	} else {
		err = fmt.Errorf("%w: %w", ErrBridgeClosed, err)
	}
	c.mu.Lock()
	c.readErr = err
	c.pending = nil
	c.mu.Unlock()
	close(c.done)
}

func (c *Client) dispatch(resp response) {
	if resp.ID == 0 {
		select {
		case c.ready <- resp:
		default:
		}
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("stale bridge reply", logging.Int64("id", resp.ID))
		return
	}
	ch <- resp
}

// Done is closed when the bridge output ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the bridge output ended, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// WaitReady blocks until the bridge greets.
func (c *Client) WaitReady(ctx context.Context) (ReadyInfo, error) {
	select {
	case resp := <-c.ready:
		var info ReadyInfo
		if len(resp.Value) > 0 {
			if err := json.Unmarshal(resp.Value, &info); err != nil {
				return ReadyInfo{}, fmt.Errorf("decode bridge greeting: %w", err)
			}
		}
		if !info.Ready {
			return info, errors.New("blender bridge greeted without ready flag")
		}
		return info, nil
	case <-c.done:
		return ReadyInfo{}, c.Err()
	case <-ctx.Done():
		return ReadyInfo{}, fmt.Errorf("wait for blender bridge: %w", ctx.Err())
	}
}

// Call sends op and waits for its reply.
func (c *Client) Call(ctx context.Context, op string, args any) (response, error) {
	id := c.nextID.Add(1)
	ch := make(chan response, 1)

	c.mu.Lock()
	if c.pending == nil {
		err := c.readErr
		c.mu.Unlock()
		return response{}, err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	line, err := json.Marshal(request{ID: id, Op: op, Args: args})
	if err != nil {
		c.forget(id)
		return response{}, fmt.Errorf("encode %s request: %w", op, err)
	}
	c.wmu.Lock()
	_, err = c.w.Write(append(line, '\n'))
	c.wmu.Unlock()
	if err != nil {
		c.forget(id)
		return response{}, fmt.Errorf("send %s request: %w", op, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return resp, mapError(op, resp)
		}
		return resp, nil
	case <-c.done:
		return response{}, c.Err()
	case <-ctx.Done():
		c.forget(id)
		return response{}, ctx.Err()
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	if c.pending != nil {
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func mapError(op string, resp response) error {
	var sentinel error
	switch resp.Code {
	case "no_area":
		sentinel = host.ErrNoArea
	case "context_incorrect":
		sentinel = host.ErrContextIncorrect
	case "no_override":
		sentinel = host.ErrNoOverride
	case "index_out_of_range":
		sentinel = host.ErrIndexOutOfRange
	default:
		return &BridgeError{Op: op, Code: resp.Code, Message: resp.Error}
	}
	return fmt.Errorf("blender %s: %w: %s", op, sentinel, resp.Error)
}
