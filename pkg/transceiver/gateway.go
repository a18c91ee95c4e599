// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transceiver

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/boilerstat/pkg/gateway"
	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

// Protocol timing
const (
	DefaultResponseTimeout = time.Second
	DefaultInterFrameDelay = 100 * time.Millisecond
)

const readBufferSize = 256

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

func WithResponseTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.responseTimeout = d }
}

func WithInterFrameDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.interFrameDelay = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// Gateway is a Transceiver that talks to an OpenTherm gateway adapter over
// a byte stream. The adapter drives the physical line; this side only
// exchanges whole frames with it.
type Gateway struct {
	conn io.ReadWriteCloser
	log  logger.Logger

	status   AtomicStatus
	response atomic.Uint32
	request  atomic.Uint32

	// owned by the reader goroutine
	decoder *gateway.Decoder

	// owned by the tick goroutine
	handler    ResponseHandler
	sentAt     time.Time
	delayStart time.Time

	responseTimeout time.Duration
	interFrameDelay time.Duration
	now             func() time.Time

	done      chan struct{}
	readErr   atomic.Pointer[error]
	closeOnce sync.Once
	closeErr  error
}

var _ Transceiver = (*Gateway)(nil)

func NewGateway(conn io.ReadWriteCloser, log logger.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		conn:            conn,
		log:             log,
		decoder:         gateway.NewDecoder(),
		responseTimeout: DefaultResponseTimeout,
		interFrameDelay: DefaultInterFrameDelay,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Begin binds the handler and starts the reader goroutine
func (g *Gateway) Begin(handler ResponseHandler) error {
	if handler == nil {
		return ErrNoHandler
	}
	if !g.status.Transition(NotInitialized, Ready) {
		return ErrAlreadyStarted
	}
	g.handler = handler
	go g.readLoop()
	return nil
}

func (g *Gateway) IsReady() bool {
	return g.status.Is(Ready)
}

// Status returns the current state of the request/response cycle
func (g *Gateway) Status() Status {
	return g.status.Get()
}

// LastRequest returns the frame most recently handed to SendRequestAsync
func (g *Gateway) LastRequest() opentherm.Frame {
	return opentherm.Frame(g.request.Load())
}

// Done is closed when the reader goroutine exits
func (g *Gateway) Done() <-chan struct{} {
	return g.done
}

// Err returns the error that stopped the reader, if any
func (g *Gateway) Err() error {
	if p := g.readErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (g *Gateway) SendRequestAsync(f opentherm.Frame) bool {
	if !g.status.Transition(Ready, RequestSending) {
		return false
	}

	data, err := gateway.EncodePacket(gateway.MsgFrameRequest, gateway.NewFrameRequest(f).PayloadMap())
	if err != nil {
		g.log.Error("failed to encode frame request", "frame", uint32(f), "error", err)
		g.status.Set(Ready)
		return false
	}

	g.request.Store(uint32(f))
	g.sentAt = g.now()
	// the reply can arrive before Write returns
	g.status.Set(ResponseWaiting)

	if _, err := g.conn.Write(data); err != nil {
		g.log.Error("failed to write frame request", "frame", uint32(f), "error", err)
		g.status.Transition(ResponseWaiting, Ready)
		return false
	}

	g.log.Debug("request sent", "frame", opentherm.FormatFrame(f))
	return true
}

// Process must be called on every tick before IsReady
func (g *Gateway) Process() {
	now := g.now()

	switch g.status.Get() {
	case ResponseReady:
		g.enterDelay(now)
		f := opentherm.Frame(g.response.Load())
		status := opentherm.StatusSuccess
		if !f.IsValidResponse() {
			status = opentherm.StatusInvalid
		}
		g.handler(f, status)

	case ResponseInvalid:
		g.enterDelay(now)
		g.handler(opentherm.Frame(g.response.Load()), opentherm.StatusInvalid)

	case ResponseWaiting:
		if now.Sub(g.sentAt) > g.responseTimeout && g.status.Transition(ResponseWaiting, Ready) {
			g.handler(0, opentherm.StatusTimeout)
		}

	case Delay:
		if now.Sub(g.delayStart) > g.interFrameDelay {
			g.status.Transition(Delay, Ready)
		}
	}
}

func (g *Gateway) enterDelay(now time.Time) {
	g.delayStart = now
	g.status.Set(Delay)
}

// End stops the reader and closes the connection
func (g *Gateway) End() error {
	g.status.Set(NotInitialized)
	g.closeOnce.Do(func() {
		g.closeErr = g.conn.Close()
	})
	return g.closeErr
}

func (g *Gateway) readLoop() {
	defer close(g.done)

	buf := make([]byte, readBufferSize)
	for {
		n, err := g.conn.Read(buf)
		if n > 0 {
			g.HandleInterrupt(buf[:n])
		}
		if err != nil {
			if !g.status.Is(NotInitialized) && !errors.Is(err, io.EOF) {
				g.log.Warn("gateway read failed", "error", err)
			}
			g.readErr.Store(&err)
			return
		}
	}
}

// HandleInterrupt feeds bytes from the adapter into the link decoder. It
// only records the response and flips the status; dispatching happens in
// Process.
func (g *Gateway) HandleInterrupt(data []byte) {
	for _, b := range data {
		pkt, err := g.decoder.DecodeByte(b)
		if err != nil {
			g.log.Debug("gateway decode error", "error", err)
			g.status.Transition(ResponseWaiting, ResponseInvalid)
			continue
		}
		if pkt != nil {
			g.handlePacket(pkt)
		}
	}
}

func (g *Gateway) handlePacket(pkt *gateway.Packet) {
	switch pkt.Type() {
	case gateway.MsgFrameResponse:
		if !g.status.Is(ResponseWaiting) {
			g.log.Debug("unsolicited frame response", "packet", gateway.FormatPacket(pkt))
			return
		}
		f, ok := pkt.Frame()
		if !ok {
			g.status.Transition(ResponseWaiting, ResponseInvalid)
			return
		}
		switch pkt.LineStatus() {
		case gateway.LineOK:
			if want := opentherm.Frame(g.request.Load()).ID(); f.ID() != want {
				// a late reply to an earlier request; Process reports the timeout
				g.log.Debug("stale frame response", "want", want.String(), "frame", opentherm.FormatFrame(f))
				return
			}
			g.response.Store(uint32(f))
			g.status.Transition(ResponseWaiting, ResponseReady)
		case gateway.LineParityError:
			g.response.Store(uint32(f))
			g.status.Transition(ResponseWaiting, ResponseInvalid)
		case gateway.LineNoResponse:
			// the slave stayed silent; Process reports the timeout
		}

	case gateway.MsgError:
		code, _ := pkt.ErrorCode()
		g.log.Warn("gateway reported error", "code", gateway.FormatErrorCode(code))
		g.status.Transition(ResponseWaiting, ResponseInvalid)

	default:
		g.log.Debug("ignoring gateway packet", "packet", gateway.FormatPacket(pkt))
	}
}
