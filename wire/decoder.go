package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/ragchat"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultMaxSegmentSize bounds the unterminated text carried between
	// reads.
	DefaultMaxSegmentSize = 1 << 20

	readBufferSize = 32 * 1024
)

var nul = []byte{0}

// Interface compliance check.
var _ ragchat.Stream = (*Decoder)(nil)

// Decoder implements [ragchat.Stream] over a NUL-delimited JSON byte stream.
type Decoder struct {
	body    io.ReadCloser
	src     io.Reader
	ctx     context.Context
	logger  *zap.Logger
	onClose func()

	buf        []byte
	carry      []byte
	maxSegment int
	pending    []ragchat.Event
	readErr    error // first non-nil read result (io.EOF included)

	state   ragchat.StreamState
	err     error // terminal error, if any
	dropped int
	closed  bool
}

// Option configures a [Decoder].
type Option func(*Decoder)

// WithLogger sets the logger that records dropped segments.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// WithContext sets the request context. When a read fails after the
// context is done, the terminal error reports the context error.
func WithContext(ctx context.Context) Option {
	return func(d *Decoder) { d.ctx = ctx }
}

// WithCloseHook registers a function run once by Close, after the body is
// closed. The HTTP client uses it to release its request timeout.
func WithCloseHook(fn func()) Option {
	return func(d *Decoder) { d.onClose = fn }
}

// WithMaxSegmentSize bounds the unterminated text carried between reads.
func WithMaxSegmentSize(n int) Option {
	return func(d *Decoder) { d.maxSegment = n }
}

// NewDecoder wraps body. Bytes are decoded as UTF-8 with a stateful decoder,
// so multi-byte characters split across reads are reassembled and invalid
// sequences become U+FFFD. A leading byte order mark is removed.
func NewDecoder(body io.ReadCloser, opts ...Option) *Decoder {
	d := &Decoder{
		body:       body,
		src:        transform.NewReader(body, unicode.UTF8BOM.NewDecoder()),
		ctx:        context.Background(),
		logger:     zap.NewNop(),
		buf:        make([]byte, readBufferSize),
		maxSegment: DefaultMaxSegmentSize,
		state:      ragchat.StreamStateNew,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Next returns the next validated event. It returns io.EOF when the
// stream completes normally.
func (d *Decoder) Next() (ragchat.Event, error) {
	switch d.state {
	case ragchat.StreamStateComplete:
		return nil, io.EOF
	case ragchat.StreamStateError:
		return nil, d.err
	case ragchat.StreamStateClosed:
		return nil, fmt.Errorf("wire: %w", ragchat.ErrStreamClosed)
	}

	for {
		if len(d.pending) > 0 {
			evt := d.pending[0]
			d.pending = d.pending[1:]
			d.state = ragchat.StreamStateStreaming
			return evt, nil
		}
		if d.readErr != nil {
			d.terminate(d.readErr)
			if d.state == ragchat.StreamStateComplete {
				return nil, io.EOF
			}
			return nil, d.err
		}

		n, err := d.src.Read(d.buf)
		if n > 0 {
			d.state = ragchat.StreamStateStreaming
			d.feed(d.buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.flush()
			}
			d.readErr = err
		}
	}
}

// State returns the current stream state.
func (d *Decoder) State() ragchat.StreamState {
	return d.state
}

// Dropped returns how many segments and document elements were discarded.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Close closes the underlying body. It is idempotent.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.state != ragchat.StreamStateComplete && d.state != ragchat.StreamStateError {
		d.state = ragchat.StreamStateClosed
	}
	err := d.body.Close()
	if d.onClose != nil {
		d.onClose()
	}
	return err
}

// terminate records the terminal state for a read result.
func (d *Decoder) terminate(err error) {
	if errors.Is(err, io.EOF) {
		d.state = ragchat.StreamStateComplete
		return
	}
	d.state = ragchat.StreamStateError
	switch ctxErr := d.ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		d.err = fmt.Errorf("wire: %w: %w", ragchat.ErrTimeout, ctxErr)
	case ctxErr != nil:
		d.err = fmt.Errorf("wire: %w", ctxErr)
	default:
		d.err = fmt.Errorf("wire: %w", err)
	}
	d.logger.Warn("stream failed", zap.Error(d.err), zap.Int("dropped", d.dropped))
}

// feed splits one read into segments. Complete segments are parsed at once.
// The trailing unterminated segment is parsed at once when it is a complete
// object and carried into the next read otherwise.
func (d *Decoder) feed(p []byte) {
	carry := d.carry
	d.carry = nil
	segs := bytes.Split(p, nul)
	last := len(segs) - 1
	for i, seg := range segs {
		tail := i == last
		if i == 0 && len(carry) > 0 {
			d.joinCarry(carry, seg, tail)
			continue
		}
		d.segment(seg, tail)
	}
}

// joinCarry resolves the text carried from the previous read against the
// first segment of the current one. A joined text that is still a cut-off
// prefix stays carried. Otherwise an invalid carry is dropped and the new
// segment is retried on its own.
func (d *Decoder) joinCarry(carry, seg []byte, tail bool) {
	joined := append(carry, seg...)
	switch {
	case json.Valid(joined):
		d.process(joined)
	case tail && truncated(joined):
		d.keep(joined)
	default:
		d.drop(carry, fmt.Errorf("%w: unterminated segment", ErrInvalidJSON))
		d.segment(seg, tail)
	}
}

func (d *Decoder) segment(seg []byte, tail bool) {
	if len(bytes.TrimSpace(seg)) == 0 {
		return
	}
	if tail && !completeObject(seg) {
		d.keep(bytes.Clone(seg))
		return
	}
	d.process(seg)
}

// keep carries seg into the next read, dropping it when oversized.
func (d *Decoder) keep(seg []byte) {
	if len(seg) > d.maxSegment {
		d.drop(seg, fmt.Errorf("%w: segment exceeds %d bytes", ErrInvalidJSON, d.maxSegment))
		return
	}
	d.carry = seg
}

// flush parses whatever is still carried when the stream ends.
func (d *Decoder) flush() {
	if len(d.carry) == 0 {
		return
	}
	carry := d.carry
	d.carry = nil
	if len(bytes.TrimSpace(carry)) == 0 {
		return
	}
	d.process(carry)
}

func (d *Decoder) process(seg []byte) {
	evt, skipped, err := Parse(seg)
	if err != nil {
		d.drop(seg, err)
		return
	}
	if skipped > 0 {
		d.dropped += skipped
		d.logger.Debug("dropped document elements", zap.Int("count", skipped))
	}
	d.pending = append(d.pending, evt)
}

func (d *Decoder) drop(seg []byte, err error) {
	d.dropped++
	d.logger.Debug("dropped segment",
		zap.String("reason", dropReason(err)),
		zap.Int("bytes", len(seg)),
		zap.Error(err),
	)
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrSenderMismatch):
		return "sender_mismatch"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return "invalid_json"
	}
}
