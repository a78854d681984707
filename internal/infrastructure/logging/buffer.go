package logging

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

const defaultBufferLimit = 256

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

type entry struct {
	ctx    context.Context
	level  level
	msg    string
	fields []interface{}
}

// Buffer holds log entries emitted before the real sinks exist, such as while
// configuration is still loading. When full, the oldest entry is dropped.
type Buffer struct {
	mu      sync.Mutex
	limit   int
	entries []entry
	dropped int
}

// NewBuffer returns a Buffer holding at most limit entries.
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = defaultBufferLimit
	}
	return &Buffer{limit: limit}
}

// Logger returns a ports.Logger that records into b.
func (b *Buffer) Logger() ports.Logger {
	return &bufferLogger{buf: b}
}

// Dropped reports how many entries were discarded for lack of room.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Flush replays the recorded entries into delegate, oldest first, and empties b.
func (b *Buffer) Flush(delegate ports.Logger) {
	if delegate == nil {
		return
	}
	b.mu.Lock()
	pending := b.entries
	b.entries = nil
	b.mu.Unlock()

	for _, e := range pending {
		switch e.level {
		case levelDebug:
			delegate.Debug(e.ctx, e.msg, e.fields...)
		case levelWarn:
			delegate.Warn(e.ctx, e.msg, e.fields...)
		case levelError:
			delegate.Error(e.ctx, e.msg, e.fields...)
		default:
			delegate.Info(e.ctx, e.msg, e.fields...)
		}
	}
}

func (b *Buffer) add(e entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) >= b.limit {
		b.entries = b.entries[1:]
		b.dropped++
	}
	b.entries = append(b.entries, e)
}

type bufferLogger struct {
	buf    *Buffer
	fields []interface{}
}

func (l *bufferLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, levelDebug, msg, fields)
}

func (l *bufferLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, levelInfo, msg, fields)
}

func (l *bufferLogger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, levelWarn, msg, fields)
}

func (l *bufferLogger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, levelError, msg, fields)
}

func (l *bufferLogger) With(fields ...interface{}) ports.Logger {
	next := append(append([]interface{}{}, l.fields...), fields...)
	return &bufferLogger{buf: l.buf, fields: next}
}

func (l *bufferLogger) record(ctx context.Context, lvl level, msg string, fields []interface{}) {
	payload := append(append([]interface{}{}, l.fields...), fields...)
	l.buf.add(entry{ctx: ctx, level: lvl, msg: msg, fields: payload})
}
