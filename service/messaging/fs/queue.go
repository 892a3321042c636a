// Package fs provides a messaging.Queue persisted on any afs storage. The
// scheduler uses it as a durable journal of action lifecycle events so that
// a separate consumer (audit shipper, CRM sync) can replay them after a restart.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/service/messaging"
)

// ErrProcessed is returned when a message is acknowledged twice.
var ErrProcessed = errors.New("fs queue: message already processed")

// State is the lifecycle state of a journaled message.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateDead       State = "dead"
)

// Config controls the queue layout and redelivery.
type Config struct {
	// BaseURL is the queue root, e.g. file:///var/lib/actiongate/events or mem://localhost/events.
	BaseURL string `json:"baseURL" yaml:"baseURL"`
	// MaxRetries is the number of redeliveries before a message is dead-lettered.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`
	// PollInterval is how often Consume re-lists pending messages while idle.
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
	// KeepDone retains acknowledged messages under done/.
	KeepDone bool `json:"keepDone,omitempty" yaml:"keepDone,omitempty"`
}

// DefaultConfig returns a journal rooted at baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		MaxRetries:   3,
		PollInterval: 250 * time.Millisecond,
	}
}

// Message is a journaled queue entry.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	name      string
	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
}

// T returns the payload.
func (m *Message[T]) T() *T { return &m.Data }

// Ack removes the message from processing.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	m.State = StateDone
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m)
}

// Nack returns the message to pending, or dead-letters it once retries are exhausted.
func (m *Message[T]) Nack(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	m.Retries++
	if cause != nil {
		m.Error = cause.Error()
	}
	m.State = StatePending
	if m.Retries > m.queue.config.MaxRetries {
		m.State = StateDead
	}
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m)
}

// Queue persists messages as JSON files under <BaseURL>/<state>/.
type Queue[T any] struct {
	fs     afs.Service
	config Config
	mu     sync.Mutex
}

// NewQueue creates the queue directories.
func NewQueue[T any](ctx context.Context, fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("fs queue: base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig("").PollInterval
	}
	ret := &Queue[T]{fs: fs, config: config}
	for _, state := range []State{StatePending, StateProcessing, StateDone, StateDead} {
		dir := ret.dir(state)
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create queue directory %s: %w", dir, err)
		}
	}
	return ret, nil
}

// Publish writes t to pending. File names sort in publish order.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("fs queue: nil message")
	}
	now := clock.Now()
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	message.name = fmt.Sprintf("%020d-%s.json", now.UnixNano(), message.ID)
	return q.write(ctx, StatePending, message)
}

// Consume claims the oldest pending message, polling until one is available
// or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		message, err := q.claim(ctx)
		if err != nil {
			return nil, err
		}
		if message != nil {
			return message, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.config.PollInterval):
		}
	}
}

// Len returns the number of messages in state.
func (q *Queue[T]) Len(ctx context.Context, state State) (int, error) {
	names, err := q.list(ctx, state)
	return len(names), err
}

// Replay returns the payloads of messages in state, oldest first, without claiming them.
func (q *Queue[T]) Replay(ctx context.Context, state State) ([]*T, error) {
	names, err := q.list(ctx, state)
	if err != nil {
		return nil, err
	}
	ret := make([]*T, 0, len(names))
	for _, name := range names {
		message, err := q.read(ctx, url.Join(q.dir(state), name))
		if err != nil {
			return nil, err
		}
		ret = append(ret, &message.Data)
	}
	return ret, nil
}

func (q *Queue[T]) claim(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	names, err := q.list(ctx, StatePending)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	name := names[0]
	source := url.Join(q.dir(StatePending), name)
	message, err := q.read(ctx, source)
	if err != nil {
		_ = q.fs.Move(ctx, source, url.Join(q.dir(StateDead), name))
		return nil, err
	}
	message.name = name
	message.queue = q
	message.State = StateProcessing
	message.UpdatedAt = clock.Now()
	if err = q.write(ctx, StateProcessing, message); err != nil {
		return nil, err
	}
	if err = q.fs.Delete(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to remove claimed message %s: %w", source, err)
	}
	return message, nil
}

func (q *Queue[T]) settle(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if m.State != StateDone || q.config.KeepDone {
		if err := q.write(ctx, m.State, m); err != nil {
			return err
		}
	}
	processing := url.Join(q.dir(StateProcessing), m.name)
	if exists, _ := q.fs.Exists(ctx, processing); exists {
		if err := q.fs.Delete(ctx, processing); err != nil {
			return fmt.Errorf("failed to remove processed message %s: %w", processing, err)
		}
	}
	return nil
}

func (q *Queue[T]) list(ctx context.Context, state State) ([]string, error) {
	objects, err := q.fs.List(ctx, q.dir(state), option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s messages: %w", state, err)
	}
	var ret []string
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			ret = append(ret, object.Name())
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func (q *Queue[T]) write(ctx context.Context, state State, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", m.ID, err)
	}
	URL := url.Join(q.dir(state), m.name)
	if err = q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write message %s: %w", URL, err)
	}
	return nil
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	ret := &Message[T]{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", URL, err)
	}
	return ret, nil
}

func (q *Queue[T]) dir(state State) string {
	return url.Join(q.config.BaseURL, string(state))
}

var _ messaging.Queue[struct{}] = (*Queue[struct{}])(nil)
