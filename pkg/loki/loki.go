// Package loki batches log lines and pushes them to a Grafana Loki endpoint.
package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Logger receives the pusher's own failures. It must not route back into
// the pusher.
type Logger interface {
	Error(msg string, args ...any)
}

type Config struct {
	// Url of the push endpoint, e.g. https://example.grafana.net/loki/api/v1/push
	Url string `validate:"required,url"`

	// BatchMaxSize is the maximum number of lines sent in one request.
	BatchMaxSize int `validate:"gte=1"`

	// BatchMaxWait is the maximum time a line waits in the batch.
	BatchMaxWait time.Duration `validate:"gte=1"`

	// Labels are attached to the stream.
	Labels map[string]string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string
}

func (cfg *Config) setDefaults() {
	if cfg.BatchMaxSize == 0 {
		cfg.BatchMaxSize = 500
	}
	if cfg.BatchMaxWait == 0 {
		cfg.BatchMaxWait = 5 * time.Second
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type LogEntry struct {
	Level     string `json:"level"`
	Message   string `json:"msg"`
	Caller    string `json:"caller,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type Pusher struct {
	config  Config
	client  *http.Client
	logger  Logger
	entries chan [2]string
	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

func New(ctx context.Context, cfg Config, logger Logger) (*Pusher, error) {

	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	p := &Pusher{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		entries: make(chan [2]string, cfg.BatchMaxSize),
		done:    make(chan struct{}),
	}

	p.wg.Add(1)
	go p.run(ctx)
	return p, nil
}

// Push queues an entry. It fails instead of blocking once the pusher is stopped.
func (p *Pusher) Push(e LogEntry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	value := [2]string{strconv.FormatInt(time.Now().UnixNano(), 10), string(line)}

	select {
	case <-p.done:
		return fmt.Errorf("loki pusher is stopped")
	default:
	}

	select {
	case <-p.done:
		return fmt.Errorf("loki pusher is stopped")
	case p.entries <- value:
		return nil
	}
}

// Stop flushes the pending batch and waits for the background loop.
func (p *Pusher) Stop() {
	p.stopped.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Pusher) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.BatchMaxWait)
	defer ticker.Stop()

	batch := make([][2]string, 0, p.config.BatchMaxSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.send(batch); err != nil {
			p.logger.Error("failed to push logs to loki", "error", err)
		}
		batch = batch[:0]
	}
	defer flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			for {
				select {
				case value := <-p.entries:
					batch = append(batch, value)
				default:
					return
				}
			}
		case value := <-p.entries:
			batch = append(batch, value)
			if len(batch) >= p.config.BatchMaxSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (p *Pusher) send(values [][2]string) error {
	body := &bytes.Buffer{}
	gz := gzip.NewWriter(body)

	request := pushRequest{Streams: []stream{{Stream: p.config.Labels, Values: values}}}
	if err := json.NewEncoder(gz).Encode(request); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, p.config.Url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if p.config.Username != "" && p.config.Password != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected response from loki: %s, body: %s", resp.Status, string(respBody))
	}
	return nil
}
