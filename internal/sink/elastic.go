package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"

	"github.com/airframesio/xng/internal/frame"
)

// BatchWaitMS is the batching window: the first frame into an empty batch
// starts a timer; everything else arriving before it fires joins the same
// bulk request (spec.md §4.5).
const BatchWaitMS = 200 * time.Millisecond

// ESBatcher accumulates CFFs under a mutex and flushes them as one
// gzip-compressed Elasticsearch bulk request every BatchWaitMS.
type ESBatcher struct {
	url   string
	index string
	auth  string
	http  *http.Client
	log   *log.Logger

	mu      sync.Mutex
	batch   []frame.CommonFrame
	flushWG sync.WaitGroup
}

// NewESBatcher builds a batcher. rawURL may carry "user:pass@host" userinfo,
// which is extracted into an Authorization: Basic header and scrubbed from
// the stored URL (spec.md §6).
func NewESBatcher(rawURL, index string, skipTLSVerify bool, logger *log.Logger) (*ESBatcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("sink: parse elasticsearch url: %w", err)
	}

	var auth string
	if u.User != nil {
		user := u.User.Username()
		pass, _ := u.User.Password()
		auth = basicAuthHeader(user, pass)
		u.User = nil
	}

	client := &http.Client{Timeout: 30 * time.Second}
	if skipTLSVerify {
		client.Transport = insecureTransport()
	}

	return &ESBatcher{
		url:   strings.TrimSuffix(u.String(), "/"),
		index: index,
		auth:  auth,
		http:  client,
		log:   logger,
	}, nil
}

// Submit adds cf to the in-flight batch, spawning the one-shot flush timer
// if the batch was empty.
func (b *ESBatcher) Submit(ctx context.Context, cf frame.CommonFrame) {
	b.mu.Lock()
	wasEmpty := len(b.batch) == 0
	b.batch = append(b.batch, cf)
	b.mu.Unlock()

	if wasEmpty {
		b.flushWG.Add(1)
		go b.flushAfter(ctx)
	}
}

func (b *ESBatcher) flushAfter(ctx context.Context) {
	defer b.flushWG.Done()

	select {
	case <-time.After(BatchWaitMS):
	case <-ctx.Done():
	}

	b.mu.Lock()
	pending := b.batch
	b.batch = nil
	b.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	if err := b.bulkIndex(context.WithoutCancel(ctx), pending); err != nil {
		b.log.Warn("elasticsearch bulk index failed", "count", len(pending), "err", err)
	}
}

// Close awaits any outstanding flush, per spec.md §5's "ES batcher in
// flight is awaited (not cancelled)".
func (b *ESBatcher) Close() {
	b.flushWG.Wait()
}

func (b *ESBatcher) bulkIndex(ctx context.Context, frames []frame.CommonFrame) error {
	var buf bytes.Buffer
	for _, cf := range frames {
		meta, err := json.Marshal(map[string]interface{}{"index": map[string]string{"_index": b.index}})
		if err != nil {
			return err
		}
		buf.Write(meta)
		buf.WriteByte('\n')

		doc, err := json.Marshal(cf)
		if err != nil {
			return err
		}
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	if _, err := gw.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("sink: gzip bulk body: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("sink: gzip bulk body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url+"/_bulk", &gzBuf)
	if err != nil {
		return fmt.Errorf("sink: build bulk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("Content-Encoding", "gzip")
	if b.auth != "" {
		req.Header.Set("Authorization", b.auth)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("sink: bulk request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sink: bulk request returned status %d", resp.StatusCode)
	}
	return nil
}
