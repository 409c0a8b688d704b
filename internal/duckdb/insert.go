package duckdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/sage/internal/journal"
	"github.com/tinytelemetry/sage/internal/model"
)

// DefaultFlushQueueSize bounds how many cut batches can wait for the write
// loop before dispatch falls back to writing inline.
const DefaultFlushQueueSize = 64

var eventIDCounter atomic.Uint64

// pendingRecord pairs a record with its journal sequence. Sequence zero
// means the journal is disabled.
type pendingRecord struct {
	seq uint64
	rec *model.LogRecord
}

// recordJournal is the durability hook used by Add and the write loop.
type recordJournal interface {
	Append(rec *model.LogRecord) (uint64, error)
	Commit(seq uint64) error
	Close() error
}

// InsertBuffer is the sink the pipeline hands enriched records to. Add runs
// on the ingest goroutine and never waits on DuckDB: records gather in a
// pending slice, get cut into batches by size or by timer, and are written
// by a separate goroutine. With a journal configured, a record is durable
// before Add returns and the commit mark advances only after its batch is
// in the store.
type InsertBuffer struct {
	writer  model.LogWriter
	journal recordJournal

	mu      sync.Mutex
	pending []pendingRecord

	batches  chan []pendingRecord
	maxBatch int
	interval time.Duration

	done    chan struct{}
	wg      sync.WaitGroup
	timerWg sync.WaitGroup

	inlineWrites  atomic.Int64
	lastInlineLog atomic.Int64
}

// InsertBufferConfig holds the buffer tunables.
type InsertBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
	Journal        *journal.Journal
}

// NewInsertBuffer starts a buffer writing to the given store.
func NewInsertBuffer(writer model.LogWriter, conf ...InsertBufferConfig) *InsertBuffer {
	maxBatch := 2000
	interval := 100 * time.Millisecond
	queueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			maxBatch = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			interval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			queueSize = conf[0].FlushQueueSize
		}
	}

	b := &InsertBuffer{
		writer:   writer,
		pending:  make([]pendingRecord, 0, maxBatch),
		batches:  make(chan []pendingRecord, queueSize),
		maxBatch: maxBatch,
		interval: interval,
		done:     make(chan struct{}),
	}
	if len(conf) > 0 && conf[0].Journal != nil {
		b.journal = conf[0].Journal
	}

	b.wg.Add(1)
	go b.writeLoop()

	b.wg.Add(1)
	b.timerWg.Add(1)
	go b.timerLoop()

	return b
}

// Add accepts one record from the pipeline, assigning an event ID when the
// source did not carry one.
func (b *InsertBuffer) Add(rec *model.LogRecord) {
	if rec.EventID == "" {
		rec.EventID = nextEventID()
	}

	seq, ok := b.appendDurable(rec)
	if !ok {
		return
	}

	b.mu.Lock()
	b.pending = append(b.pending, pendingRecord{seq: seq, rec: rec})
	var batch []pendingRecord
	if len(b.pending) >= b.maxBatch {
		batch = b.pending
		b.pending = make([]pendingRecord, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if batch != nil {
		b.dispatch(batch)
	}
}

// Stop cuts the final batch, drains the queue, and closes the journal. The
// timer loop must finish its last cut before the queue closes, or the tail
// of the stream would be lost.
func (b *InsertBuffer) Stop() {
	close(b.done)
	b.timerWg.Wait()
	close(b.batches)
	b.wg.Wait()
	if b.journal != nil {
		if err := b.journal.Close(); err != nil {
			log.Printf("duckdb: journal close: %v", err)
		}
	}
}

// appendDurable journals the record, retrying until it lands or the buffer
// shuts down. Without a journal it reports sequence zero immediately.
func (b *InsertBuffer) appendDurable(rec *model.LogRecord) (uint64, bool) {
	if b.journal == nil {
		return 0, true
	}
	for {
		seq, err := b.journal.Append(rec)
		if err == nil {
			return seq, true
		}
		log.Printf("duckdb: journal append failed, retrying: %v", err)
		select {
		case <-b.done:
			return 0, false
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (b *InsertBuffer) timerLoop() {
	defer b.wg.Done()
	defer b.timerWg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.cutPending()
		case <-b.done:
			b.cutPending()
			return
		}
	}
}

// cutPending moves whatever has gathered since the last cut into the
// dispatch queue.
func (b *InsertBuffer) cutPending() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make([]pendingRecord, 0, b.maxBatch)
	b.mu.Unlock()

	b.dispatch(batch)
}

// dispatch queues a batch for the write loop. A full queue means the store
// is behind; the batch is then written inline on the calling goroutine
// rather than queued without bound.
func (b *InsertBuffer) dispatch(batch []pendingRecord) {
	select {
	case b.batches <- batch:
	default:
		b.noteInlineWrite()
		if err := b.writeBatch(batch); err != nil {
			log.Printf("duckdb: inline batch write: %v", err)
		}
	}
}

// noteInlineWrite throttles the backpressure warning to once per 10 seconds.
func (b *InsertBuffer) noteInlineWrite() {
	count := b.inlineWrites.Add(1)
	now := time.Now().Unix()
	last := b.lastInlineLog.Load()
	if now-last >= 10 && b.lastInlineLog.CompareAndSwap(last, now) {
		log.Printf("duckdb: backpressure: %d inline writes, store is falling behind", count)
	}
}

func (b *InsertBuffer) writeLoop() {
	defer b.wg.Done()
	for batch := range b.batches {
		if err := b.writeBatch(batch); err != nil {
			log.Printf("duckdb: batch write: %v", err)
		}
	}
}

// writeBatch hands the records to the store and, on success, advances the
// journal's commit mark past the batch.
func (b *InsertBuffer) writeBatch(batch []pendingRecord) error {
	if len(batch) == 0 {
		return nil
	}

	records := make([]*model.LogRecord, len(batch))
	for i, p := range batch {
		records[i] = p.rec
	}
	if err := b.writer.InsertLogBatch(records); err != nil {
		return err
	}

	if b.journal == nil {
		return nil
	}
	var maxSeq uint64
	for _, p := range batch {
		if p.seq > maxSeq {
			maxSeq = p.seq
		}
	}
	if maxSeq == 0 {
		return nil
	}
	if err := b.journal.Commit(maxSeq); err != nil {
		return fmt.Errorf("journal commit seq=%d: %w", maxSeq, err)
	}
	return nil
}

// InsertLogBatch writes records in one transaction. When the batch fails as
// a whole it is retried one record at a time, so a single bad record cannot
// sink its neighbors.
func (s *Store) InsertLogBatch(records []*model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insertTx(ctx, records); err == nil {
		return nil
	}
	s.salvageRecords(ctx, records)
	return nil
}

func (s *Store) salvageRecords(ctx context.Context, records []*model.LogRecord) {
	dropped := 0
	for _, r := range records {
		if err := s.insertTx(ctx, []*model.LogRecord{r}); err != nil {
			dropped++
			log.Printf("duckdb: dropping record (service=%s msg=%.80s): %v", r.Service, r.Message, err)
		}
	}
	if dropped > 0 {
		log.Printf("duckdb: salvage dropped %d of %d records", dropped, len(records))
	}
}

func (s *Store) insertTx(ctx context.Context, records []*model.LogRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO logs (timestamp, orig_timestamp, level, level_num, message, raw_line, service, hostname, attributes, source, app, event_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		attrsJSON := []byte("{}")
		if len(r.Attributes) > 0 {
			if data, merr := json.Marshal(r.Attributes); merr != nil {
				log.Printf("duckdb: encode attributes, storing empty: %v", merr)
			} else {
				attrsJSON = data
			}
		}

		var origTS any
		if !r.OrigTimestamp.IsZero() {
			origTS = r.OrigTimestamp
		}

		app := r.App
		if app == "" {
			app = "default"
		}
		eventID := r.EventID
		if eventID == "" {
			eventID = nextEventID()
		}

		if _, err := stmt.ExecContext(
			ctx,
			r.Timestamp, origTS, r.Level, r.LevelNum,
			r.Message, r.RawLine, r.Service, r.Hostname,
			string(attrsJSON), r.Source, app, eventID,
		); err != nil {
			return fmt.Errorf("record insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func nextEventID() string {
	n := eventIDCounter.Add(1)
	return fmt.Sprintf("%x-%x", time.Now().UTC().UnixNano(), n)
}
