// Package journal gives ingested records a crash-safe holding area between
// the moment the pipeline accepts them and the moment DuckDB confirms the
// insert. Entries are appended as JSON lines and fsynced one by one; a
// sidecar file holds the highest sequence whose batch reached the store.
// After a restart, everything past that mark is replayed into the insert
// path, so an unclean shutdown loses at most the line that was mid-write.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tinytelemetry/sage/internal/model"
)

const (
	fileMode = 0644
	dirMode  = 0755
)

// walEntry is one persisted record with its assigned sequence.
type walEntry struct {
	Seq uint64          `json:"seq"`
	Rec model.LogRecord `json:"rec"`
}

// Journal is the append-only record log. Append runs on the ingest path and
// Commit on the flush worker, so every method takes the mutex.
type Journal struct {
	mu        sync.Mutex
	walPath   string
	markPath  string
	wal       *os.File
	nextSeq   uint64
	confirmed uint64
}

// Open creates or reopens the journal at path. Entries already confirmed by
// a previous run are dropped before the log is reopened for appending, so
// the file only ever holds records that might still need replaying.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}

	markPath := path + ".commit"
	confirmed, err := loadMark(markPath)
	if err != nil {
		return nil, err
	}

	lastSeq, err := dropConfirmed(path, confirmed)
	if err != nil {
		return nil, err
	}

	wal, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	next := lastSeq + 1
	if confirmed >= next {
		next = confirmed + 1
	}

	return &Journal{
		walPath:   path,
		markPath:  markPath,
		wal:       wal,
		nextSeq:   next,
		confirmed: confirmed,
	}, nil
}

// Append persists one record and returns the sequence it was assigned. The
// sequence is only consumed once the entry is durably on disk, so a failed
// append can be retried without leaving a gap.
func (j *Journal) Append(rec *model.LogRecord) (uint64, error) {
	if rec == nil {
		return 0, errors.New("journal: nil record")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	e := walEntry{Seq: j.nextSeq, Rec: snapshot(rec)}
	line, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("journal: encode record: %w", err)
	}
	if _, err := j.wal.Write(append(line, '\n')); err != nil {
		return 0, fmt.Errorf("journal: append: %w", err)
	}
	if err := j.wal.Sync(); err != nil {
		return 0, fmt.Errorf("journal: fsync: %w", err)
	}
	j.nextSeq++
	return e.Seq, nil
}

// Commit advances the durable mark: every entry at or below seq is now in
// the store and will not be replayed. Stale or repeated marks are no-ops.
func (j *Journal) Commit(seq uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if seq <= j.confirmed {
		return nil
	}
	payload := []byte(strconv.FormatUint(seq, 10) + "\n")
	if err := writeFileSync(j.markPath, payload); err != nil {
		return fmt.Errorf("journal: advance commit mark: %w", err)
	}
	j.confirmed = seq
	return nil
}

// Committed returns the highest confirmed sequence.
func (j *Journal) Committed() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.confirmed
}

// Replay invokes fn for every entry past the commit mark, in sequence
// order. fn receives its own copy of each record.
func (j *Journal) Replay(fn func(seq uint64, rec *model.LogRecord) error) error {
	if fn == nil {
		return errors.New("journal: nil replay func")
	}

	j.mu.Lock()
	walPath, confirmed := j.walPath, j.confirmed
	j.mu.Unlock()

	f, err := os.Open(walPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("journal: open for replay: %w", err)
	}
	defer f.Close()

	return scanEntries(f, func(e walEntry) error {
		if e.Seq <= confirmed {
			return nil
		}
		rec := e.Rec
		return fn(e.Seq, &rec)
	})
}

// Close closes the underlying log file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.wal == nil {
		return nil
	}
	err := j.wal.Close()
	j.wal = nil
	return err
}

// scanEntries decodes JSON-line entries from r until the end of the log.
// A final line without its newline never finished writing, and a line that
// fails to decode marks the same kind of torn tail; scanning stops cleanly
// at either, keeping everything before it.
func scanEntries(r io.Reader, fn func(walEntry) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("journal: read: %w", err)
		}
		var e walEntry
		if json.Unmarshal(line, &e) != nil {
			return nil
		}
		if ferr := fn(e); ferr != nil {
			return ferr
		}
	}
}

// dropConfirmed rewrites the log without entries at or below the confirmed
// mark and reports the highest sequence seen. Runs once at Open, before the
// log is reopened for appending.
func dropConfirmed(path string, confirmed uint64) (uint64, error) {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("journal: open for compaction: %w", err)
	}
	defer src.Close()

	tmp := path + ".compact"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return 0, fmt.Errorf("journal: compaction temp: %w", err)
	}

	w := bufio.NewWriter(dst)
	var lastSeq uint64
	scanErr := scanEntries(src, func(e walEntry) error {
		if e.Seq > lastSeq {
			lastSeq = e.Seq
		}
		if e.Seq <= confirmed {
			return nil
		}
		line, merr := json.Marshal(e)
		if merr != nil {
			return merr
		}
		_, werr := w.Write(append(line, '\n'))
		return werr
	})
	if scanErr == nil {
		scanErr = w.Flush()
	}
	if scanErr == nil {
		scanErr = dst.Sync()
	}
	if cerr := dst.Close(); scanErr == nil {
		scanErr = cerr
	}
	if scanErr != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("journal: compaction: %w", scanErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("journal: swap compacted log: %w", err)
	}
	return lastSeq, nil
}

func loadMark(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("journal: read commit mark: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	seq, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("journal: commit mark %q: %w", text, err)
	}
	return seq, nil
}

// writeFileSync writes data through a temp file, fsyncs it, and renames it
// into place, so the target holds either the old content or the new one.
func writeFileSync(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// snapshot copies the record so later mutation by the caller cannot leak
// into the persisted entry.
func snapshot(rec *model.LogRecord) model.LogRecord {
	out := *rec
	out.Attributes = make(map[string]string, len(rec.Attributes))
	for k, v := range rec.Attributes {
		out.Attributes[k] = v
	}
	return out
}
