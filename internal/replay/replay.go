// Package replay stores simulated days as zstd-compressed JSON lines. The
// first line is a Header; every following line is one sim.DayRecord.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

const FormatVersion = 1

var ErrBadHeader = errors.New("replay: missing or invalid header")

type Header struct {
	Version       int                  `json:"version"`
	ContentDigest string               `json:"content_digest"`
	Config        sim.SimulationConfig `json:"config"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Writer implements sim.Recorder.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	n   int
}

func Create(path string, h Header) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}
	if h.Version == 0 {
		h.Version = FormatVersion
	}
	if err := w.writeLine(h); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Record(d sim.DayRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writeLine(d); err != nil {
		return err
	}
	w.n++
	return nil
}

// Records reports how many day records were written so far.
func (w *Writer) Records() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func (w *Writer) writeLine(v any) error {
	if w.w == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// Read decodes the replay at path, calling fn for every day record in file
// order. Returning an error from fn stops the scan.
func Read(path string, fn func(sim.DayRecord) error) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	return Decode(f, fn)
}

func Decode(r io.Reader, fn func(sim.DayRecord) error) (Header, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var h Header
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return h, err
		}
		return h, ErrBadHeader
	}
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil || h.Version == 0 {
		return h, ErrBadHeader
	}
	if h.Version > FormatVersion {
		return h, fmt.Errorf("replay: unsupported version %d", h.Version)
	}

	line := 1
	for sc.Scan() {
		line++
		var d sim.DayRecord
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			return h, fmt.Errorf("replay: line %d: %w", line, err)
		}
		if fn == nil {
			continue
		}
		if err := fn(d); err != nil {
			return h, err
		}
	}
	return h, sc.Err()
}

type CompanySummary struct {
	ID        string  `json:"id"`
	Days      int     `json:"days"`
	LastDay   int     `json:"last_day"`
	Cash      float64 `json:"cash"`
	Users     int     `json:"users"`
	Alive     bool    `json:"alive"`
	Anomalies int     `json:"anomalies"`
	BossTurns int     `json:"boss_turns"`
}

type Summary struct {
	Header    Header           `json:"header"`
	Records   int              `json:"records"`
	Companies []CompanySummary `json:"companies"`
}

// Summarize folds a replay into one line per company, in first-seen order.
func Summarize(path string) (Summary, error) {
	var (
		out   Summary
		index = map[string]int{}
	)
	h, err := Read(path, func(d sim.DayRecord) error {
		out.Records++
		i, ok := index[d.CompanyID]
		if !ok {
			i = len(out.Companies)
			index[d.CompanyID] = i
			out.Companies = append(out.Companies, CompanySummary{ID: d.CompanyID})
		}
		cs := &out.Companies[i]
		cs.Days++
		cs.LastDay = d.Day
		cs.Cash = d.Snapshot.Cash
		cs.Users = d.Snapshot.Users
		cs.Alive = d.Alive
		cs.Anomalies += len(d.Anomalies)
		if d.Boss != nil {
			cs.BossTurns++
		}
		return nil
	})
	out.Header = h
	return out, err
}
