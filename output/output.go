// Package output writes search progress as text, CSV or JSON lines.
//
// A run emits one Init event, one Found event per match and one End event.
// Each Sink renders these events in its format:
//
//	text  Found match in 'castle.schem' at x: 1, y: 0, z: 3, % = 1
//	csv   castle.schem,1,0,3,1
//	json  {"event":"Found","name":"castle.schem","x":1,"y":0,"z":3,"percent":1}
package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/schemsearch/format"
	"github.com/arloliu/schemsearch/search"
)

// Stdout is the target name selecting standard output.
const Stdout = "std"

// Target is a parsed "format:path" output destination.
type Target struct {
	Format format.OutputFormat
	Path   string
}

// ParseTarget parses "format:path". A bare format writes to standard output.
func ParseTarget(s string) (Target, error) {
	name, path, found := strings.Cut(s, ":")
	if !found || path == "" {
		path = Stdout
	}

	f, err := format.ParseOutputFormat(name)
	if err != nil {
		return Target{}, err
	}

	return Target{Format: f, Path: path}, nil
}

func (t Target) String() string {
	return t.Format.String() + ":" + t.Path
}

// Sink renders events to a writer. It is safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	format format.OutputFormat
	w      *bufio.Writer
	csv    *csv.Writer
	closer io.Closer
}

// New creates a sink writing f-formatted events to w.
func New(f format.OutputFormat, w io.Writer) *Sink {
	s := &Sink{format: f, w: bufio.NewWriter(w)}
	if f == format.OutputCSV {
		s.csv = csv.NewWriter(s.w)
	}

	return s
}

// Open creates the sink described by t. Standard output is written to stdout.
func Open(t Target, stdout io.Writer) (*Sink, error) {
	if t.Path == Stdout {
		return New(t.Format, stdout), nil
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", t, err)
	}
	s := New(t.Format, f)
	s.closer = f

	return s, nil
}

type initEvent struct {
	Event          string   `json:"event"`
	Total          int      `json:"total"`
	SearchBehavior behavior `json:"search_behavior"`
	StartTime      int64    `json:"start_time"`
}

type behavior struct {
	IgnoreBlockData     bool    `json:"ignore_block_data"`
	IgnoreBlockEntities bool    `json:"ignore_block_entities"`
	IgnoreAir           bool    `json:"ignore_air"`
	AirAsAny            bool    `json:"air_as_any"`
	IgnoreEntities      bool    `json:"ignore_entities"`
	Threshold           float64 `json:"threshold"`
}

type foundEvent struct {
	Event   string  `json:"event"`
	Name    string  `json:"name"`
	X       uint16  `json:"x"`
	Y       uint16  `json:"y"`
	Z       uint16  `json:"z"`
	Percent float32 `json:"percent"`
}

type endEvent struct {
	Event   string `json:"event"`
	EndTime int64  `json:"end_time"`
}

// Init announces a search over total schematics starting at start.
func (s *Sink) Init(total int, b search.Behavior, start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case format.OutputCSV:
		return s.writeRecord("Name", "X", "Y", "Z", "Percent")
	case format.OutputJSON:
		return s.writeJSON(initEvent{
			Event: "Init",
			Total: total,
			SearchBehavior: behavior{
				IgnoreBlockData:     b.IgnoreBlockData,
				IgnoreBlockEntities: b.IgnoreBlockEntities,
				IgnoreAir:           b.IgnoreAir,
				AirAsAny:            b.AirAsAny,
				IgnoreEntities:      b.IgnoreEntities,
				Threshold:           b.Threshold,
			},
			StartTime: start.UnixMilli(),
		})
	default:
		_, err := fmt.Fprintf(s.w, "Starting search in %d schematics\n", total)
		return err
	}
}

// Found reports a match in the schematic called name.
func (s *Sink) Found(name string, m search.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent := strconv.FormatFloat(float64(m.Percent), 'g', -1, 32)
	switch s.format {
	case format.OutputCSV:
		return s.writeRecord(name,
			strconv.Itoa(int(m.X)), strconv.Itoa(int(m.Y)), strconv.Itoa(int(m.Z)), percent)
	case format.OutputJSON:
		return s.writeJSON(foundEvent{Event: "Found", Name: name, X: m.X, Y: m.Y, Z: m.Z, Percent: m.Percent})
	default:
		_, err := fmt.Fprintf(s.w, "Found match in '%s' at x: %d, y: %d, z: %d, %% = %s\n",
			name, m.X, m.Y, m.Z, percent)
		return err
	}
}

// End reports completion of the search after elapsed.
func (s *Sink) End(elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	millis := elapsed.Milliseconds()
	var err error
	switch s.format {
	case format.OutputCSV:
		err = s.writeRecord(strconv.FormatInt(millis, 10))
	case format.OutputJSON:
		err = s.writeJSON(endEvent{Event: "End", EndTime: millis})
	default:
		_, err = fmt.Fprintf(s.w, "Search complete in %ds\n", millis/1000)
	}
	if err != nil {
		return err
	}

	return s.w.Flush()
}

// Close flushes buffered output and closes the underlying file, if any.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}

	return err
}

func (s *Sink) writeRecord(fields ...string) error {
	if err := s.csv.Write(fields); err != nil {
		return err
	}
	s.csv.Flush()

	return s.csv.Error()
}

func (s *Sink) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.w.Write(data)

	return err
}

// Sinks fans events out to several sinks.
type Sinks []*Sink

// Init calls Init on every sink and returns the first error.
func (ss Sinks) Init(total int, b search.Behavior, start time.Time) error {
	for _, s := range ss {
		if err := s.Init(total, b, start); err != nil {
			return err
		}
	}

	return nil
}

// Found calls Found on every sink and returns the first error.
func (ss Sinks) Found(name string, m search.Match) error {
	for _, s := range ss {
		if err := s.Found(name, m); err != nil {
			return err
		}
	}

	return nil
}

// End calls End on every sink and returns the first error.
func (ss Sinks) End(elapsed time.Duration) error {
	for _, s := range ss {
		if err := s.End(elapsed); err != nil {
			return err
		}
	}

	return nil
}

// Close closes every sink and returns the first error.
func (ss Sinks) Close() error {
	var first error
	for _, s := range ss {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
