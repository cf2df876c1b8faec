package replay

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"wheelly/control/internal/worldmodel"
)

var writerNameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Writer streams WorldModel snapshots and robot commands to a single
// zstd-compressed binary file, in the positional format internal/replay's
// codec defines: one Header, then a stream of length-prefixed records each
// tagged with its recordKind.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	stream *zstd.Encoder
	now    func() time.Time
}

// NewWriter creates dir/<name>-<timestamp>.replay.zst, writes the header,
// and returns a Writer ready to append records.
func NewWriter(dir, name string, header Header, clock func() time.Time) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay: directory must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	cleaned := writerNameCleaner.ReplaceAllString(name, "")
	if cleaned == "" {
		cleaned = "session"
	}
	created := clock().UTC()
	filename := fmt.Sprintf("%s-%s.replay.zst", cleaned, created.Format("20060102T150405Z"))
	path := filepath.Join(dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	stream, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	if err := writeHeader(stream, header); err != nil {
		stream.Close()
		file.Close()
		return nil, err
	}

	return &Writer{path: path, file: file, stream: stream, now: clock}, nil
}

// Path returns the file path backing this writer.
func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// AppendWorldModel writes one WorldModel record, length-prefixed like
// every record. The loader rejects a file holding a record kind it does
// not know rather than skipping that record.
func (w *Writer) AppendWorldModel(wm worldmodel.WorldModel) error {
	return w.appendRecord(recordWorldModel, func(buf *sliceWriter) error {
		return writeWorldModel(buf, wm)
	})
}

// AppendCommand writes one RobotCommand record.
func (w *Writer) AppendCommand(cmd RobotCommand) error {
	return w.appendRecord(recordRobotCommand, func(buf *sliceWriter) error {
		return writeRobotCommand(buf, cmd)
	})
}

func (w *Writer) appendRecord(kind recordKind, encode func(*sliceWriter) error) error {
	if w == nil {
		return fmt.Errorf("replay: writer not initialised")
	}
	buf := &sliceWriter{}
	if err := encode(buf); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.stream.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(buf.data)))
	if _, err := w.stream.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.stream.Write(buf.data)
	return err
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	if err := w.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// sliceWriter is an io.Writer over a growable in-memory buffer, used so a
// record's length prefix can be computed before it is written to the
// stream.
type sliceWriter struct{ data []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}
