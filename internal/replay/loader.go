package replay

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"wheelly/control/internal/worldmodel"
)

// Record is one decoded entry from a replay file: exactly one of WorldModel
// or Command is populated, matching the Kind tag.
type Record struct {
	Kind       recordKind
	WorldModel worldmodel.WorldModel
	Command    RobotCommand
}

// IsWorldModel reports whether this record carries a WorldModel snapshot.
func (r Record) IsWorldModel() bool { return r.Kind == recordWorldModel }

// IsCommand reports whether this record carries a RobotCommand.
func (r Record) IsCommand() bool { return r.Kind == recordRobotCommand }

// Loader rehydrates a replay file written by Writer, exposing the header
// and an ordered record stream.
type Loader struct {
	Header  Header
	Records []Record
}

// Load reads and fully decodes the replay file at path.
func Load(path string) (*Loader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stream, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	header, err := readHeader(stream)
	if err != nil {
		return nil, fmt.Errorf("replay: read header: %w", err)
	}

	loader := &Loader{Header: header}
	for {
		record, err := readOneRecord(stream)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		loader.Records = append(loader.Records, record)
	}
	return loader, nil
}

func readOneRecord(r io.Reader) (Record, error) {
	var kindByte [1]byte
	if _, err := io.ReadFull(r, kindByte[:]); err != nil {
		return Record{}, err
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Record{}, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Record{}, err
	}

	body := &sliceReader{data: payload}
	kind := recordKind(kindByte[0])
	switch kind {
	case recordWorldModel:
		wm, err := readWorldModel(body)
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: kind, WorldModel: wm}, nil
	case recordRobotCommand:
		cmd, err := readRobotCommand(body)
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: kind, Command: cmd}, nil
	default:
		return Record{}, fmt.Errorf("replay: unknown record kind %d", kindByte[0])
	}
}

// Replay invokes apply for every record in file order.
func (l *Loader) Replay(apply func(Record) error) error {
	if l == nil {
		return fmt.Errorf("replay: loader not initialised")
	}
	for _, record := range l.Records {
		if err := apply(record); err != nil {
			return err
		}
	}
	return nil
}

type sliceReader struct {
	data []byte
	pos  int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}
