package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrArchiveCorrupt reports container bytes that cannot be decoded as a
// zip bundle. Callers typically fall back to the no-history policy.
var ErrArchiveCorrupt = errors.New("archive container is corrupt")

const (
	fullSuffix  = ".full"
	deltaSuffix = ".delta"

	// maxEntryBytes bounds a single inner entry. Entries beyond this are
	// skipped with a diagnostic rather than failing the whole parse.
	maxEntryBytes = 16 << 20
)

// Entry is one archived version: a full snapshot or a reverse delta.
//
// For a delta entry, applying Payload to the state at this entry's
// chronologically newer neighbor yields the state immediately older
// than it. The chain is walked newest to oldest to move back in time.
type Entry struct {
	// TimestampMs is the version instant, unix milliseconds.
	TimestampMs int64

	// Full marks a complete snapshot rather than a delta.
	Full bool

	// Payload is the snapshot text or the encoded delta.
	Payload string
}

// Reader parses archive containers into ordered entry lists.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates an archive reader.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// Parse decodes raw container bytes into entries sorted ascending by
// timestamp. An empty-but-valid container yields an empty slice. Entries
// with unrecognized names are skipped with a diagnostic; only an
// undecodable container is an error (ErrArchiveCorrupt).
func (r *Reader) Parse(raw []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		ts, full, ok := decodeName(f.Name)
		if !ok {
			r.logger.Warn("skipping unrecognized archive entry", zap.String("name", f.Name))
			continue
		}
		if f.UncompressedSize64 > maxEntryBytes {
			r.logger.Warn("skipping oversized archive entry",
				zap.String("name", f.Name),
				zap.Uint64("size", f.UncompressedSize64))
			continue
		}

		payload, err := readEntry(f)
		if err != nil {
			r.logger.Warn("skipping unreadable archive entry",
				zap.String("name", f.Name),
				zap.Error(err))
			continue
		}

		entries = append(entries, Entry{TimestampMs: ts, Full: full, Payload: payload})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TimestampMs < entries[j].TimestampMs
	})

	if n := len(entries); n > 0 && !entries[n-1].Full {
		// Best-effort per contract: the newest entry should be a
		// checkpoint, but a writer mid-rotation can leave a delta on top.
		r.logger.Warn("newest archive entry is not a full snapshot",
			zap.Int64("timestamp_ms", entries[n-1].TimestampMs))
	}

	return entries, nil
}

// decodeName extracts (timestampMs, isFull) from an inner entry name.
// Names may carry a directory prefix; only the base name is significant.
func decodeName(name string) (int64, bool, bool) {
	base := path.Base(name)

	var full bool
	switch {
	case strings.HasSuffix(base, fullSuffix):
		full = true
		base = strings.TrimSuffix(base, fullSuffix)
	case strings.HasSuffix(base, deltaSuffix):
		base = strings.TrimSuffix(base, deltaSuffix)
	default:
		return 0, false, false
	}

	ts, err := strconv.ParseInt(base, 10, 64)
	if err != nil || ts < 0 {
		return 0, false, false
	}
	return ts, full, true
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxEntryBytes {
		return "", errors.New("entry exceeds size limit")
	}
	return string(data), nil
}
