package journal

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"manifestsim/internal/world"
)

// archive.go writes zstd-compressed state-snapshot archives: a one-line JSON
// header (so tools can identify an archive without decoding the body)
// followed by the gob-encoded snapshot. The harness writes one every N ticks
// for offline inspection and regression-fixture capture.

// ArchiveVersion is bumped whenever the archive layout changes.
const ArchiveVersion = 1

// ArchiveHeader identifies an archive file.
type ArchiveHeader struct {
	Version  int    `json:"version"`
	RunID    string `json:"runId"`
	Scenario string `json:"scenario"`
	Tick     uint64 `json:"tick"`
}

// WriteSnapshot writes the snapshot archive at path, creating parent
// directories as needed.
func WriteSnapshot(path string, header ArchiveHeader, snap world.StateSnapshot) error {
	header.Version = ArchiveVersion
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadSnapshot reads an archive written by WriteSnapshot.
func ReadSnapshot(path string) (ArchiveHeader, world.StateSnapshot, error) {
	var header ArchiveHeader
	var snap world.StateSnapshot

	f, err := os.Open(path)
	if err != nil {
		return header, snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return header, snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return header, snap, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &header); err != nil {
		return header, snap, fmt.Errorf("decode header: %w", err)
	}
	if header.Version != ArchiveVersion {
		return header, snap, fmt.Errorf("unsupported archive version %d", header.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return header, snap, fmt.Errorf("gob decode: %w", err)
	}
	return header, snap, nil
}
