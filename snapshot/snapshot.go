// Package snapshot reads and writes the on-disk point set format (.qis).
// A snapshot stores the flat point list, not the tree structure; the index
// is rebuilt on load.
package snapshot

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

var MAGIC_BYTES = []byte("QIDXSNAP")

const COMPATIBILITY_LEVEL uint32 = 1

type Metadata struct {
	Version     uint32
	Dataset     string
	DateCreated time.Time
}

// payload is the gob body following the magic bytes and compatibility level.
type payload struct {
	Metadata Metadata
	Points   []quadtree.Point[pointmodel.Info]
}

func Save(points []quadtree.Point[pointmodel.Info], meta Metadata, w io.Writer) error {
	if _, err := w.Write(MAGIC_BYTES); err != nil {
		return fmt.Errorf("error writing magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, COMPATIBILITY_LEVEL); err != nil {
		return fmt.Errorf("error writing compatibility level: %w", err)
	}
	if err := gob.NewEncoder(w).Encode(payload{Metadata: meta, Points: points}); err != nil {
		return fmt.Errorf("error encoding points: %w", err)
	}
	return nil
}

func LoadFromReader(reader io.Reader, log *slog.Logger) ([]quadtree.Point[pointmodel.Info], Metadata, error) {
	magic := make([]byte, len(MAGIC_BYTES))
	if _, err := io.ReadFull(reader, magic); err != nil {
		return nil, Metadata{}, fmt.Errorf("error reading magic bytes: %w", err)
	}
	if string(magic) != string(MAGIC_BYTES) {
		return nil, Metadata{}, fmt.Errorf("not a quadindex snapshot")
	}

	var compatibilityLevel uint32
	if err := binary.Read(reader, binary.LittleEndian, &compatibilityLevel); err != nil {
		return nil, Metadata{}, fmt.Errorf("error reading compatibility level: %w", err)
	}

	switch compatibilityLevel {
	case COMPATIBILITY_LEVEL:
		var p payload
		if err := gob.NewDecoder(reader).Decode(&p); err != nil {
			return nil, Metadata{}, fmt.Errorf("error decoding points: %w", err)
		}
		log.Info("Loaded snapshot",
			"dataset", p.Metadata.Dataset,
			"version", p.Metadata.Version,
			"date_created", p.Metadata.DateCreated,
			"points", len(p.Points),
		)
		return p.Points, p.Metadata, nil
	}

	return nil, Metadata{}, fmt.Errorf("unsupported compatibility level: %d", compatibilityLevel)
}
