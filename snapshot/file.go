package snapshot

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

// SaveToFile writes a snapshot to name, compressing with zstd when the name
// ends in .zst.
func SaveToFile(points []quadtree.Point[pointmodel.Info], meta Metadata, name string) error {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("can`t create file error: %w", err)
	}
	defer file.Close()

	if strings.HasSuffix(name, ".zst") {
		enc, err := zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("can`t create zstd writer: %w", err)
		}
		if err := Save(points, meta, enc); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	}

	return Save(points, meta, file)
}
