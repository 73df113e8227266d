// Package archive persists successful retrieval results to the object
// store as parquet, one object per invocation.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrigate/agrigate/internal/storage"
	"github.com/agrigate/agrigate/internal/warehouse"
)

type Archiver struct {
	Store  storage.ObjectStore
	Logger *slog.Logger
	Clock  func() time.Time
}

// ArchiveResult encodes one invocation's result table and uploads it.
// Empty tables are archived too; the parquet schema survives even when
// no rows do.
func (a *Archiver) ArchiveResult(ctx context.Context, invocationID string, table warehouse.Table) (storage.ObjectInfo, error) {
	a.ensureDefaults()
	if a.Store == nil {
		return storage.ObjectInfo{}, fmt.Errorf("no object store configured")
	}

	encoded, err := EncodeResultToParquet(invocationID, table)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("encode result to parquet: %w", err)
	}

	key, err := storage.BuildResultObjectPath(invocationID, a.Clock())
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("build result object path: %w", err)
	}

	info, err := a.Store.Put(ctx, key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("put result object: %w", err)
	}

	a.Logger.InfoContext(ctx, "archived invocation result",
		slog.String("invocation_id", invocationID),
		slog.String("object_key", info.Key),
		slog.Int64("records", encoded.RecordCount),
		slog.Int64("bytes", info.Size),
	)
	return info, nil
}

func (a *Archiver) ensureDefaults() {
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Clock == nil {
		a.Clock = time.Now
	}
}
