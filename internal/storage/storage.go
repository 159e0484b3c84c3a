package storage

import (
	"fmt"
	"log/slog"
)

// Row is one flattened export record. Absent optional fields are simply
// missing keys; the writers derive sparse schemas from the union of keys.
type Row = map[string]string

// Storage is the interface for all export backends.
type Storage interface {
	// Store persists a batch of rows.
	Store(rows []Row) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// NewRecordSink builds the record sink named by sinkType. File-backed sinks
// ("json", "jsonl", "csv") write under outputDir and ignore the connection
// parameters; "multi" fans out to MongoDB and a JSONL file side by side.
func NewRecordSink(sinkType, uri, database, collection, outputDir string, logger *slog.Logger) (Storage, error) {
	switch sinkType {
	case "mongodb":
		return NewMongoStorage(uri, database, collection, logger)
	case "json", "jsonl", "csv":
		return NewFileStorage(sinkType, outputDir, logger)
	case "multi":
		mongo, err := NewMongoStorage(uri, database, collection, logger)
		if err != nil {
			return nil, err
		}
		file, err := NewFileStorage("jsonl", outputDir, logger)
		if err != nil {
			mongo.Close()
			return nil, err
		}
		return NewMultiStorage([]Storage{mongo, file}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", sinkType)
	}
}
