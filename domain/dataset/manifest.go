package dataset

import (
	"gtheory/domain/core"
)

// IngestManifest captures where a table came from and what the reader did to
// it, kept alongside the analysis for audit.
type IngestManifest struct {
	SourcePath     string         `json:"source_path"`
	ResponseColumn string         `json:"response_column"`
	Facets         []string       `json:"facets"`
	RowCount       int            `json:"row_count"`
	DroppedColumns []string       `json:"dropped_columns,omitempty"`
	MissingRows    int            `json:"missing_rows"`
	LoadedAt       core.Timestamp `json:"loaded_at"`
}

// NewIngestManifest records the outcome of one file load
func NewIngestManifest(sourcePath, responseColumn string, table *Table) *IngestManifest {
	return &IngestManifest{
		SourcePath:     sourcePath,
		ResponseColumn: responseColumn,
		Facets:         table.Facets(),
		RowCount:       table.NumRows(),
		LoadedAt:       core.Now(),
	}
}
