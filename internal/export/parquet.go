// Package export writes simulation frames to Apache Parquet files.
package export

import (
	"fmt"
	"log"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"tsunami/internal/shallow"
)

// Row is one grid cell of one exported frame.
type Row struct {
	RunID string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Step  int64   `parquet:"name=step, type=INT64"`
	Time  float64 `parquet:"name=time, type=DOUBLE"`
	I     int32   `parquet:"name=i, type=INT32"`
	J     int32   `parquet:"name=j, type=INT32"`
	X     float64 `parquet:"name=x, type=DOUBLE"`
	Y     float64 `parquet:"name=y, type=DOUBLE"`
	Eta   float64 `parquet:"name=eta, type=DOUBLE"`
	U     float64 `parquet:"name=u, type=DOUBLE"`
	V     float64 `parquet:"name=v, type=DOUBLE"`
}

// Writer appends snapshots to a single ZSTD-compressed parquet file.
type Writer struct {
	runID string
	every int

	fw     source.ParquetFile
	pw     *writer.ParquetWriter
	frames int
	rows   int64
}

// NewWriter creates path and prepares it for rows tagged with runID. Only
// steps divisible by every are written; every < 1 is treated as 1.
func NewWriter(path, runID string, every int) (*Writer, error) {
	if every < 1 {
		every = 1
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("init parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_ZSTD
	return &Writer{runID: runID, every: every, fw: fw, pw: pw}, nil
}

// Write stores every cell of s, or nothing if s.Step is filtered out.
func (w *Writer) Write(s shallow.Snapshot) error {
	if s.Step%w.every != 0 {
		return nil
	}
	nx, ny := s.Grid.Size()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			k := s.Grid.Index(i, j)
			row := Row{
				RunID: w.runID,
				Step:  int64(s.Step),
				Time:  s.Time,
				I:     int32(i),
				J:     int32(j),
				X:     s.Grid.XAt(i),
				Y:     s.Grid.YAt(j),
				Eta:   s.Eta[k],
				U:     s.U[k],
				V:     s.V[k],
			}
			if err := w.pw.Write(row); err != nil {
				return fmt.Errorf("parquet write step %d: %w", s.Step, err)
			}
		}
	}
	w.frames++
	w.rows += int64(nx * ny)
	return nil
}

// SetRunID tags subsequent rows with runID. Call it between runs that share
// one file so step numbers stay unique per run id.
func (w *Writer) SetRunID(runID string) { w.runID = runID }

// Frames returns how many snapshots have been written.
func (w *Writer) Frames() int { return w.frames }

// Close flushes the footer and closes the file.
func (w *Writer) Close() error {
	if err := w.pw.WriteStop(); err != nil {
		w.fw.Close()
		return fmt.Errorf("finalize parquet writer: %w", err)
	}
	log.Printf("Parquet export: %d frames, %d rows", w.frames, w.rows)
	return w.fw.Close()
}
