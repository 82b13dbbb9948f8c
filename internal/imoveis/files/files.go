package files

import (
	"archive/zip"
	"bytes"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/downloader"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rotisserie/eris"
)

var ErrUnsupportedFormat = eris.New("unsupported snapshot format")

type Format int

const (
	FormatUnknown Format = iota
	FormatParquet
	FormatCSV
	FormatXLSX
	FormatZip
)

func (f Format) String() string {
	switch f {
	case FormatParquet:
		return "parquet"
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatZip:
		return "zip"
	default:
		return "unknown"
	}
}

var formatByExt = map[string]Format{
	".parquet":    FormatParquet,
	".geoparquet": FormatParquet,
	".pq":         FormatParquet,
	".csv":        FormatCSV,
	".txt":        FormatCSV,
	".xlsx":       FormatXLSX,
	".zip":        FormatZip,
}

var formatByContentType = map[string]Format{
	"application/vnd.apache.parquet": FormatParquet,
	"application/x-parquet":          FormatParquet,
	"text/csv":                       FormatCSV,
	"application/csv":                FormatCSV,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatXLSX,
	"application/zip":              FormatZip,
	"application/x-zip-compressed": FormatZip,
}

var (
	parquetMagic = []byte("PAR1")
	zipMagic     = []byte("PK\x03\x04")
)

// DetectFormat picks the decoder from the file extension, then the
// Content-Type, then the leading bytes.
func DetectFormat(name, contentType string, data []byte) Format {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}

	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if f, ok := formatByContentType[mt]; ok {
				return f
			}
		}
	}

	switch {
	case bytes.HasPrefix(data, parquetMagic):
		return FormatParquet
	case bytes.HasPrefix(data, zipMagic):
		if isWorkbook(data) {
			return FormatXLSX
		}
		return FormatZip
	case looksLikeText(data):
		return FormatCSV
	}
	return FormatUnknown
}

func isWorkbook(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "xl/workbook.xml" {
			return true
		}
	}
	return false
}

func looksLikeText(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return len(head) > 0 && bytes.IndexByte(head, 0) < 0
}

// GeometryStats describes the geometry column read before it is dropped.
type GeometryStats struct {
	Rows    int
	Invalid int
	Types   map[string]int
}

// Raw is a decoded snapshot restricted to the projected columns. Every
// column is string-typed; missing values are NA.
type Raw struct {
	Format   Format
	Rows     int
	Columns  []string
	Missing  []string
	Geometry GeometryStats
	Frame    dataframe.DataFrame
}

// Has reports whether the projected column was found in the snapshot.
func (r Raw) Has(col string) bool {
	return utils.ContainsString(r.Columns, col)
}

// columnSet is what each format reader produces.
type columnSet struct {
	rows     int
	cells    map[string][]string
	geometry GeometryStats
}

// Decode parses a snapshot and keeps only the requested raw columns, in
// the order they were requested.
func Decode(snap downloader.Snapshot, columns []string, appLogger *logger.Logger) (Raw, error) {
	const component = "FileDecoder"

	format := DetectFormat(snap.Name, snap.ContentType, snap.Data)
	appLogger.Debug(component, "Decoding snapshot name=%s format=%s size=%d", snap.Name, format, len(snap.Data))

	if format == FormatZip {
		inner, err := unzipSnapshot(snap.Data, appLogger)
		if err != nil {
			return Raw{}, err
		}
		snap = inner
		format = DetectFormat(inner.Name, "", inner.Data)
	}

	var (
		set columnSet
		err error
	)
	switch format {
	case FormatParquet:
		set, err = ReadParquet(bytes.NewReader(snap.Data), int64(len(snap.Data)), columns)
	case FormatCSV:
		set, err = ReadCSV(snap.Data, columns)
	case FormatXLSX:
		set, err = ReadXLSX(snap.Data, columns)
	default:
		return Raw{}, eris.Wrapf(ErrUnsupportedFormat, "snapshot %s", snap.Name)
	}
	if err != nil {
		return Raw{}, eris.Wrapf(err, "failed to decode %s snapshot %s", format, snap.Name)
	}

	raw := Raw{Format: format, Rows: set.rows, Geometry: set.geometry}
	var cols []series.Series
	for _, name := range columns {
		cells, ok := set.cells[name]
		if !ok {
			raw.Missing = append(raw.Missing, name)
			continue
		}
		raw.Columns = append(raw.Columns, name)
		cols = append(cols, utils.StringSeries(name, cells))
	}
	if len(cols) > 0 {
		raw.Frame = dataframe.New(cols...)
		if err := raw.Frame.Error(); err != nil {
			return Raw{}, eris.Wrap(err, "failed to assemble snapshot columns")
		}
	}

	if raw.Geometry.Rows > 0 || raw.Geometry.Invalid > 0 {
		appLogger.Info(component, "Dropped geometry column: valid=%d invalid=%d", raw.Geometry.Rows, raw.Geometry.Invalid)
	}
	appLogger.Info(component, "Decoded snapshot format=%s rows=%d columns=%d missing=%v", format, raw.Rows, len(raw.Columns), raw.Missing)
	return raw, nil
}

var innerPriority = []Format{FormatParquet, FormatXLSX, FormatCSV}

func isSnapshotEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
		return false
	}
	_, ok := formatByExt[strings.ToLower(filepath.Ext(f.Name))]
	return ok && !strings.EqualFold(filepath.Ext(f.Name), ".zip")
}

// unzipSnapshot extracts the snapshot file from an archive into memory.
func unzipSnapshot(data []byte, appLogger *logger.Logger) (downloader.Snapshot, error) {
	const component = "Unzipper"

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return downloader.Snapshot{}, eris.Wrap(err, "failed to open zip archive")
	}

	var chosen *zip.File
	for _, want := range innerPriority {
		for _, f := range zr.File {
			if isSnapshotEntry(f) && formatByExt[strings.ToLower(filepath.Ext(f.Name))] == want {
				chosen = f
				break
			}
		}
		if chosen != nil {
			break
		}
	}
	if chosen == nil {
		return downloader.Snapshot{}, eris.Wrap(ErrUnsupportedFormat, "zip archive holds no snapshot file")
	}

	rc, err := chosen.Open()
	if err != nil {
		return downloader.Snapshot{}, eris.Wrapf(err, "failed to open zipped file %s", chosen.Name)
	}
	defer rc.Close()

	inner, err := io.ReadAll(rc)
	if err != nil {
		return downloader.Snapshot{}, eris.Wrapf(err, "failed to extract %s", chosen.Name)
	}

	appLogger.Debug(component, "Extracted %s (%d bytes)", chosen.Name, len(inner))
	return downloader.Snapshot{Name: chosen.Name, Data: inner}, nil
}
