package files

import (
	"errors"
	"io"
	"math/big"
	"strconv"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
)

type parquetColumn struct {
	name  string
	leaf  parquet.LeafColumn
	scale int
}

// ReadParquet reads only the requested columns (plus geometry), one column
// chunk at a time. Nested and repeated columns are treated as absent.
func ReadParquet(r io.ReaderAt, size int64, columns []string) (columnSet, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return columnSet{}, eris.Wrap(err, "failed to open parquet file")
	}

	schema := f.Schema()
	var wanted []parquetColumn
	var geometry *parquet.LeafColumn

	for _, name := range columns {
		leaf, ok := schema.Lookup(name)
		if !ok || leaf.MaxRepetitionLevel > 0 {
			continue
		}
		wanted = append(wanted, parquetColumn{name: name, leaf: leaf, scale: decimalScale(leaf)})
	}
	if leaf, ok := schema.Lookup(types.GeometryColumn); ok && leaf.MaxRepetitionLevel == 0 {
		geometry = &leaf
	}

	set := columnSet{cells: make(map[string][]string, len(wanted))}
	for _, col := range wanted {
		set.cells[col.name] = make([]string, 0, f.NumRows())
	}

	for _, rg := range f.RowGroups() {
		n := int(rg.NumRows())
		chunks := rg.ColumnChunks()

		for _, col := range wanted {
			before := len(set.cells[col.name])
			err := readChunk(chunks[col.leaf.ColumnIndex], func(v parquet.Value) {
				set.cells[col.name] = append(set.cells[col.name], parquetCell(v, col.scale))
			})
			if err != nil {
				return columnSet{}, eris.Wrapf(err, "failed to read column %s", col.name)
			}
			if got := len(set.cells[col.name]) - before; got != n {
				return columnSet{}, eris.Errorf("column %s: read %d values for %d rows", col.name, got, n)
			}
		}

		if geometry != nil {
			err := readChunk(chunks[geometry.ColumnIndex], func(v parquet.Value) {
				if v.IsNull() {
					return
				}
				set.geometry.addWKB(v.ByteArray())
			})
			if err != nil {
				return columnSet{}, eris.Wrap(err, "failed to read geometry column")
			}
		}
		set.rows += n
	}

	return set, nil
}

func readChunk(chunk parquet.ColumnChunk, fn func(parquet.Value)) error {
	pages := chunk.Pages()
	defer pages.Close()

	buf := make([]parquet.Value, 1024)
	for {
		page, err := pages.ReadPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		values := page.Values()
		for {
			n, err := values.ReadValues(buf)
			for _, v := range buf[:n] {
				fn(v)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
		}
	}
}

// decimalScale returns the scale of a DECIMAL column, -1 otherwise.
func decimalScale(leaf parquet.LeafColumn) int {
	lt := leaf.Node.Type().LogicalType()
	if lt == nil || lt.Decimal == nil {
		return -1
	}
	return int(lt.Decimal.Scale)
}

func parquetCell(v parquet.Value, scale int) string {
	if v.IsNull() {
		return "NaN"
	}

	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		if scale >= 0 {
			return scaled(big.NewInt(int64(v.Int32())), scale)
		}
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		if scale >= 0 {
			return scaled(big.NewInt(v.Int64()), scale)
		}
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if scale >= 0 {
			return scaled(twosComplement(v.ByteArray()), scale)
		}
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func twosComplement(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}

func scaled(unscaled *big.Int, scale int) string {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	return new(big.Rat).SetFrac(unscaled, denom).FloatString(scale)
}
