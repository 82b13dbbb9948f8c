package imoveis

import (
	"time"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
)

// Table is a loaded canonical table. It is never mutated after Load returns;
// Frame hands out copies.
type Table struct {
	id       uuid.UUID
	source   string
	loadedAt time.Time
	df       dataframe.DataFrame
}

func (t Table) ID() uuid.UUID          { return t.id }
func (t Table) Source() string         { return t.source }
func (t Table) LoadedAt() time.Time    { return t.loadedAt }
func (t Table) Nrow() int              { return t.df.Nrow() }
func (t Table) Empty() bool            { return t.df.Nrow() == 0 }
func (t Table) Names() []string        { return t.df.Names() }
func (t Table) Has(column string) bool { return utils.ContainsString(t.df.Names(), column) }

// Frame returns a copy of the underlying data frame.
func (t Table) Frame() dataframe.DataFrame {
	return t.df.Copy()
}

// NewTable wraps an already canonical frame. It is meant for callers that
// build tables themselves, such as tests of downstream packages.
func NewTable(source string, df dataframe.DataFrame) Table {
	return Table{id: uuid.New(), source: source, loadedAt: time.Now(), df: df.Copy()}
}
