package imoveis

import (
	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/rotisserie/eris"
)

var (
	// ErrSourceUnavailable covers a missing file, a transport failure, a
	// non-success status and an unreadable snapshot.
	ErrSourceUnavailable = eris.New("snapshot source unavailable")
	// ErrSchemaMismatch means a column of the minimal schema is absent.
	ErrSchemaMismatch = eris.New("snapshot schema mismatch")
	// ErrUnknownColumn is returned for requested raw columns outside the rename table.
	ErrUnknownColumn = types.ErrUnknownColumn
)

// IsUnavailable reports whether err left the caller with an empty table.
func IsUnavailable(err error) bool {
	return eris.Is(err, ErrSourceUnavailable) || eris.Is(err, ErrSchemaMismatch)
}
