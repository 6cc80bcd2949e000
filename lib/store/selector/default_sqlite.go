//go:build kvshim_sqlite

package selector

import "github.com/ValentinKolb/kvshim/lib/db"

// DefaultImplementation is the engine used when none is configured.
// Selected by building with -tags kvshim_sqlite.
const DefaultImplementation = db.ImplSQLite
