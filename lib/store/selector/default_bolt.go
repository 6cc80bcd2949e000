//go:build !kvshim_sqlite

package selector

import "github.com/ValentinKolb/kvshim/lib/db"

// DefaultImplementation is the engine used when none is configured.
// Build with -tags kvshim_sqlite to default to the sqlite engine instead.
const DefaultImplementation = db.ImplBolt
