// Package repomanager vends repository implementations bound to a database
// handle and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/classroom/internal/dbx"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/users"
)

// RepositoryManager hands out repositories for either a *sql.DB or a
// *sql.Tx, so services can run the same code inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AccessTokens(db dbx.DBTX) accesstokens.Repository
}
