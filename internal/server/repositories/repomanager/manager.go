// Package repomanager ties the per-table repositories together behind a
// single factory so services can run any of them against either the pool
// or an open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/parley/internal/dbx"
	"github.com/dmitrijs2005/parley/internal/server/repositories/conversations"
	"github.com/dmitrijs2005/parley/internal/server/repositories/messages"
	"github.com/dmitrijs2005/parley/internal/server/repositories/participants"
	"github.com/dmitrijs2005/parley/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/parley/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/parley/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Conversations(db dbx.DBTX) conversations.Repository
	Participants(db dbx.DBTX) participants.Repository
	Messages(db dbx.DBTX) messages.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
