package participants

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/parley/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestAdd_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+conversation_participants\s*\(conversation_id,\s*user_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id,\s*created_at\s*$`

	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("cp-1", time.Now())
	mock.ExpectQuery(q).
		WithArgs("c-1", "u-1").
		WillReturnRows(rows)

	got, err := repo.Add(context.Background(), "c-1", "u-1")
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if got.ID != "cp-1" || got.ConversationID != "c-1" || got.UserID != "u-1" {
		t.Fatalf("unexpected participant: %+v", got)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+conversation_participants`

	mock.ExpectQuery(q).
		WithArgs("c-1", "u-1").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Add(context.Background(), "c-1", "u-1")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestAdd_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+conversation_participants`

	mock.ExpectQuery(q).
		WillReturnError(errors.New("db down"))

	_, err := repo.Add(context.Background(), "c-1", "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByConversation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*conversation_id,\s*user_id,\s*created_at\s+FROM\s+conversation_participants\s+WHERE\s+conversation_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "user_id", "created_at"}).
		AddRow("cp-1", "c-1", "u-1", now).
		AddRow("cp-2", "c-1", "u-2", now)
	mock.ExpectQuery(q).
		WithArgs("c-1").
		WillReturnRows(rows)

	got, err := repo.ListByConversation(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("ListByConversation error: %v", err)
	}
	if len(got) != 2 || got[1].UserID != "u-2" {
		t.Fatalf("unexpected participants: %+v", got)
	}
}

func TestListUserIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+user_id\s+FROM\s+conversation_participants\s+WHERE\s+conversation_id\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows([]string{"user_id"}).AddRow("u-1").AddRow("u-2")
	mock.ExpectQuery(q).
		WithArgs("c-1").
		WillReturnRows(rows)

	got, err := repo.ListUserIDs(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("ListUserIDs error: %v", err)
	}
	if len(got) != 2 || got[0] != "u-1" {
		t.Fatalf("unexpected ids: %+v", got)
	}
}

func TestIsParticipant(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+is_conversation_participant\(\$1,\s*\$2\)\s*$`

	mock.ExpectQuery(q).
		WithArgs("c-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"is_conversation_participant"}).AddRow(true))

	ok, err := repo.IsParticipant(context.Background(), "c-1", "u-1")
	if err != nil {
		t.Fatalf("IsParticipant error: %v", err)
	}
	if !ok {
		t.Fatal("expected membership")
	}

	mock.ExpectQuery(q).
		WithArgs("c-1", "u-z").
		WillReturnRows(sqlmock.NewRows([]string{"is_conversation_participant"}).AddRow(false))

	ok, err = repo.IsParticipant(context.Background(), "c-1", "u-z")
	if err != nil {
		t.Fatalf("IsParticipant error: %v", err)
	}
	if ok {
		t.Fatal("expected no membership")
	}
}

func TestIsParticipant_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+is_conversation_participant`

	mock.ExpectQuery(q).
		WillReturnError(errors.New("db down"))

	_, err := repo.IsParticipant(context.Background(), "c-1", "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
