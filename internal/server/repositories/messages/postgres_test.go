package messages

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Text(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+messages\s*\(conversation_id,\s*sender_id,\s*content,\s*image_key,\s*type\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at\s*$`

	content := "hi"
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("m-1", time.Now())
	mock.ExpectQuery(q).
		WithArgs("c-1", "u-1", &content, nil, string(models.MessageTypeText)).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &models.Message{
		ConversationID: "c-1",
		SenderID:       "u-1",
		Content:        &content,
		Type:           models.MessageTypeText,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "m-1" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+messages`

	mock.ExpectQuery(q).
		WillReturnError(errors.New("db down"))

	content := "hi"
	_, err := repo.Create(context.Background(), &models.Message{
		ConversationID: "c-1",
		SenderID:       "u-1",
		Content:        &content,
		Type:           models.MessageTypeText,
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*conversation_id,\s*sender_id,\s*content,\s*image_key,\s*type,\s*created_at\s+FROM\s+messages\s+WHERE\s+id\s*=\s*\$1\s*$`

	key := "conversations/c-1/pic"
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "sender_id", "content", "image_key", "type", "created_at"}).
		AddRow("m-1", "c-1", "u-1", nil, &key, string(models.MessageTypeImage), time.Now())
	mock.ExpectQuery(q).
		WithArgs("m-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ImageKey == nil || *got.ImageKey != key || got.Type != models.MessageTypeImage {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*conversation_id,\s*sender_id,\s*content,\s*image_key,\s*type,\s*created_at\s+FROM\s+messages`

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListByConversation_AttachesSender(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+m\.id,.*FROM\s+messages\s+m\s+JOIN\s+profiles\s+p\s+ON\s+p\.user_id\s*=\s*m\.sender_id\s+WHERE\s+m\.conversation_id\s*=\s*\$1\s+ORDER\s+BY\s+m\.created_at\s+LIMIT\s+\$2\s*$`

	now := time.Now()
	content := "hi"
	cols := []string{
		"id", "conversation_id", "sender_id", "content", "image_key", "type", "created_at",
		"p_id", "p_user_id", "p_username", "p_display_name", "p_avatar_key", "p_bio", "p_last_seen", "p_created_at", "p_updated_at",
	}
	rows := sqlmock.NewRows(cols).
		AddRow("m-1", "c-1", "u-1", &content, nil, string(models.MessageTypeText), now,
			"p-1", "u-1", "alice", "Alice", nil, "", &now, now, now)
	mock.ExpectQuery(q).
		WithArgs("c-1", 50).
		WillReturnRows(rows)

	got, err := repo.ListByConversation(context.Background(), "c-1", 50)
	if err != nil {
		t.Fatalf("ListByConversation error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected messages: %+v", got)
	}
	msg := got[0]
	if msg.Content == nil || *msg.Content != "hi" {
		t.Fatalf("unexpected content: %+v", msg)
	}
	if msg.Sender == nil || msg.Sender.DisplayName != "Alice" || msg.Sender.UserID != "u-1" {
		t.Fatalf("sender profile not attached: %+v", msg.Sender)
	}
}

func TestListByConversation_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+m\.id,`

	mock.ExpectQuery(q).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListByConversation(context.Background(), "c-1", 50)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
