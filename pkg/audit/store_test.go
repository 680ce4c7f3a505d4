package audit

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStoreWithDB(db)

	event := RunEvent{Operator: "admin", Plan: "roles", Target: "http://cms", Status: "succeeded", Success: true}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityUser,        // facility
			int(SeverityNotice), // severity
			sqlmock.AnyArg(),    // timestamp
			sqlmock.AnyArg(),    // hostname
			"cmsctl",            // appname
			sqlmock.AnyArg(),    // procid
			"run",               // msgid
			sqlmock.AnyArg(),    // sdata (JSON)
			sqlmock.AnyArg(),    // message
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveLoginEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStoreWithDB(db)

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityWarning),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"cmsctl",
			sqlmock.AnyArg(),
			"login",
			sqlmock.AnyArg(),
			"admin@example.com failed to authenticate with http://cms",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(LoginEvent{Email: "admin@example.com", Target: "http://cms"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO messages`).WillReturnError(sql.ErrConnDone)

	err = NewStoreWithDB(db).Save(TokenEvent{Operator: "admin", UserID: "u1"})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{}
	assert.NoError(t, store.Save(LoginEvent{}))
	assert.NoError(t, store.Close())
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv("AUDIT_DATABASE_URL", "")
	t.Setenv("JOURNAL_DATABASE_URL", "postgres://journal")
	assert.Equal(t, "postgres://journal", DatabaseURL())

	t.Setenv("AUDIT_DATABASE_URL", "postgres://audit")
	assert.Equal(t, "postgres://audit", DatabaseURL())
}

func TestNewStoreDisabled(t *testing.T) {
	t.Setenv("AUDIT_DATABASE_URL", "")
	t.Setenv("JOURNAL_DATABASE_URL", "")

	store, err := NewStore()
	require.NoError(t, err)
	assert.Nil(t, store)
}
