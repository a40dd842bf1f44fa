package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestGormBatchFindLibrary(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	store := NewStore(db)

	sqlMock.ExpectBegin()
	batch, err := store.Begin(context.Background())
	require.NoError(t, err)

	t.Run("found by email", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "email", "phone"}).
			AddRow(1, "Central City Library", "central@example.org", "+5551234567")
		sqlMock.ExpectQuery("SELECT \\* FROM `libraries` WHERE email = .+ ORDER BY `libraries`.`id` LIMIT .+").
			WillReturnRows(rows)

		lib, err := batch.FindLibraryByEmail("central@example.org")
		require.NoError(t, err)
		require.NotNil(t, lib)
		assert.Equal(t, uint(1), lib.ID)
		assert.Equal(t, "Central City Library", lib.Name)
	})

	t.Run("not found is nil, not an error", func(t *testing.T) {
		sqlMock.ExpectQuery("SELECT \\* FROM `libraries` WHERE name = .+ ORDER BY `libraries`.`id` LIMIT .+").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		lib, err := batch.FindLibraryByName("Nowhere")
		require.NoError(t, err)
		assert.Nil(t, lib)
	})

	sqlMock.ExpectRollback()
	require.NoError(t, batch.Rollback())
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestGormBatchFindAuthorBirthDate(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	store := NewStore(db)

	sqlMock.ExpectBegin()
	batch, err := store.Begin(context.Background())
	require.NoError(t, err)

	t.Run("nil birth date matches IS NULL", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "normalized_name", "birth_date"}).
			AddRow(7, "Stephen King", "Stephen King", nil)
		sqlMock.ExpectQuery("SELECT \\* FROM `authors` WHERE normalized_name = .+ AND birth_date IS NULL ORDER BY `authors`.`id` LIMIT .+").
			WillReturnRows(rows)

		author, err := batch.FindAuthor("Stephen King", nil)
		require.NoError(t, err)
		require.NotNil(t, author)
		assert.Equal(t, uint(7), author.ID)
		assert.Nil(t, author.BirthDate)
	})

	t.Run("concrete birth date matches equality", func(t *testing.T) {
		birth := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "name", "normalized_name", "birth_date"}).
			AddRow(8, "Jane Doe", "Jane Doe", birth)
		sqlMock.ExpectQuery("SELECT \\* FROM `authors` WHERE normalized_name = .+ AND birth_date = .+ ORDER BY `authors`.`id` LIMIT .+").
			WillReturnRows(rows)

		author, err := batch.FindAuthor("Jane Doe", &birth)
		require.NoError(t, err)
		require.NotNil(t, author)
		require.NotNil(t, author.BirthDate)
		assert.True(t, author.BirthDate.Equal(birth))
	})

	sqlMock.ExpectRollback()
	require.NoError(t, batch.Rollback())
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestGormBatchFindMemberNilPhone(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	store := NewStore(db)

	sqlMock.ExpectBegin()
	batch, err := store.Begin(context.Background())
	require.NoError(t, err)

	sqlMock.ExpectQuery("SELECT \\* FROM `members` WHERE name = .+ AND phone IS NULL ORDER BY `members`.`id` LIMIT .+").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	member, err := batch.FindMemberByNameAndPhone("Ada Lovelace", nil)
	require.NoError(t, err)
	assert.Nil(t, member)

	sqlMock.ExpectRollback()
	require.NoError(t, batch.Rollback())
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestGormBatchCommit(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	store := NewStore(db)

	sqlMock.ExpectBegin()
	batch, err := store.Begin(context.Background())
	require.NoError(t, err)

	sqlMock.ExpectCommit()
	require.NoError(t, batch.Commit())
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
