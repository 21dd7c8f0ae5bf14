package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tracklite/tracklite-api/internal/models"
)

// setupMockDB opens a GORM connection over a sqlmock driver so the SQL the
// repository emits can be asserted without a running Postgres.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db, mock
}

func projectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "owner_id", "status", "created_at", "updated_at", "deleted_at"})
}

func TestProjectRepository_FindByIDAndOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = \$1 AND owner_id = \$2`).
		WillReturnRows(projectRows().AddRow(1, "Launch", "", 7, "active", now, now, nil))

	project, err := repo.FindByIDAndOwner(1, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(1), project.ID)
	require.Equal(t, uint64(7), project.OwnerID)
	require.Equal(t, models.ProjectStatusActive, project.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_FindByIDAndOwner_WrongOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = \$1 AND owner_id = \$2`).
		WillReturnRows(projectRows())

	_, err := repo.FindByIDAndOwner(1, 99)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListByOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects" WHERE owner_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE owner_id = \$1 .* ORDER BY projects\.created_at DESC`).
		WillReturnRows(projectRows().
			AddRow(2, "Second", "", 7, "active", now, now, nil).
			AddRow(1, "First", "", 7, "completed", now, now, nil))

	projects, total, err := repo.ListByOwner(ProjectFilter{OwnerID: 7, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, int64(12), total)
	require.Len(t, projects, 2)
	require.Equal(t, "Second", projects[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Delete_RemovesTasksInSameTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "deleted_at"=\$1 WHERE project_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE "projects" SET "deleted_at"=\$1 WHERE "projects"\."id" = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CountTasks(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectQuery(`SELECT project_id, COUNT\(\*\) as count FROM "tasks" WHERE project_id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "count"}).
			AddRow(1, 4).
			AddRow(3, 1))

	counts, err := repo.CountTasks([]uint64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, int64(4), counts[1])
	require.Equal(t, int64(1), counts[3])
	require.NotContains(t, counts, uint64(2))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CountTasks_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	counts, err := repo.CountTasks(nil)
	require.NoError(t, err)
	require.Empty(t, counts)

	require.NoError(t, mock.ExpectationsWereMet())
}
