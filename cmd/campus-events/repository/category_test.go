package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepo_ListCategories_ActiveOnly(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCategoryRepo(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE is_active = \$1 ORDER BY sort_order ASC, name ASC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_category_id", "is_active", "sort_order"}).
			AddRow("cat-1", "Academic", nil, true, 0).
			AddRow("cat-2", "Lectures", "cat-1", true, 1))

	categories, err := repo.ListCategories(context.Background(), true)

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Nil(t, categories[0].ParentCategoryID)
	require.NotNil(t, categories[1].ParentCategoryID)
	assert.Equal(t, "cat-1", *categories[1].ParentCategoryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_ReparentChildren_ToRoot(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCategoryRepo(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "categories" SET "parent_category_id"=\$1,"update_date"=\$2 WHERE parent_category_id = \$3`).
		WithArgs(nil, sqlmock.AnyArg(), "cat-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.ReparentChildren(context.Background(), "cat-1", nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_DeleteCategory_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCategoryRepo(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "categories" WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.DeleteCategory(context.Background(), "missing")

	assert.True(t, model.IsKind(err, model.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
