package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/db/migrate"
	"github.com/repo-analysis/repokeep/pkg/db/models"
	"github.com/repo-analysis/repokeep/pkg/store"
	"github.com/repo-analysis/repokeep/pkg/store/database"
)

func setup(t *testing.T) (context.Context, *db.DB, store.Store) {
	t.Helper()
	ctx := config.WithContext(context.TODO(), config.DefaultConfig())
	dbx, err := db.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			t.Error(err)
		}
	})
	if err := migrate.Migrate(ctx, dbx); err != nil {
		t.Fatal(err)
	}
	return ctx, dbx, database.New(ctx, dbx)
}

func TestCreateOperation(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	op := models.Operation{
		ID:           "op-1",
		Action:       "delete",
		Repositories: "a,b",
		Success:      true,
		Message:      "Deletion process completed",
		CreatedAt:    created,
	}
	results := []models.OperationResult{
		{Name: "b", Success: true},
		{Name: "a", Success: false, Error: sql.NullString{String: "not found", Valid: true}},
	}
	is.NoErr(st.CreateOperation(ctx, dbx, op, results))

	got, err := st.GetOperationByID(ctx, dbx, "op-1")
	is.NoErr(err)
	is.Equal(got.Action, "delete")
	is.Equal(got.Message, "Deletion process completed")
	is.True(got.CreatedAt.Equal(created))
	is.True(!got.ArchivePath.Valid)

	rs, err := st.GetOperationResults(ctx, dbx, "op-1")
	is.NoErr(err)
	is.Equal(len(rs), 2)
	is.Equal(rs[0].Name, "b")
	is.Equal(rs[0].Position, 0)
	is.Equal(rs[1].Name, "a")
	is.Equal(rs[1].Error.String, "not found")

	err = st.CreateOperation(ctx, dbx, op, nil)
	is.True(errors.Is(err, db.ErrDuplicateKey))

	_, err = st.GetOperationByID(ctx, dbx, "missing")
	is.True(errors.Is(err, db.ErrRecordNotFound))
}

func TestCreateOperationGeneratesID(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)

	is.NoErr(st.CreateOperation(ctx, dbx, models.Operation{Action: "archive", Message: "m"}, nil))
	ops, err := st.GetOperations(ctx, dbx, 10, time.Time{})
	is.NoErr(err)
	is.Equal(len(ops), 1)
	is.True(ops[0].ID != "")
	is.True(!ops[0].CreatedAt.IsZero())
}

func TestGetOperations(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		is.NoErr(st.CreateOperation(ctx, dbx, models.Operation{
			ID:        id,
			Action:    "archive",
			Message:   id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}, nil))
	}

	ops, err := st.GetOperations(ctx, dbx, 10, time.Time{})
	is.NoErr(err)
	is.Equal(len(ops), 3)
	is.Equal(ops[0].ID, "third")
	is.Equal(ops[2].ID, "first")

	ops, err = st.GetOperations(ctx, dbx, 1, time.Time{})
	is.NoErr(err)
	is.Equal(len(ops), 1)
	is.Equal(ops[0].ID, "third")

	ops, err = st.GetOperations(ctx, dbx, 10, base.Add(time.Hour))
	is.NoErr(err)
	is.Equal(len(ops), 2)

	n, err := st.DeleteOperationsBefore(ctx, dbx, base.Add(90*time.Minute))
	is.NoErr(err)
	is.Equal(n, int64(2))

	ops, err = st.GetOperations(ctx, dbx, 10, time.Time{})
	is.NoErr(err)
	is.Equal(len(ops), 1)
	is.Equal(ops[0].ID, "third")
}

func TestTransaction(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)

	err := dbx.TransactionContext(ctx, func(tx *db.Tx) error {
		if err := st.CreateOperation(ctx, tx, models.Operation{ID: "tx", Action: "delete", Message: "m"}, nil); err != nil {
			return err
		}
		return errors.New("abort")
	})
	is.True(err != nil)

	_, err = st.GetOperationByID(ctx, dbx, "tx")
	is.True(errors.Is(err, db.ErrRecordNotFound))
}
