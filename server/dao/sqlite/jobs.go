package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dreamlang/dreamc/server/dao"
	"github.com/google/uuid"
)

type CompileJobsDB struct {
	db *sql.DB
}

func (repo *CompileJobsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS compile_jobs (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		source TEXT NOT NULL,
		stage TEXT NOT NULL,
		diagnostics TEXT NOT NULL,
		ir TEXT NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *CompileJobsDB) Create(ctx context.Context, job dao.CompileJob) (dao.CompileJob, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.CompileJob{}, fmt.Errorf("could not generate ID: %w", err)
	}

	diagBytes, err := json.Marshal(job.Diagnostics)
	if err != nil {
		return dao.CompileJob{}, fmt.Errorf("could not encode diagnostics: %w", err)
	}

	_, err = repo.db.ExecContext(ctx, `INSERT INTO compile_jobs (id, owner_id, source, stage, diagnostics, ir, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(newUUID), convertToDB_UUID(job.OwnerID), job.Source, convertToDB_Stage(job.Stage),
		string(diagBytes), job.IR, convertToDB_Time(time.Now()),
	)
	if err != nil {
		return dao.CompileJob{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *CompileJobsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.CompileJob, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, owner_id, source, stage, diagnostics, ir, created FROM compile_jobs WHERE id = ?;`, convertToDB_UUID(id))
	return scanCompileJob(row.Scan)
}

func (repo *CompileJobsDB) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.CompileJob, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, owner_id, source, stage, diagnostics, ir, created FROM compile_jobs WHERE owner_id = ? ORDER BY created;`, convertToDB_UUID(ownerID))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.CompileJob
	for rows.Next() {
		job, err := scanCompileJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		all = append(all, job)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	return all, nil
}

func (repo *CompileJobsDB) Update(ctx context.Context, id uuid.UUID, job dao.CompileJob) (dao.CompileJob, error) {
	diagBytes, err := json.Marshal(job.Diagnostics)
	if err != nil {
		return dao.CompileJob{}, fmt.Errorf("could not encode diagnostics: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, `UPDATE compile_jobs SET source=?, stage=?, diagnostics=?, ir=? WHERE id=?;`,
		job.Source, convertToDB_Stage(job.Stage), string(diagBytes), job.IR, convertToDB_UUID(id),
	)
	if err != nil {
		return dao.CompileJob{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.CompileJob{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.CompileJob{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, id)
}

func (repo *CompileJobsDB) Delete(ctx context.Context, id uuid.UUID) (dao.CompileJob, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM compile_jobs WHERE id = ?`, convertToDB_UUID(id))
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *CompileJobsDB) Close() error {
	return nil
}

func scanCompileJob(scan func(...interface{}) error) (dao.CompileJob, error) {
	var job dao.CompileJob
	var id, ownerID, stage, diagnostics string
	var created int64

	if err := scan(&id, &ownerID, &job.Source, &stage, &diagnostics, &job.IR, &created); err != nil {
		return job, wrapDBError(err)
	}
	if err := convertFromDB_UUID(id, &job.ID); err != nil {
		return job, err
	}
	if err := convertFromDB_UUID(ownerID, &job.OwnerID); err != nil {
		return job, err
	}
	if err := convertFromDB_Stage(stage, &job.Stage); err != nil {
		return job, err
	}
	if err := convertFromDB_Time(created, &job.Created); err != nil {
		return job, err
	}
	if err := json.Unmarshal([]byte(diagnostics), &job.Diagnostics); err != nil {
		return job, fmt.Errorf("%w: %w", dao.ErrDecodingFailure, err)
	}
	return job, nil
}
