package store

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

func sampleRun() Run {
	jan := types.NewMonth(2024, time.January)
	return Run{
		ID:          "7f1c2a9e-0d7b-4a53-9b7e-0f3c6a1d2e4f",
		GeneratedAt: time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC),
		TargetField: "pago ate o mes",
		Horizon:     1,
		Status:      "ok",
		FilesRead:   2,
		Scopes: []Scope{{
			Name: GlobalScope,
			History: types.MonthlySeries{
				{Month: jan, Value: 100.004},
				{Month: jan.AddMonths(1), Value: 200},
			},
			Forecast: []types.ForecastPoint{{Month: jan.AddMonths(2), Value: 300}},
		}},
	}
}

func TestSaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run := sampleRun()
	jan := types.NewMonth(2024, time.January)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO forecast_runs").
		WithArgs(run.ID, run.GeneratedAt, "pago ate o mes", 1, "ok", 2, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO forecast_points").
		WithArgs(run.ID, GlobalScope, jan.Time(), KindHistory, 100.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO forecast_points").
		WithArgs(run.ID, GlobalScope, jan.AddMonths(1).Time(), KindHistory, 200.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO forecast_points").
		WithArgs(run.ID, GlobalScope, jan.AddMonths(2).Time(), KindForecast, 300.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, New(mock, nil).SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run := sampleRun()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO forecast_runs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO forecast_points").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = New(mock, nil).SaveRun(context.Background(), run)
	require.Error(t, err)
	assert.ErrorContains(t, err, "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunBeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err = New(mock, nil).SaveRun(context.Background(), sampleRun())
	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := fs.ReadFile(migrations, "migrations/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "forecast_points")
}
