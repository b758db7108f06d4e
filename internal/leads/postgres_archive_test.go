package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresArchive_Record(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive := newPostgresArchiveWithExec(mock)

	mock.ExpectExec("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "1/2/2026, 9:00:00", OriginCallRequest, "", "612345678", "", "Solicitud de llamada inmediata", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = archive.Record(context.Background(), Record{
		Timestamp: "1/2/2026, 9:00:00",
		Origin:    OriginCallRequest,
		Phone:     "612345678",
		Message:   "Solicitud de llamada inmediata",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresArchive_RecordError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive := newPostgresArchiveWithExec(mock)
	mock.ExpectExec("INSERT INTO leads").WillReturnError(errors.New("conn reset"))

	err = archive.Record(context.Background(), Record{Origin: OriginChat})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestPostgresArchive_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive := newPostgresArchiveWithExec(mock)
	created := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "created_at", "recorded_at", "origin", "name", "phone", "email", "message", "extra"}).
		AddRow("lead-1", created, "16/10/2026, 11:00:00", OriginChat, "Usuario del Chat", "699111222", "", "[USUARIO]: hola", "Captura automática por detección de Teléfono")
	mock.ExpectQuery(`SELECT id, created_at, recorded_at, origin, name, phone, email, message, extra FROM leads WHERE origin = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(OriginChat, 10, 0).
		WillReturnRows(rows)

	got, err := archive.List(context.Background(), ListFilter{Origin: OriginChat, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lead-1", got[0].ID)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.Equal(t, "699111222", got[0].Phone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresArchive_ListWithoutFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive := newPostgresArchiveWithExec(mock)
	mock.ExpectQuery(`FROM leads ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "recorded_at", "origin", "name", "phone", "email", "message", "extra"}))

	got, err := archive.List(context.Background(), ListFilter{Limit: 50, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
