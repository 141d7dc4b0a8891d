package sqlite

import (
	"time"

	"log/slog"

	"github.com/presspool/presspool/internal/db"
	"github.com/presspool/presspool/pkg/repository"
)

// SQLiteRepo implements the repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.SpecializationRepo = (*SQLiteRepo)(nil)
var _ repository.DirectoryRepo = (*SQLiteRepo)(nil)
var _ repository.RequestRepo = (*SQLiteRepo)(nil)
var _ repository.InviteRepo = (*SQLiteRepo)(nil)
var _ repository.JobRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().Unix()
}
