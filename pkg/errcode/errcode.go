package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Input errors
	InputNotFoundError
	InputNoFilesError
	InputReadError
	InputDecodeError

	// Transform errors
	MalformedRecordsError
	ReconcileInvariantError

	// Sink errors
	SinkUnknownFormatError
	SinkOpenError
	SinkWriteError
	SinkSwapError
	SinkCloseError

	// Database errors
	DBConnectionError
	DBTableCheckError
	DBEmptyDatabaseError
	DBNotConnectedError
	DBTableExistsCheckError
	DBQueryTablesError
	DBScanTableError
	DBDropTableError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaMigrateError

	// Optimizer errors
	OptimizerIndexError
	OptimizerVacuumError

	// Pipeline errors
	PipelineCancelledError
)
