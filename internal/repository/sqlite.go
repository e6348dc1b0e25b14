package repository

import (
	"context"
	"time"

	"github.com/ethflow/rpc-gateway/internal/models"
	"github.com/ethflow/rpc-gateway/internal/store"
)

// SQLiteRepository implements Repository using the sqlite store
type SQLiteRepository struct {
	db          *store.DB
	requestRepo RequestRepositoryInterface
	eventRepo   EventRepositoryInterface
}

func NewSQLiteRepository(db *store.DB) Repository {
	return &SQLiteRepository{
		db:          db,
		requestRepo: &SQLiteRequestRepository{db: db},
		eventRepo:   &SQLiteEventRepository{db: db},
	}
}

func (r *SQLiteRepository) Request() RequestRepositoryInterface {
	return r.requestRepo
}

func (r *SQLiteRepository) Event() EventRepositoryInterface {
	return r.eventRepo
}

// SQLiteRequestRepository handles the durable relay-attempt log
type SQLiteRequestRepository struct {
	db *store.DB
}

func (r *SQLiteRequestRepository) LogRequest(ctx context.Context, rec *models.RequestRecord) error {
	return r.db.Req(rec)
}

func (r *SQLiteRequestRepository) GetRequestLogs(ctx context.Context, limit int) ([]*models.RequestRecord, error) {
	rows, err := r.db.Query(`SELECT ts,req_id,client_id,network,provider_instance,address,backup,payload,response,status,code,response_time,input_error,error,timeout,result_valid,compare_result FROM requests ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.RequestRecord
	for rows.Next() {
		var rec models.RequestRecord
		var tsFloat float64
		var backup, timeout, resultValid int
		var compareResult string

		if err := rows.Scan(
			&tsFloat, &rec.ReqID, &rec.ClientID, &rec.Network, &rec.ProviderInstance,
			&rec.Address, &backup, &rec.Payload, &rec.Response, &rec.Status, &rec.Code,
			&rec.ResponseTime, &rec.InputError, &rec.Error, &timeout, &resultValid,
			&compareResult,
		); err == nil {
			rec.Date = time.Unix(0, int64(tsFloat*1e9)).UTC()
			rec.Backup = backup != 0
			rec.Timeout = timeout != 0
			rec.ResultValid = resultValid != 0
			rec.CompareResult = models.CompareResult(compareResult)
			records = append(records, &rec)
		}
	}

	return records, nil
}

// SQLiteEventRepository handles operational event logging
type SQLiteEventRepository struct {
	db *store.DB
}

func (r *SQLiteEventRepository) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	r.db.Event(level, code, msg, meta)
	return nil
}
