package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ethflow/rpc-gateway/internal/models"
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create events table
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		level TEXT,
		code TEXT,
		msg TEXT,
		meta TEXT
	)`); err != nil {
		return nil, err
	}

	// Create requests table with one row per relay attempt
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS requests(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		req_id TEXT,
		client_id TEXT,
		network TEXT,
		provider_instance TEXT,
		address TEXT,
		backup INTEGER,
		payload TEXT,
		response TEXT,
		status TEXT,
		code INTEGER,
		response_time REAL,
		input_error TEXT,
		error TEXT,
		timeout INTEGER,
		result_valid INTEGER,
		compare_result TEXT
	)`); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) Event(level, code, msg string, meta map[string]interface{}) {
	m := ""
	if meta != nil {
		b, _ := json.Marshal(meta)
		m = string(b)
	}
	_, _ = db.Exec(`INSERT INTO events(ts,level,code,msg,meta) VALUES(?,?,?,?,?)`,
		float64(time.Now().UnixNano())/1e9, level, code, msg, m)
}

func (db *DB) Req(rec *models.RequestRecord) error {
	_, err := db.Exec(`INSERT INTO requests(
		ts, req_id, client_id, network, provider_instance, address, backup, payload, response, status, code, response_time, input_error, error, timeout, result_valid, compare_result)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		float64(rec.Date.UnixNano())/1e9, rec.ReqID, rec.ClientID, rec.Network, rec.ProviderInstance,
		rec.Address, boolToInt(rec.Backup), rec.Payload, rec.Response, rec.Status, rec.Code,
		rec.ResponseTime, rec.InputError, rec.Error, boolToInt(rec.Timeout), boolToInt(rec.ResultValid),
		string(rec.CompareResult))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
