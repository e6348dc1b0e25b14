package services

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/ethflow/rpc-gateway/internal/models"
)

// CompareStrategy is the pluggable primary-vs-backup reconciliation policy.
// The default gateway runs without one and returns on the first valid result;
// BackupCompare preserves the verification behaviour of earlier deployments.
type CompareStrategy interface {
	// Compare may issue a verification call and returns its record, with
	// CompareResult filled in, or nil when no verification ran. The record is
	// persisted by the gateway; it never alters the response to the caller.
	Compare(ctx context.Context, network string, primary *models.RequestRecord, payload []byte) *models.RequestRecord
}

// BackupCompare replays the request against the network's backup endpoint and
// classifies the divergence between the two responses.
type BackupCompare struct {
	relay   Caller
	backups map[string]string
}

func NewBackupCompare(relay Caller, backups map[string]string) *BackupCompare {
	return &BackupCompare{relay: relay, backups: backups}
}

func (s *BackupCompare) Compare(ctx context.Context, network string, primary *models.RequestRecord, payload []byte) *models.RequestRecord {
	address, ok := s.backups[network]
	if !ok {
		return nil
	}
	rec := s.relay.Call(ctx, address, payload)
	rec.CompareResult = ClassifyComparison(primary, rec)
	return rec
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// ClassifyComparison maps a (primary, backup) record pair onto the divergence
// taxonomy. Shape validity gates the first three outcomes; beyond that the
// parsed bodies are inspected for JSON-RPC error/result members. Any failure
// inside the comparison itself is reported as its own outcome rather than
// escaping to the request path.
func ClassifyComparison(primary, backup *models.RequestRecord) (result models.CompareResult) {
	defer func() {
		if recover() != nil {
			result = models.CompareBothSucceededComparisonFailed
		}
	}()

	switch {
	case !primary.ResultValid && !backup.ResultValid:
		return models.CompareBothFailed
	case !primary.ResultValid:
		return models.CompareBackupSucceeded
	case !backup.ResultValid:
		return models.CompareBackupFailed
	}

	var pRaw, bRaw any
	if err := json.Unmarshal([]byte(primary.Response), &pRaw); err != nil {
		return models.CompareBothSucceededComparisonFailed
	}
	if err := json.Unmarshal([]byte(backup.Response), &bRaw); err != nil {
		return models.CompareBothSucceededComparisonFailed
	}

	// Batch responses carry no single error member; classify them on deep
	// equality of the whole array.
	_, pIsArray := pRaw.([]any)
	_, bIsArray := bRaw.([]any)
	if pIsArray || bIsArray {
		if !pIsArray || !bIsArray {
			return models.CompareBothSucceededDifferentResult
		}
		if reflect.DeepEqual(pRaw, bRaw) {
			return models.CompareBothSucceededSameResult
		}
		return models.CompareBothSucceededDifferentResult
	}

	var p, b rpcEnvelope
	if err := json.Unmarshal([]byte(primary.Response), &p); err != nil {
		return models.CompareBothSucceededComparisonFailed
	}
	if err := json.Unmarshal([]byte(backup.Response), &b); err != nil {
		return models.CompareBothSucceededComparisonFailed
	}

	pErr := len(p.Error) > 0 && string(p.Error) != "null"
	bErr := len(b.Error) > 0 && string(b.Error) != "null"
	switch {
	case pErr && bErr:
		return models.CompareBothReturnedError
	case bErr:
		return models.CompareBackupReturnedError
	case pErr:
		return models.CompareBackupReturnedResult
	}

	var pResult, bResult any
	if err := json.Unmarshal(orNull(p.Result), &pResult); err != nil {
		return models.CompareBothSucceededComparisonFailed
	}
	if err := json.Unmarshal(orNull(b.Result), &bResult); err != nil {
		return models.CompareBothSucceededComparisonFailed
	}
	if reflect.DeepEqual(pResult, bResult) {
		return models.CompareBothSucceededSameResult
	}
	return models.CompareBothSucceededDifferentResult
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
