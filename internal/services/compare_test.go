package services

import (
	"testing"

	"github.com/ethflow/rpc-gateway/internal/models"
)

func rec(valid bool, response string) *models.RequestRecord {
	return &models.RequestRecord{ResultValid: valid, Response: response}
}

func TestClassifyComparison(t *testing.T) {
	const okResult = `{"jsonrpc":"2.0","id":1,"result":"0x1"}`
	const otherResult = `{"jsonrpc":"2.0","id":1,"result":"0x2"}`
	const rpcError = `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`

	cases := []struct {
		name    string
		primary *models.RequestRecord
		backup  *models.RequestRecord
		want    models.CompareResult
	}{
		{"both failed", rec(false, ""), rec(false, ""), models.CompareBothFailed},
		{"backup succeeded", rec(false, ""), rec(true, okResult), models.CompareBackupSucceeded},
		{"backup failed", rec(true, okResult), rec(false, ""), models.CompareBackupFailed},
		{"both returned error", rec(true, rpcError), rec(true, rpcError), models.CompareBothReturnedError},
		{"backup returned error", rec(true, okResult), rec(true, rpcError), models.CompareBackupReturnedError},
		{"backup returned result", rec(true, rpcError), rec(true, okResult), models.CompareBackupReturnedResult},
		{"same result", rec(true, okResult), rec(true, okResult), models.CompareBothSucceededSameResult},
		{
			"same result different formatting",
			rec(true, okResult),
			rec(true, "{\n  \"jsonrpc\": \"2.0\",\n  \"id\": 1,\n  \"result\": \"0x1\"\n}"),
			models.CompareBothSucceededSameResult,
		},
		{"different result", rec(true, okResult), rec(true, otherResult), models.CompareBothSucceededDifferentResult},
		{"null error member ignored", rec(true, `{"id":1,"result":"0x1","error":null}`), rec(true, okResult), models.CompareBothSucceededSameResult},
		{
			"batch same",
			rec(true, `[`+okResult+`]`),
			rec(true, `[`+okResult+`]`),
			models.CompareBothSucceededSameResult,
		},
		{
			"batch vs single",
			rec(true, `[`+okResult+`]`),
			rec(true, okResult),
			models.CompareBothSucceededDifferentResult,
		},
		// ResultValid stamped but body rotted between relay and comparison:
		// the comparison reports its own failure rather than panicking.
		{"comparison failed", rec(true, "{"), rec(true, okResult), models.CompareBothSucceededComparisonFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyComparison(tc.primary, tc.backup); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
