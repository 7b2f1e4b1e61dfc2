package stellar

import (
	"errors"
	"testing"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/support/render/problem"

	"github.com/aqslabs/forwarder/internal/core/domain"
)

func horizonError(status int, txCode string, opCodes []string) error {
	p := problem.P{
		Type:   "https://stellar.org/horizon-errors/transaction_failed",
		Title:  "Transaction Failed",
		Status: status,
		Detail: "The transaction failed when submitted to the stellar network.",
	}
	if txCode != "" {
		codes := map[string]interface{}{"transaction": txCode}
		if opCodes != nil {
			codes["operations"] = opCodes
		}
		p.Extras = map[string]interface{}{"result_codes": codes}
	}
	return &horizonclient.Error{Problem: p}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.FailureCode
	}{
		{
			"gateway timeout",
			horizonError(504, "", nil),
			domain.FailureTimeout,
		},
		{
			"bad sequence",
			horizonError(400, "tx_bad_seq", nil),
			domain.FailureBadSequence,
		},
		{
			"too late",
			horizonError(400, "tx_too_late", nil),
			domain.FailureTooLate,
		},
		{
			"insufficient fee",
			horizonError(400, "tx_insufficient_fee", nil),
			domain.FailureInsufficientFee,
		},
		{
			"underfunded operation",
			horizonError(400, "tx_failed", []string{"op_underfunded"}),
			domain.FailureUnderfunded,
		},
		{
			"other failed operation",
			horizonError(400, "tx_failed", []string{"op_no_destination"}),
			domain.FailureUnclassified,
		},
		{
			"tx_failed without operation codes",
			horizonError(400, "tx_failed", nil),
			domain.FailureUnclassified,
		},
		{
			"unknown transaction code",
			horizonError(400, "tx_bad_auth", nil),
			domain.FailureUnclassified,
		},
		{
			"missing result codes",
			horizonError(400, "", nil),
			domain.FailureUnclassified,
		},
		{
			"plain network error",
			errors.New("dial tcp: connection refused"),
			domain.FailureUnclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classify(tt.err)
			if res.Code != tt.want {
				t.Errorf("classify() code = %q, want %q", res.Code, tt.want)
			}
			if res.Successful {
				t.Error("classified failures must not be marked successful")
			}
			if res.Diagnostic == "" {
				t.Error("diagnostic is empty")
			}
		})
	}
}

func TestClassifyPrefersProblemDetail(t *testing.T) {
	res := classify(horizonError(400, "tx_bad_seq", nil))
	want := "The transaction failed when submitted to the stellar network."
	if res.Diagnostic != want {
		t.Errorf("Diagnostic = %q, want problem detail", res.Diagnostic)
	}
}
