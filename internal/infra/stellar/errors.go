package stellar

import (
	"net/http"

	"github.com/stellar/go/clients/horizonclient"

	"github.com/aqslabs/forwarder/internal/core/domain"
)

// classify maps a Horizon submission error onto the closed failure taxonomy
// the dispatcher operates on. Anything unrecognized is unclassified and
// therefore terminal.
func classify(err error) domain.SubmissionResult {
	herr := horizonclient.GetError(err)
	if herr == nil {
		return domain.SubmissionResult{
			Code:       domain.FailureUnclassified,
			Diagnostic: err.Error(),
		}
	}

	res := domain.SubmissionResult{
		Code:       domain.FailureUnclassified,
		Diagnostic: err.Error(),
	}
	if herr.Problem.Detail != "" {
		res.Diagnostic = herr.Problem.Detail
	}

	if herr.Problem.Status == http.StatusGatewayTimeout {
		res.Code = domain.FailureTimeout
		return res
	}

	txCode, opCodes := resultCodes(herr)
	switch txCode {
	case "tx_bad_seq":
		res.Code = domain.FailureBadSequence
	case "tx_too_late":
		res.Code = domain.FailureTooLate
	case "tx_insufficient_fee":
		res.Code = domain.FailureInsufficientFee
	case "tx_failed":
		if len(opCodes) > 0 && opCodes[0] == "op_underfunded" {
			res.Code = domain.FailureUnderfunded
		}
	}
	return res
}

// resultCodes extracts the transaction and operation result codes from the
// problem's extras, tolerating their absence.
func resultCodes(herr *horizonclient.Error) (string, []string) {
	codes, err := herr.ResultCodes()
	if err != nil || codes == nil {
		return "", nil
	}
	return codes.TransactionCode, codes.OperationCodes
}
