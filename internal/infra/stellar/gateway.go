// Package stellar implements the ledger gateway against Horizon using the
// Stellar SDK: account loading, fee stats, transaction build/sign/submit
// and SSE payment streaming.
package stellar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"

	"github.com/aqslabs/forwarder/internal/core/amount"
	"github.com/aqslabs/forwarder/internal/core/domain"
	"github.com/aqslabs/forwarder/internal/core/ledger"
)

// Config holds gateway settings.
type Config struct {
	// HorizonURL is the Horizon instance to talk to.
	HorizonURL string

	// NetworkPassphrase selects the network; defaults to the public network.
	NetworkPassphrase string

	// Timeout bounds individual HTTP requests (not the stream).
	Timeout time.Duration

	// SubmitTimeout becomes the transaction's timebounds window.
	SubmitTimeout time.Duration
}

// Gateway is the Horizon-backed ledger.Gateway.
type Gateway struct {
	client     *horizonclient.Client
	kp         *keypair.Full
	passphrase string
	submitSecs int64
}

// NewGateway parses the distributor secret and builds the Horizon client.
func NewGateway(cfg Config, distributorSecret string) (*Gateway, error) {
	kp, err := keypair.ParseFull(distributorSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid distributor secret key: %w", err)
	}

	if cfg.HorizonURL == "" {
		cfg.HorizonURL = "https://horizon.stellar.org"
	}
	if cfg.NetworkPassphrase == "" {
		cfg.NetworkPassphrase = network.PublicNetworkPassphrase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 60 * time.Second
	}

	return &Gateway{
		client: &horizonclient.Client{
			HorizonURL: cfg.HorizonURL,
			HTTP:       &http.Client{Timeout: cfg.Timeout},
		},
		kp:         kp,
		passphrase: cfg.NetworkPassphrase,
		submitSecs: int64(cfg.SubmitTimeout.Seconds()),
	}, nil
}

// Address returns the distributor's public address.
func (g *Gateway) Address() string {
	return g.kp.Address()
}

// accountState wraps the Horizon account record behind ledger.AccountState.
type accountState struct {
	account hProtocol.Account
}

func (a *accountState) AccountID() string {
	return a.account.AccountID
}

// LoadAccount fetches the account's current state, including the sequence
// number the next transaction must carry.
func (g *Gateway) LoadAccount(ctx context.Context, address string) (ledger.AccountState, error) {
	acct, err := g.client.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	return &accountState{account: acct}, nil
}

// BaseFee returns the last ledger's base fee in stroops.
func (g *Gateway) BaseFee(ctx context.Context) (int64, error) {
	stats, err := g.client.FeeStats()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch fee stats: %w", err)
	}
	return int64(stats.LastLedgerBaseFee), nil
}

// Submit builds, signs and submits one native payment. Submission failures
// come back classified inside the result; the error return means the
// attempt never reached the network.
func (g *Gateway) Submit(
	ctx context.Context,
	account ledger.AccountState,
	destination string,
	amountStroops int64,
	feePerOp int64,
) (domain.SubmissionResult, error) {
	st, ok := account.(*accountState)
	if !ok {
		return domain.SubmissionResult{}, fmt.Errorf("unexpected account state %T", account)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &st.account,
		IncrementSequenceNum: true,
		BaseFee:              feePerOp,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(g.submitSecs),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: destination,
				Amount:      amount.FormatStroops(amountStroops),
				Asset:       txnbuild.NativeAsset{},
			},
		},
	})
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	tx, err = tx.Sign(g.passphrase, g.kp)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	resp, err := g.client.SubmitTransaction(tx)
	if err != nil {
		return classify(err), nil
	}
	if !resp.Successful {
		return domain.SubmissionResult{
			Code:       domain.FailureUnclassified,
			Diagnostic: fmt.Sprintf("transaction not successful: %s", resp.ResultXdr),
		}, nil
	}

	return domain.SubmissionResult{
		Successful: true,
		TxHash:     resp.Hash,
	}, nil
}
