// Package ledger reads transactions from a Solana RPC node.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/models/chaintx"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// finalizedConfirmations is reported for finalized transactions, for which
// the node no longer counts confirmations.
const finalizedConfirmations = 32

// Client is a read-only ledger client.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// MustNewClient connects to payments.chain.rpc_endpoint.
func MustNewClient() *Client {
	endpoint := viper.GetString("payments.chain.rpc_endpoint")
	if endpoint == "" {
		panic("ledger: payments.chain.rpc_endpoint is required")
	}

	return NewClient(rpc.New(endpoint))
}

func NewClient(client *rpc.Client) *Client {
	return &Client{
		rpc:        client,
		commitment: rpc.CommitmentConfirmed,
	}
}

// RPC returns the underlying RPC client.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// GetTransaction fetches the transaction with the given base58 signature
// together with its confirmation count.
func (c *Client) GetTransaction(ctx context.Context, signature string) (chaintx.Transaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return chaintx.Transaction{}, chaintx.ErrInvalidSignature
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && out == nil) {
		return chaintx.Transaction{}, chaintx.ErrNotFound
	}
	if err != nil {
		return chaintx.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}

	tx := chaintx.Transaction{
		Signature: signature,
		Slot:      out.Slot,
	}

	if out.Transaction != nil {
		decoded, err := out.Transaction.GetTransaction()
		if err != nil {
			return chaintx.Transaction{}, fmt.Errorf("failed to decode transaction: %w", err)
		}
		for _, key := range decoded.Message.AccountKeys {
			tx.AccountKeys = append(tx.AccountKeys, key.String())
		}
	}

	if out.Meta != nil {
		tx.Failed = out.Meta.Err != nil
		tx.PreBalances = out.Meta.PreBalances
		tx.PostBalances = out.Meta.PostBalances
		for _, key := range out.Meta.LoadedAddresses.Writable {
			tx.AccountKeys = append(tx.AccountKeys, key.String())
		}
		for _, key := range out.Meta.LoadedAddresses.ReadOnly {
			tx.AccountKeys = append(tx.AccountKeys, key.String())
		}
	}

	tx.Confirmations, err = c.confirmations(ctx, sig)
	if err != nil {
		return chaintx.Transaction{}, err
	}

	return tx, nil
}

func (c *Client) confirmations(ctx context.Context, sig solana.Signature) (uint64, error) {
	statuses, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return 0, fmt.Errorf("failed to get signature status: %w", err)
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return 0, nil
	}

	status := statuses.Value[0]
	if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
		return finalizedConfirmations, nil
	}
	if status.Confirmations != nil {
		return *status.Confirmations, nil
	}

	return 0, nil
}
