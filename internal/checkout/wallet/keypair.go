package wallet

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// feeReserve is kept back for the transaction fee when checking the balance.
const feeReserve = 5_000

type rpcClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Keypair is a wallet backed by a solana-keygen JSON keypair file.
type Keypair struct {
	path string
	rpc  rpcClient

	mu  sync.Mutex
	key *solana.PrivateKey
}

// NewKeypair creates a wallet reading its key from path and sending through client.
func NewKeypair(path string, client rpcClient) *Keypair {
	return &Keypair{
		path: path,
		rpc:  client,
	}
}

// NewKeypairFromEndpoint creates a wallet talking to the RPC node at endpoint.
func NewKeypairFromEndpoint(path, endpoint string) *Keypair {
	return NewKeypair(path, rpc.New(endpoint))
}

func (k *Keypair) Detect(context.Context) bool {
	info, err := os.Stat(k.path)

	return err == nil && !info.IsDir()
}

func (k *Keypair) Connect(context.Context) (string, error) {
	key, err := k.load()
	if err != nil {
		return "", err
	}

	return key.PublicKey().String(), nil
}

func (k *Keypair) load() (solana.PrivateKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		return *k.key, nil
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(k.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read keypair %s: %v", ErrUnavailable, k.path, err)
	}
	k.key = &key

	return key, nil
}

func (k *Keypair) SignAndSend(ctx context.Context, to string, lamports uint64) (string, error) {
	key, err := k.load()
	if err != nil {
		return "", err
	}
	from := key.PublicKey()

	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("%w: invalid recipient %q: %v", ErrRejected, to, err)
	}

	balance, err := k.rpc.GetBalance(ctx, from, rpc.CommitmentConfirmed)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get balance: %v", ErrUnavailable, err)
	}
	if balance.Value < lamports+feeReserve {
		return "", fmt.Errorf("%w: balance %d lamports is below %d", ErrRejected, balance.Value, lamports+feeReserve)
	}

	recent, err := k.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get blockhash: %v", ErrUnavailable, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from, recipient).Build()},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(from) {
			return &key
		}

		return nil
	}); err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := k.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRejected, err)
	}

	return sig.String(), nil
}
