package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/models"
)

// Auditability contract surface: store writes a fingerprint, hash and
// exists serve the read path as view calls.
const auditabilityABI = `[
	{"type":"function","name":"store","stateMutability":"nonpayable","inputs":[{"name":"id","type":"string"},{"name":"digest","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"hash","stateMutability":"view","inputs":[{"name":"id","type":"string"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"exists","stateMutability":"view","inputs":[{"name":"id","type":"string"}],"outputs":[{"name":"","type":"bool"}]}
]`

// Cancellation transactions are plain self-transfers: fixed 21000 gas,
// 1 gwei tip, 20 gwei fee cap.
const (
	cancelGasLimit = 21_000
	cancelTip      = 1_000_000_000
	cancelFeeCap   = 20_000_000_000
)

// Ethereum anchors fingerprints in the Auditability contract through a
// JSON-RPC node. The ethclient serializes its own access, so one
// instance is shared by every signer goroutine.
type Ethereum struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	signer   types.Signer
}

// NewEthereum dials the node and prepares the contract binding. The
// private key is hex, with or without the 0x prefix.
func NewEthereum(ctx context.Context, url, contract, privateKey string) (*Ethereum, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ledger: dial %s: %w", url, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ledger: parse private key: %w", err)
	}

	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("ledger: invalid contract address %q", contract)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: chain id: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(auditabilityABI))
	if err != nil {
		return nil, fmt.Errorf("ledger: parse contract abi: %w", err)
	}

	return &Ethereum{
		client:   client,
		abi:      parsed,
		contract: common.HexToAddress(contract),
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		signer:   types.LatestSignerForChainID(chainID),
	}, nil
}

// PendingNonce returns the sender's next unused nonce.
func (e *Ethereum) PendingNonce(ctx context.Context) (uint64, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return 0, fmt.Errorf("ledger: pending nonce: %w", err)
	}
	return nonce, nil
}

// Submit sends store(id, digest) at the given nonce.
func (e *Ethereum) Submit(ctx context.Context, fp models.Fingerprint, nonce uint64) (models.TxRef, error) {
	input, err := e.abi.Pack("store", fp.ID, [32]byte(fp.Hash))
	if err != nil {
		return models.TxRef{}, fmt.Errorf("ledger: pack store call: %w", err)
	}

	gas, err := e.client.EstimateGas(ctx, ethereum.CallMsg{From: e.from, To: &e.contract, Data: input})
	if err != nil {
		return models.TxRef{}, fmt.Errorf("ledger: estimate gas: %w", err)
	}

	tip, feeCap, err := e.fees(ctx)
	if err != nil {
		return models.TxRef{}, err
	}

	signed, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &e.contract,
		Data:      input,
	}), e.signer, e.key)
	if err != nil {
		return models.TxRef{}, fmt.Errorf("ledger: sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return models.TxRef{}, fmt.Errorf("ledger: send transaction: %w", err)
	}
	return models.TxRef(signed.Hash()), nil
}

// Confirmed checks for the transaction's inclusion receipt. A missing
// receipt means "not yet included", not failure.
func (e *Ethereum) Confirmed(ctx context.Context, ref models.TxRef) (bool, error) {
	_, err := e.client.TransactionReceipt(ctx, common.Hash(ref))
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: transaction receipt: %w", err)
	}
	return true, nil
}

// Cancel burns the nonce with a zero-value self-transfer and waits for
// its receipt so the nonce is provably consumed before the caller
// surfaces the original failure.
func (e *Ethereum) Cancel(ctx context.Context, nonce uint64) error {
	signed, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(cancelTip),
		GasFeeCap: big.NewInt(cancelFeeCap),
		Gas:       cancelGasLimit,
		To:        &e.from,
		Value:     big.NewInt(0),
	}), e.signer, e.key)
	if err != nil {
		return fmt.Errorf("ledger: sign cancellation: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("ledger: send cancellation: %w", err)
	}

	ref := models.TxRef(signed.Hash())
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		found, err := e.Confirmed(ctx, ref)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Digest returns the anchored digest for a batch id.
func (e *Ethereum) Digest(ctx context.Context, id string) (models.Digest, error) {
	out, err := e.call(ctx, "exists", id)
	if err != nil {
		return models.Digest{}, err
	}
	exists, ok := out[0].(bool)
	if !ok || !exists {
		return models.Digest{}, apperr.ErrNotFound
	}

	out, err = e.call(ctx, "hash", id)
	if err != nil {
		return models.Digest{}, err
	}
	raw, ok := out[0].([32]byte)
	if !ok {
		return models.Digest{}, fmt.Errorf("ledger: unexpected hash return type %T", out[0])
	}
	return models.Digest(raw), nil
}

// FindByID returns the anchored fingerprint for a batch id.
func (e *Ethereum) FindByID(ctx context.Context, id string) (models.Fingerprint, error) {
	d, err := e.Digest(ctx, id)
	if err != nil {
		return models.Fingerprint{}, err
	}
	return models.Fingerprint{ID: id, Hash: d}, nil
}

func (e *Ethereum) call(ctx context.Context, method string, args ...any) ([]any, error) {
	input, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: pack %s call: %w", method, err)
	}
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.contract, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: call %s(%v): %w", method, args, err)
	}
	res, err := e.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("ledger: unpack %s result: %w", method, err)
	}
	return res, nil
}

func (e *Ethereum) fees(ctx context.Context) (tip, feeCap *big.Int, err error) {
	tip, err = e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: suggest tip: %w", err)
	}
	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: head block: %w", err)
	}
	feeCap = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return tip, feeCap, nil
}
