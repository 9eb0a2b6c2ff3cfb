// internal/adapters/out/firestore/mint_record_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
)

const mintRecordCollection = "token_mints"

// MintRecordRepositoryFS implements mint.RecordRepository using Firestore.
// Document ID = mint address.
type MintRecordRepositoryFS struct {
	Client *firestore.Client
}

var _ mintdom.RecordRepository = (*MintRecordRepositoryFS)(nil)

func NewMintRecordRepositoryFS(client *firestore.Client) *MintRecordRepositoryFS {
	return &MintRecordRepositoryFS{Client: client}
}

func (r *MintRecordRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(mintRecordCollection)
}

// Save は token_mints/{mintAddress} を上書き保存します（同じ mint の再実行は最新状態で置き換え）。
func (r *MintRecordRepositoryFS) Save(ctx context.Context, rec mintdom.Record) error {
	if r == nil || r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id := strings.TrimSpace(rec.MintAddress)
	if id == "" {
		return mintdom.ErrInvalidMintAddress
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	// 🔸 ドメインのフィールドを落とさないように明示的にマッピングする
	data := map[string]interface{}{
		"mintAddress":   id,
		"payerWallet":   rec.PayerWallet,
		"transactionId": rec.TransactionID,
		"status":        rec.Status,
		"decimals":      int64(rec.Decimals),
		"program":       string(rec.Program),
		"cluster":       rec.Cluster,
		"createdAt":     rec.CreatedAt.UTC(),
		"updatedAt":     time.Now().UTC(),
	}
	// ★ 任意項目は空なら保存しない
	if v := strings.TrimSpace(rec.RecipientTokenAccount); v != "" {
		data["recipientTokenAccount"] = v
	}
	if v := strings.TrimSpace(rec.OnChainTxID); v != "" {
		data["onChainTxId"] = v
	}

	_, err := r.col().Doc(id).Set(ctx, data)
	return err
}

func (r *MintRecordRepositoryFS) GetByMint(ctx context.Context, mintAddress string) (mintdom.Record, error) {
	if r == nil || r.Client == nil {
		return mintdom.Record{}, errors.New("firestore client is nil")
	}
	id := strings.TrimSpace(mintAddress)
	if id == "" {
		return mintdom.Record{}, mintdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return mintdom.Record{}, mintdom.ErrNotFound
	}
	if err != nil {
		return mintdom.Record{}, err
	}

	var raw struct {
		MintAddress           string    `firestore:"mintAddress"`
		PayerWallet           string    `firestore:"payerWallet"`
		RecipientTokenAccount string    `firestore:"recipientTokenAccount"`
		TransactionID         string    `firestore:"transactionId"`
		Status                string    `firestore:"status"`
		OnChainTxID           string    `firestore:"onChainTxId"`
		Decimals              int64     `firestore:"decimals"`
		Program               string    `firestore:"program"`
		Cluster               string    `firestore:"cluster"`
		CreatedAt             time.Time `firestore:"createdAt"`
	}
	if err := snap.DataTo(&raw); err != nil {
		return mintdom.Record{}, err
	}

	addr := raw.MintAddress
	if addr == "" {
		addr = snap.Ref.ID
	}

	return mintdom.Record{
		MintAddress:           addr,
		PayerWallet:           raw.PayerWallet,
		RecipientTokenAccount: raw.RecipientTokenAccount,
		TransactionID:         raw.TransactionID,
		Status:                raw.Status,
		OnChainTxID:           raw.OnChainTxID,
		Decimals:              uint8(raw.Decimals),
		Program:               mintdom.TokenProgram(raw.Program),
		Cluster:               raw.Cluster,
		CreatedAt:             raw.CreatedAt.UTC(),
	}, nil
}
