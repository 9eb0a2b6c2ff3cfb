package mint

import "context"

// RecordRepository は実行結果（Record）の永続化ポートです。
type RecordRepository interface {
	Save(ctx context.Context, r Record) error
	GetByMint(ctx context.Context, mintAddress string) (Record, error)
}

// NopRecordRepository は永続化先が未設定の場合に使う何もしない実装です。
type NopRecordRepository struct{}

func (NopRecordRepository) Save(context.Context, Record) error { return nil }

func (NopRecordRepository) GetByMint(context.Context, string) (Record, error) {
	return Record{}, ErrNotFound
}
