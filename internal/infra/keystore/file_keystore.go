// internal/infra/keystore/file_keystore.go
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

var (
	ErrKeyNotFound     = errors.New("keystore: key not found")
	ErrInvalidKeyName  = errors.New("keystore: invalid key name")
	ErrCorruptKeyFile  = errors.New("keystore: corrupt key file")
	ErrKeyPairMismatch = errors.New("keystore: pubkey does not match privkey")
)

const (
	dirPerm  os.FileMode = 0o700
	filePerm os.FileMode = 0o600
)

// パス区切りや ".." を含む名前は受け付けない
var keyNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// keyFile は <KEYS_DIR>/<name>.json の中身です。
type keyFile struct {
	PubKey  string `json:"pubkey"`
	PrivKey string `json:"privkey"` // base58(64 bytes)
}

// FileKeystore は名前付き keypair をローカルファイルに保存します。
// ⚠ 秘密鍵を平文で保存するため、devnet / ローカル検証用途に限定してください。
type FileKeystore struct {
	dir    string
	logger *zap.Logger
}

func NewFileKeystore(dir string, logger *zap.Logger) *FileKeystore {
	d := strings.TrimSpace(dir)
	if d == "" {
		d = "./keys"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileKeystore{dir: d, logger: logger.Named("keystore")}
}

func (s *FileKeystore) Dir() string { return s.dir }

func (s *FileKeystore) path(name string) (string, error) {
	n := strings.TrimSpace(name)
	if !keyNamePattern.MatchString(n) || strings.Contains(n, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
	}
	return filepath.Join(s.dir, n+".json"), nil
}

// Save は keypair を <dir>/<name>.json に書き込みます（既存ファイルは上書き）。
func (s *FileKeystore) Save(name string, kp signerdom.KeyPair) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if kp.IsZero() {
		return fmt.Errorf("keystore: save %s: %w", name, signerdom.ErrInvalidSecretKey)
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("keystore: mkdir %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(keyFile{
		PubKey:  kp.Address(),
		PrivKey: domcommon.EncodeBase58(kp.Secret()),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: marshal %s: %w", name, err)
	}

	if err := os.WriteFile(p, data, filePerm); err != nil {
		return fmt.Errorf("keystore: write %s: %w", p, err)
	}

	s.logger.Info("key saved", zap.String("name", name), zap.String("pubkey", kp.Address()))
	return nil
}

// Load は <dir>/<name>.json から keypair を読み込みます。
func (s *FileKeystore) Load(name string) (signerdom.KeyPair, error) {
	p, err := s.path(name)
	if err != nil {
		return signerdom.KeyPair{}, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return signerdom.KeyPair{}, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return signerdom.KeyPair{}, fmt.Errorf("keystore: read %s: %w", p, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return signerdom.KeyPair{}, fmt.Errorf("%w: %s: %v", ErrCorruptKeyFile, name, err)
	}

	raw, err := domcommon.DecodeBase58(kf.PrivKey)
	if err != nil {
		return signerdom.KeyPair{}, fmt.Errorf("%w: %s: %v", ErrCorruptKeyFile, name, err)
	}
	kp, err := signerdom.FromSecret(raw)
	if err != nil {
		return signerdom.KeyPair{}, fmt.Errorf("%w: %s: %v", ErrCorruptKeyFile, name, err)
	}

	if pub := strings.TrimSpace(kf.PubKey); pub != "" && pub != kp.Address() {
		return signerdom.KeyPair{}, fmt.Errorf("%w: %s", ErrKeyPairMismatch, name)
	}
	return kp, nil
}

// LoadOrCreate は既存の鍵を読み込み、無ければ生成して保存します。
// 2 つ目の戻り値は新規作成したかどうか。
func (s *FileKeystore) LoadOrCreate(name string) (signerdom.KeyPair, bool, error) {
	kp, err := s.Load(name)
	if err == nil {
		return kp, false, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return signerdom.KeyPair{}, false, err
	}

	kp = signerdom.Generate()
	if err := s.Save(name, kp); err != nil {
		return signerdom.KeyPair{}, false, err
	}
	return kp, true, nil
}
