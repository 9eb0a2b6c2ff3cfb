package signer

import "strings"

// Pool は 1 回の実行で利用可能な署名者の順序付きリストです。
// グローバルな singleton ではなく、呼び出し側が明示的に組み立てて渡します。
// 重複は許容します（マッチは常に先頭優先）。
type Pool struct {
	keys []KeyPair
}

// NewPool は与えられた順序のまま Pool を作ります。ゼロ値の KeyPair は無視します。
func NewPool(keys ...KeyPair) *Pool {
	p := &Pool{keys: make([]KeyPair, 0, len(keys))}
	for _, k := range keys {
		p.Add(k)
	}
	return p
}

// Add は末尾に署名者を追加します。
func (p *Pool) Add(k KeyPair) {
	if k.IsZero() {
		return
	}
	p.keys = append(p.keys, k)
}

// With は先頭に keys を差し込んだ新しい Pool を返します（元の Pool は変更しません）。
func (p *Pool) With(keys ...KeyPair) *Pool {
	out := NewPool(keys...)
	if p != nil {
		for _, k := range p.keys {
			out.Add(k)
		}
	}
	return out
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Addresses はログ用にアドレス一覧を返します。
func (p *Pool) Addresses() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, k.Address())
	}
	return out
}

// Match は locator にアドレスが含まれる最初の署名者を返します。
//
// Crossmint は signer を "solana-keypair:<address>" のような複合 locator で返すため、
// 完全一致ではなく部分一致で判定します。
// あるアドレスが別のアドレスの部分文字列になっている場合は Pool 順で先に来た方が選ばれます。
func (p *Pool) Match(locator string) (KeyPair, bool) {
	if p == nil {
		return KeyPair{}, false
	}
	for _, k := range p.keys {
		addr := k.Address()
		if addr == "" {
			continue
		}
		if strings.Contains(locator, addr) {
			return k, true
		}
	}
	return KeyPair{}, false
}
