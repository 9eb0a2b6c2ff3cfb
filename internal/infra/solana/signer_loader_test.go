package solana

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

func TestLoadSignerFromBase58(t *testing.T) {
	kp := signerdom.Generate()

	got, err := LoadSignerFromBase58(domcommon.EncodeBase58(kp.Secret()))
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), got.Address())

	for _, s := range []string{"", "   ", "your_wallet_private_key_here"} {
		_, err := LoadSignerFromBase58(s)
		assert.ErrorIs(t, err, ErrSecretNotConfigured, "input %q", s)
	}

	_, err = LoadSignerFromBase58(domcommon.EncodeBase58([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, signerdom.ErrInvalidSecretKey)

	_, err = LoadSignerFromBase58("0OIl")
	assert.ErrorIs(t, err, domcommon.ErrMalformedEncoding)
}

func TestKeypairJSONRoundTrip(t *testing.T) {
	kp := signerdom.Generate()

	data, err := EncodeKeypairJSON(kp)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])

	got, err := KeyPairFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), got.Address())
}

func TestDecodeKeypairJSONAcceptsByteString(t *testing.T) {
	kp := signerdom.Generate()

	// []byte はJSON上 base64 文字列になる
	data, err := json.Marshal(kp.Secret())
	require.NoError(t, err)

	raw, err := DecodeKeypairJSON(data)
	require.NoError(t, err)
	assert.Equal(t, kp.Secret(), raw)
}

func TestDecodeKeypairJSONErrors(t *testing.T) {
	_, err := DecodeKeypairJSON([]byte(`{"a":1}`))
	assert.ErrorIs(t, err, ErrInvalidKeypairJSON)

	_, err = DecodeKeypairJSON([]byte(`[1,2,3]`))
	assert.ErrorIs(t, err, ErrInvalidKeypairJSON)

	ints := make([]int, 64)
	ints[10] = 300
	data, _ := json.Marshal(ints)
	_, err = DecodeKeypairJSON(data)
	assert.ErrorIs(t, err, ErrInvalidKeypairJSON)
}
