package mint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

func TestPlanNormalizeDefaults(t *testing.T) {
	p := Plan{
		Payer:                  " Csowvp2cvhN6VCVgn6eks1Y1EevQ5aAfUuQs7mtdx1La ",
		Mint:                   signer.Generate(),
		CreateRecipientAccount: true,
	}.Normalize()

	assert.Equal(t, "Csowvp2cvhN6VCVgn6eks1Y1EevQ5aAfUuQs7mtdx1La", p.Payer)
	assert.Equal(t, p.Payer, p.MintAuthority)
	assert.Equal(t, p.Payer, p.FreezeAuthority)
	assert.Equal(t, p.Payer, p.RecipientOwner)
	assert.Equal(t, ProgramToken2022, p.Program)
	require.NoError(t, p.Validate())
}

func TestPlanDisableFreezeAuthority(t *testing.T) {
	p := Plan{
		Payer:                  "Csowvp2cvhN6VCVgn6eks1Y1EevQ5aAfUuQs7mtdx1La",
		Mint:                   signer.Generate(),
		FreezeAuthority:        "5BUhqfUT3JcL2iZ5PSMA3E1EDU6uxmgYAAumQkmRX91z",
		DisableFreezeAuthority: true,
	}.Normalize()
	assert.Empty(t, p.FreezeAuthority)
}

func TestPlanValidate(t *testing.T) {
	assert.ErrorIs(t, Plan{}.Normalize().Validate(), ErrInvalidPayer)
	assert.ErrorIs(t, Plan{Payer: "x"}.Normalize().Validate(), ErrInvalidMintKey)
	assert.ErrorIs(t, Plan{Payer: "x", Mint: signer.Generate(), Program: "nft"}.Validate(), ErrInvalidTokenProgram)
}

func TestParseTokenProgram(t *testing.T) {
	got, err := ParseTokenProgram("")
	require.NoError(t, err)
	assert.Equal(t, ProgramToken2022, got)

	got, err = ParseTokenProgram("legacy")
	require.NoError(t, err)
	assert.Equal(t, ProgramToken, got)

	_, err = ParseTokenProgram("metaplex")
	assert.ErrorIs(t, err, ErrInvalidTokenProgram)
}
