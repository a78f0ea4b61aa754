package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
)

var sigPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func baseIntent() domain.Intent {
	return domain.Intent{
		To:      "0x" + strings.Repeat("a", 40),
		Value:   100,
		Data:    "0x",
		ChainID: 1,
		Nonce:   0,
	}
}

func TestCanonicalPayloadKeyOrder(t *testing.T) {
	payload, err := CanonicalPayload(baseIntent())
	require.NoError(t, err)

	expected := `{"chain_id":1,"data":"0x","nonce":0,"to":"0x` + strings.Repeat("a", 40) + `","value":100}`
	assert.Equal(t, expected, string(payload))
}

func TestDigestFormat(t *testing.T) {
	sig, err := Digest(baseIntent(), []byte("demo-unsafe-key"))
	require.NoError(t, err)

	assert.Len(t, sig, 66)
	assert.Regexp(t, sigPattern, sig)
}

// Сверка с независимо посчитанным HMAC: дайджест — это ровно
// HMAC-SHA256(secret, canonical payload), без соли и примесей.
func TestDigestMatchesRawHMAC(t *testing.T) {
	secret := []byte("demo-unsafe-key")
	intent := baseIntent()

	payload := `{"chain_id":1,"data":"0x","nonce":0,"to":"0x` + strings.Repeat("a", 40) + `","value":100}`
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	expected := "0x" + hex.EncodeToString(mac.Sum(nil))

	sig, err := Digest(intent, secret)
	require.NoError(t, err)
	assert.Equal(t, expected, sig)
}

func TestDigestDeterministic(t *testing.T) {
	secret := []byte("s3cret")

	first, err := Digest(baseIntent(), secret)
	require.NoError(t, err)
	second, err := Digest(baseIntent(), secret)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDigestSensitiveToEveryField(t *testing.T) {
	secret := []byte("s3cret")
	base, err := Digest(baseIntent(), secret)
	require.NoError(t, err)

	mutations := map[string]domain.Intent{}

	in := baseIntent()
	in.To = "0x" + strings.Repeat("b", 40)
	mutations["to"] = in

	in = baseIntent()
	in.Value = 101
	mutations["value"] = in

	in = baseIntent()
	in.Data = "0xdead"
	mutations["data"] = in

	in = baseIntent()
	in.ChainID = 5
	mutations["chain_id"] = in

	in = baseIntent()
	in.Nonce = 7
	mutations["nonce"] = in

	for field, mutated := range mutations {
		sig, err := Digest(mutated, secret)
		require.NoError(t, err)
		assert.NotEqual(t, base, sig, "changing %s must change the digest", field)
	}
}

func TestDigestDependsOnSecret(t *testing.T) {
	a, err := Digest(baseIntent(), []byte("key-a"))
	require.NoError(t, err)
	b, err := Digest(baseIntent(), []byte("key-b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
