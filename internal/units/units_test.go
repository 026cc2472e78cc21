package units

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestWeiToEther(t *testing.T) {
	require := require.New(t)
	require.Equal("0.000000000000000001", WeiToEther(uint256.NewInt(1)))
	require.Equal("1.000000000000000000", WeiToEther(uint256.NewInt(1_000_000_000_000_000_000)))
	require.Equal("0.000000000000000000", WeiToEther(new(uint256.Int)))
	require.Equal("0.000000001", WeiToGwei(uint256.NewInt(1)))
}

func TestEtherToWei(t *testing.T) {
	require := require.New(t)

	v, err := EtherToWei("1.5")
	require.NoError(err)
	require.Equal("1500000000000000000", v.Dec())

	v, err = EtherToWei(".25")
	require.NoError(err)
	require.Equal("250000000000000000", v.Dec())

	v, err = EtherToWei("0.0000000000000000019")
	require.NoError(err)
	require.Equal("1", v.Dec())

	v, err = EtherToWei("0")
	require.NoError(err)
	require.True(v.IsZero())

	_, err = EtherToWei("1.2.3")
	require.Error(err)
	_, err = EtherToWei("")
	require.Error(err)
	_, err = EtherToWei("abc")
	require.Error(err)
}

func TestParseUint(t *testing.T) {
	require := require.New(t)
	for in, want := range map[string]uint64{
		"0":    0,
		"9999": 9999,
		"0x0":  0,
		"0x00": 0,
		"0x0a": 10,
		"0XFF": 255,
		" 42 ": 42,
	} {
		v, err := ParseUint(in)
		require.NoError(err, in)
		require.Equal(want, v.Uint64(), in)
	}
	for _, in := range []string{"", "-1", "1.5", "0xzz", "ten"} {
		_, err := ParseUint(in)
		require.Error(err, in)
	}
}

func TestCompareEther(t *testing.T) {
	require := require.New(t)
	c, err := CompareEther("1", "1.000")
	require.NoError(err)
	require.Zero(c)
	c, err = CompareEther("0.1", "0.01")
	require.NoError(err)
	require.Equal(1, c)
	_, err = CompareEther("x", "1")
	require.Error(err)
}

func TestFormatUnits(t *testing.T) {
	require := require.New(t)

	wei := uint256.NewInt(2_500_000_000)
	for in, want := range map[string]string{
		"":      "0.000000002500000000",
		"ETH":   "0.000000002500000000",
		"gwei":  "2.500000000",
		" wei ": "2500000000",
	} {
		unit, err := ParseUnit(in)
		require.NoError(err, in)
		require.Equal(want, Format(wei, unit), in)
	}
	_, err := ParseUnit("finney")
	require.Error(err)
}
