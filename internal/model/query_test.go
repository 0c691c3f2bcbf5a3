package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"yieldScope/internal/address"
)

func TestPoolQueryAddress(t *testing.T) {
	want := address.MustNormalize("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7")

	tests := []struct {
		pool   string
		isAddr bool
		looks  bool
	}{
		{pool: "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7", isAddr: true, looks: true},
		{pool: "bebc44782c7db0a1a60cb6fe97d0b483032ff1c7", isAddr: true, looks: false},
		{pool: "0xnothex", isAddr: false, looks: true},
		{pool: "3pool", isAddr: false, looks: false},
	}
	for _, tt := range tests {
		t.Run(tt.pool, func(t *testing.T) {
			q := PoolQuery{Chain: " Ethereum ", Pool: tt.pool}
			got, ok := q.Address()
			require.Equal(t, tt.isAddr, ok)
			if ok {
				require.Equal(t, want, got)
			}
			require.Equal(t, tt.looks, q.LooksLikeAddress())
			require.Equal(t, "ethereum", q.ChainKey())
		})
	}
}
