package sources

import "strings"

// Each source keeps its own allow-list: coverage differs per upstream and per
// API revision, so the lists are maintained independently.

var curveChains = chainSet(
	"ethereum", "arbitrum", "optimism", "polygon", "base", "fantom",
	"avalanche", "xdai", "gnosis", "fraxtal", "moonbeam", "kava", "celo",
	"zksync", "bsc", "mantle", "x-layer", "sonic", "hyperliquid", "taiko",
)

var stakeDAOChains = chainSet(
	"ethereum", "arbitrum", "polygon", "base", "fraxtal", "sonic",
)

var beefyChains = chainSet(
	"ethereum", "arbitrum", "optimism", "polygon", "base", "fantom",
	"avalanche", "gnosis", "fraxtal", "moonbeam", "kava", "sonic",
)

// chainIDs are EVM chain IDs used in StakeDAO file names and Beefy TVL keys.
var chainIDs = map[string]string{
	"ethereum":  "1",
	"optimism":  "10",
	"bsc":       "56",
	"gnosis":    "100",
	"xdai":      "100",
	"polygon":   "137",
	"sonic":     "146",
	"fantom":    "250",
	"fraxtal":   "252",
	"kava":      "2222",
	"moonbeam":  "1284",
	"base":      "8453",
	"arbitrum":  "42161",
	"avalanche": "43114",
	"celo":      "42220",
}

// beefyChainNames maps chain identifiers to the names Beefy uses in vault
// payloads where they differ.
var beefyChainNames = map[string]string{
	"avalanche": "avax",
	"xdai":      "gnosis",
}

func chainSet(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}

func chainKey(chain string) string {
	return strings.ToLower(strings.TrimSpace(chain))
}

func inSet(set map[string]struct{}, chain string) bool {
	_, ok := set[chainKey(chain)]
	return ok
}

func beefyChainName(chain string) string {
	key := chainKey(chain)
	if name, ok := beefyChainNames[key]; ok {
		return name
	}
	return key
}
