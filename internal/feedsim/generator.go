package feedsim

import (
	"crypto/rand"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/okian/tokenrain/internal/adapters/chain"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	recentTxWindow     = 64
)

// transferTopic is topics[0] of every generated ERC-20 Transfer log.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")).Hex()

// noiseTopic is a topic hash that the game-side filter must never match.
var noiseTopic = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)")).Hex()

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generator produces shred notifications with a controllable mix of scoring
// transfers, hazard transfers, duplicates, and noise the filter must drop.
type generator struct {
	cfg      *Config
	slot     uint64
	recent   []string // recently emitted txids, the duplicate pool
	padding  []string // filler topics after topics[0]
	synTopic string
}

func newGenerator(cfg *Config) *generator {
	return &generator{
		cfg:      cfg,
		synTopic: transferTopic,
		padding: []string{
			"0x000000000000000000000000a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
			"0x000000000000000000000000123456789abcdef0123456789abcdef012345678",
		},
	}
}

// nextShred builds the next shred notification and updates stats.
func (g *generator) nextShred(stats *Stats) chain.ShredNotification {
	g.slot++
	txs := make([]chain.TransactionRecord, 0, g.cfg.TxPerShred)
	for i := 0; i < g.cfg.TxPerShred; i++ {
		txs = append(txs, g.nextTransaction(stats))
	}
	stats.ShredsSent++
	return chain.ShredNotification{
		Slot:         g.slot,
		Transactions: txs,
	}
}

// nextTransaction emits either a fresh transfer, a duplicate of a recent one,
// or a noise entry that the downstream filter must reject.
func (g *generator) nextTransaction(stats *Stats) chain.TransactionRecord {
	if len(g.recent) > 0 && randomFloat() < g.cfg.DuplicateRatio {
		stats.DuplicatesSent++
		return g.duplicateOf(g.recent[g.pick(len(g.recent))])
	}
	if randomFloat() < g.cfg.NoiseRatio {
		stats.NoiseSent++
		return g.noiseTransaction()
	}
	return g.freshTransfer(stats)
}

// freshTransfer emits a transfer with a brand-new txid from one of the two
// configured contracts, weighted by HazardRatio.
func (g *generator) freshTransfer(stats *Stats) chain.TransactionRecord {
	address := g.cfg.FavorableContract
	if randomFloat() < g.cfg.HazardRatio {
		address = g.cfg.HazardContract
	}

	txid := uuid.New().String()
	g.remember(txid)
	stats.EventsEmitted++

	return chain.TransactionRecord{
		TxID: txid,
		Logs: []chain.LogEntry{{
			Address: address,
			Topics:  append([]string{g.synTopic}, g.padding...),
		}},
	}
}

// duplicateOf re-emits a transfer with a previously used txid. The contract
// side does not matter for duplicates: the dedupe key is txid plus signature.
func (g *generator) duplicateOf(txid string) chain.TransactionRecord {
	return chain.TransactionRecord{
		TxID: txid,
		Logs: []chain.LogEntry{{
			Address: g.cfg.FavorableContract,
			Topics:  append([]string{g.synTopic}, g.padding...),
		}},
	}
}

// noiseTransaction emits an entry the filter must drop: either a non-Transfer
// topic on a known contract or a Transfer from a contract the game ignores.
func (g *generator) noiseTransaction() chain.TransactionRecord {
	if randomFloat() < 0.5 {
		return chain.TransactionRecord{
			TxID: uuid.New().String(),
			Logs: []chain.LogEntry{{
				Address: g.cfg.FavorableContract,
				Topics:  []string{noiseTopic},
			}},
		}
	}
	return chain.TransactionRecord{
		TxID: uuid.New().String(),
		Logs: []chain.LogEntry{{
			Address: "0x1111111111111111111111111111111111111111",
			Topics:  append([]string{g.synTopic}, g.padding...),
		}},
	}
}

// remember keeps a bounded window of recent txids for duplicate injection.
func (g *generator) remember(txid string) {
	g.recent = append(g.recent, txid)
	if len(g.recent) > recentTxWindow {
		g.recent = g.recent[1:]
	}
}

// pick returns a random index below n.
func (g *generator) pick(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}
