// Package chain subscribes to a shred-level notification feed and filters it
// down to the two transfer streams the game cares about. The transport is a
// black box: it may drop, redeliver, or burst; downstream layers own
// deduplication and thinning.
package chain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/okian/tokenrain/internal/domain/model"
)

// transferEventSignature is topics[0] for ERC-20 Transfer logs.
var transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// LogEntry is one log record inside a transaction, as carried on the wire.
type LogEntry struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
}

// TransactionRecord is one transaction inside a shred notification.
type TransactionRecord struct {
	TxID string     `json:"txid"`
	Logs []LogEntry `json:"logs"`
}

// ShredNotification is one sub-block stream unit from the feed. Shreds arrive
// faster than full block confirmation and carry zero or more transactions.
type ShredNotification struct {
	Slot         uint64              `json:"slot"`
	Transactions []TransactionRecord `json:"transactions"`
}

// Filter extracts matching transfer events from shred notifications and maps
// the emitting contract to a token kind.
type Filter struct {
	kinds     map[common.Address]model.Kind
	signature common.Hash
}

// NewFilter builds a filter for the two configured contract addresses.
// Address comparison is case-insensitive; both inputs are canonicalized.
func NewFilter(favorable, hazard string) (*Filter, error) {
	if !common.IsHexAddress(favorable) {
		return nil, fmt.Errorf("%w: favorable contract %q", ErrBadAddress, favorable)
	}
	if !common.IsHexAddress(hazard) {
		return nil, fmt.Errorf("%w: hazard contract %q", ErrBadAddress, hazard)
	}
	fav := common.HexToAddress(favorable)
	haz := common.HexToAddress(hazard)
	if fav == haz {
		return nil, fmt.Errorf("%w: contracts must differ", ErrBadAddress)
	}
	return &Filter{
		kinds: map[common.Address]model.Kind{
			fav: model.KindFavorable,
			haz: model.KindHazard,
		},
		signature: transferEventSignature,
	}, nil
}

// Extract returns one RawTransferEvent per matching log entry. Malformed
// entries (bad hex, missing topics, unknown addresses) are silently dropped;
// they must never reach the deduplicator.
func (f *Filter) Extract(n ShredNotification) []model.RawTransferEvent {
	var events []model.RawTransferEvent
	now := time.Now()
	for _, tx := range n.Transactions {
		if tx.TxID == "" {
			continue
		}
		for _, entry := range tx.Logs {
			if len(entry.Topics) == 0 || !common.IsHexAddress(entry.Address) {
				continue
			}
			if common.HexToHash(entry.Topics[0]) != f.signature {
				continue
			}
			kind, ok := f.kinds[common.HexToAddress(entry.Address)]
			if !ok {
				continue
			}
			events = append(events, model.RawTransferEvent{
				TxID:      tx.TxID,
				Signature: f.signature.Hex(),
				Address:   common.HexToAddress(entry.Address).Hex(),
				Kind:      kind,
				Slot:      n.Slot,
				TS:        now,
			})
		}
	}
	return events
}
