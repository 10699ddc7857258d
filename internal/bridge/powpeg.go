package bridge

import (
	"math/big"
	"strings"

	"bridgeScope/internal/model"
)

// BridgeAddress is the native bridge precompile on RSK mainnet.
const BridgeAddress = "0x0000000000000000000000000000000001000006"

// Bridge event kinds. The precompile is not a Solidity contract so the
// explorer never decodes its logs; all parsing here is positional.
const (
	KindPeginBTC                 = "pegin_btc"
	KindReleaseRequestReceived   = "release_request_received"
	KindPegoutConfirmed          = "pegout_confirmed"
	KindReleaseBTC               = "release_btc"
	KindBatchPegoutCreated       = "batch_pegout_created"
	KindUpdateCollections        = "update_collections"
	KindPegoutTransactionCreated = "pegout_transaction_created"
	KindAddSignature             = "add_signature"
)

// BridgeEvents returns the bridge precompile's known event signatures. The
// maintenance kinds are registered so scans can account for them even though
// only the peg lifecycle kinds are persisted.
func BridgeEvents() EventTable {
	return EventTable{
		"0x1069152f4f916cbf155ee32a695d92258481944edb5b6fd649718fc1b43e515e": KindUpdateCollections,
		"0x44cdc782a38244afd68336ab92a0b39f864d6c0b2a50fa1da58cafc93cd2ae5a": KindPeginBTC,             // pegin_btc(address,bytes32,int256,int256)
		"0xc287f602476eeef8a547a3b82e79045c827c51362ff153f728b6d839bad099ef": KindPegoutConfirmed,      // pegout_confirmed(bytes32,uint256)
		"0x655929b56d5c5a24f81ee80267d5151b9d680e7e703387999922e9070bc98a02": KindReleaseBTC,           // release_btc(bytes32,bytes)
		"0x483d0191cc4e784b04a41f6c4801a0766b43b1fdd0b9e3e6bfdca74e5b05c2eb": KindBatchPegoutCreated,   // batch_pegout_created(bytes32,bytes)
		"0x9ee5d520fd5e6eaea3fd2e3ae4e35e9a9c0fb05c9d8f84b507f287da84b5117c": KindPegoutTransactionCreated,
		"0x83b6efe3a7d95459577ec9396f5d6f1e486ca2378130e2ba4d98a4da108ca743": KindAddSignature,
		"0x1a4457a4460d48b40c5280955faf8e4685fa73f0866f7d8f573bdd8e64aca5b1": KindReleaseRequestReceived,
	}
}

// TrackedBridgeKinds are the kinds the peg-out scan requests node-side; the
// maintenance events would otherwise dominate every response.
func TrackedBridgeKinds() []string {
	return []string{
		KindPeginBTC,
		KindReleaseRequestReceived,
		KindPegoutConfirmed,
		KindReleaseBTC,
		KindBatchPegoutCreated,
	}
}

// ParsePeginBTC decodes pegin_btc: recipient and BTC tx hash indexed, then
// two int256 data words for the satoshi amount and protocol version.
func ParsePeginBTC(log model.RawLog) model.PeginBTC {
	var satoshis, version int64
	if v := intFromWord(wordAt(log.Data, 0)); v.IsInt64() {
		satoshis = v.Int64()
	}
	if v := intFromWord(wordAt(log.Data, 1)); v.IsInt64() {
		version = v.Int64()
	}
	return model.PeginBTC{
		Event:           KindPeginBTC,
		TxHash:          log.TxHash,
		BlockNumber:     log.BlockNumber,
		LogIndex:        log.LogIndex,
		Recipient:       addressFromTopic(topicAt(log, 1)),
		BTCTxHash:       topicAt(log, 2),
		AmountSatoshis:  satoshis,
		AmountBTC:       BTCFromSatoshis(satoshis),
		ProtocolVersion: version,
	}
}

// ParseReleaseRequestReceived decodes a peg-out initiation: the sender is
// indexed, the data carries an ABI-encoded (bytes destination, int256 amount)
// pair laid out as offset word, amount word, length word, then the address
// bytes as ASCII.
func ParseReleaseRequestReceived(log model.RawLog) model.ReleaseRequested {
	amount := intFromWord(wordAt(log.Data, 1))
	return model.ReleaseRequested{
		Event:          KindReleaseRequestReceived,
		TxHash:         log.TxHash,
		BlockNumber:    log.BlockNumber,
		LogIndex:       log.LogIndex,
		Sender:         addressFromTopic(topicAt(log, 1)),
		BTCDestination: asciiFromData(log.Data, 2),
		AmountWei:      amount.String(),
		AmountRBTC:     RBTCFromWei(amount),
	}
}

// ParsePegoutConfirmed decodes pegout_confirmed: the pegout hash indexed and
// the Bitcoin block height as the first data word.
func ParsePegoutConfirmed(log model.RawLog) model.ReleaseEvent {
	var height uint64
	if v := uintFromWord(wordAt(log.Data, 0)); v.IsUint64() {
		height = v.Uint64()
	}
	return model.ReleaseEvent{
		Event:          KindPegoutConfirmed,
		TxHash:         log.TxHash,
		BlockNumber:    log.BlockNumber,
		LogIndex:       log.LogIndex,
		PegoutHash:     topicAt(log, 1),
		BTCBlockHeight: height,
	}
}

func ParseReleaseBTC(log model.RawLog) model.ReleaseEvent {
	return model.ReleaseEvent{
		Event:       KindReleaseBTC,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.LogIndex,
		ReleaseHash: topicAt(log, 1),
	}
}

func ParseBatchPegoutCreated(log model.RawLog) model.ReleaseEvent {
	return model.ReleaseEvent{
		Event:       KindBatchPegoutCreated,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.LogIndex,
		BatchHash:   topicAt(log, 1),
	}
}

// ClassifyInternalTx reports whether an internal transaction is a peg-in
// credit: value flowing from the bridge to any other address. Zero-value
// calls and bridge self-calls are not credits.
func ClassifyInternalTx(tx model.InternalTx, bridgeAddress string) (model.BridgeCredit, bool) {
	value, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok || value.Sign() == 0 {
		return model.BridgeCredit{}, false
	}
	bridge := strings.ToLower(bridgeAddress)
	from := strings.ToLower(tx.From.Hash)
	to := strings.ToLower(tx.To.Hash)
	if from != bridge || to == bridge {
		return model.BridgeCredit{}, false
	}
	return model.BridgeCredit{
		Type:           "pegin",
		TxHash:         tx.TxHash,
		BlockNumber:    tx.BlockNumber,
		ToAddress:      to,
		ValueWei:       value.String(),
		ValueRBTC:      RBTCFromWei(value),
		BlockTimestamp: tx.Timestamp,
	}, true
}
