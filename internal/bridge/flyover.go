package bridge

import "bridgeScope/internal/model"

// LBCAddress is the Flyover Liquidity Bridge Contract on RSK mainnet.
const LBCAddress = "0xaa9caf1e3967600578727f975f283446a3da6612"

// Flyover event kinds, named after the LBC event signatures.
const (
	KindCallForUser        = "CallForUser"
	KindPegOutDeposit      = "PegOutDeposit"
	KindPegOutRefunded     = "PegOutRefunded"
	KindPenalized          = "Penalized"
	KindPegOutUserRefunded = "PegOutUserRefunded"
	KindPegInRegistered    = "PegInRegistered"
)

// FlyoverEvents returns the LBC event signatures the tracker understands.
func FlyoverEvents() EventTable {
	return EventTable{
		"0xbfc7404e6fe464f0646fe2c6ab942b92d56be722bb39f8c6bc4830d2d32fb80d": KindCallForUser,        // CallForUser(address,address,uint256,uint256,bytes,bool,bytes32)
		"0xb1bc7bfc0dab19777eb03aa0a5643378fc9f186c8fc5a36620d21136fbea570f": KindPegOutDeposit,      // PegOutDeposit(bytes32,address,uint256,uint256)
		"0xb781856ec73fd0dc39351043d1634ea22cd3277b0866ab93e7ec1801766bb384": KindPegOutRefunded,     // PegOutRefunded(bytes32)
		"0x9685484093cc596fdaeab51abf645b1753dbb7d869bfd2eb21e2c646e47a36f4": KindPenalized,          // Penalized(address,uint256,bytes32)
		"0x9ccbeffc442024e2a6ade18ff0978af9a4c4d6562ae38adb51ccf8256cf42b41": KindPegOutUserRefunded, // PegOutUserRefunded(bytes32,uint256,address)
		"0x0629ae9d1dc61501b0ca90670a9a9b88daaf7504b54537b53e1219de794c63d2": KindPegInRegistered,    // PegInRegistered(bytes32,int256)
	}
}

// Each Flyover event decodes one of two ways: from the explorer's server-side
// ABI decoding when present, or positionally from topics and data words when
// the explorer could not decode the log. The positional variants fill zero
// values for anything the raw layout cannot recover and keep the raw payload
// for later inspection.

func ParseCallForUser(log model.RawLog) model.CallForUser {
	if params := log.Params(); params != nil {
		return callForUserFromParams(log, params)
	}
	return callForUserFromWords(log)
}

func callForUserFromParams(log model.RawLog, params map[string]any) model.CallForUser {
	valueWei := stringParam(params, "value", "0")
	return model.CallForUser{
		Event:       KindCallForUser,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		FromAddress: stringParam(params, "from", ""),
		DestAddress: stringParam(params, "dest", ""),
		GasLimit:    stringParam(params, "gasLimit", "0"),
		ValueWei:    valueWei,
		ValueRBTC:   RBTCFromWeiString(valueWei),
		Success:     boolParam(params, "success"),
		QuoteHash:   stringParam(params, "quoteHash", ""),
	}
}

func callForUserFromWords(log model.RawLog) model.CallForUser {
	return model.CallForUser{
		Event:       KindCallForUser,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		FromAddress: addressFromTopic(topicAt(log, 1)),
		DestAddress: addressFromTopic(topicAt(log, 2)),
		ValueWei:    "0",
		ValueRBTC:   0,
		Success:     false,
		QuoteHash:   "",
		RawData:     log.Data,
	}
}

func ParsePegOutDeposit(log model.RawLog) model.PegOutDeposit {
	if params := log.Params(); params != nil {
		return pegOutDepositFromParams(log, params)
	}
	return pegOutDepositFromWords(log)
}

func pegOutDepositFromParams(log model.RawLog, params map[string]any) model.PegOutDeposit {
	amountWei := stringParam(params, "amount", "0")
	return model.PegOutDeposit{
		Event:       KindPegOutDeposit,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		QuoteHash:   stringParam(params, "quoteHash", ""),
		Sender:      stringParam(params, "sender", ""),
		AmountWei:   amountWei,
		AmountRBTC:  RBTCFromWeiString(amountWei),
		Timestamp:   int64Param(params, "timestamp"),
	}
}

func pegOutDepositFromWords(log model.RawLog) model.PegOutDeposit {
	amount := uintFromWord(wordAt(log.Data, 0))
	timestamp := uintFromWord(wordAt(log.Data, 1))
	var ts int64
	if timestamp.IsInt64() {
		ts = timestamp.Int64()
	}
	return model.PegOutDeposit{
		Event:       KindPegOutDeposit,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		QuoteHash:   topicAt(log, 1),
		Sender:      addressFromTopic(topicAt(log, 2)),
		AmountWei:   amount.String(),
		AmountRBTC:  RBTCFromWei(amount),
		Timestamp:   ts,
	}
}

func ParsePegOutRefunded(log model.RawLog) model.PegOutRefunded {
	quoteHash := topicAt(log, 1)
	if params := log.Params(); params != nil {
		quoteHash = stringParam(params, "quoteHash", "")
	}
	return model.PegOutRefunded{
		Event:       KindPegOutRefunded,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		QuoteHash:   quoteHash,
	}
}

func ParsePenalized(log model.RawLog) model.Penalized {
	if params := log.Params(); params != nil {
		penaltyWei := stringParam(params, "penalty", "0")
		return model.Penalized{
			Event:       KindPenalized,
			TxHash:      log.TxHash,
			BlockNumber: log.BlockNumber,
			LPAddress:   stringParam(params, "liquidityProvider", ""),
			PenaltyWei:  penaltyWei,
			PenaltyRBTC: RBTCFromWeiString(penaltyWei),
			QuoteHash:   stringParam(params, "quoteHash", ""),
		}
	}
	return model.Penalized{
		Event:       KindPenalized,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LPAddress:   "",
		PenaltyWei:  "0",
		PenaltyRBTC: 0,
		QuoteHash:   "",
		RawData:     log.Data,
	}
}

func ParsePegOutUserRefunded(log model.RawLog) model.PegOutUserRefunded {
	if params := log.Params(); params != nil {
		valueWei := stringParam(params, "value", "0")
		return model.PegOutUserRefunded{
			Event:       KindPegOutUserRefunded,
			TxHash:      log.TxHash,
			BlockNumber: log.BlockNumber,
			QuoteHash:   stringParam(params, "quoteHash", ""),
			ValueWei:    valueWei,
			ValueRBTC:   RBTCFromWeiString(valueWei),
			UserAddress: stringParam(params, "userAddress", ""),
		}
	}
	return model.PegOutUserRefunded{
		Event:       KindPegOutUserRefunded,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		QuoteHash:   topicAt(log, 1),
		ValueWei:    "0",
		ValueRBTC:   0,
		UserAddress: "",
		RawData:     log.Data,
	}
}

func ParsePegInRegistered(log model.RawLog) model.PegInRegistered {
	if params := log.Params(); params != nil {
		amountWei := stringParam(params, "transferredAmount", "0")
		return model.PegInRegistered{
			Event:                 KindPegInRegistered,
			TxHash:                log.TxHash,
			BlockNumber:           log.BlockNumber,
			QuoteHash:             stringParam(params, "quoteHash", ""),
			TransferredAmountWei:  amountWei,
			TransferredAmountRBTC: RBTCFromWeiString(amountWei),
		}
	}
	amount := uintFromWord(wordAt(log.Data, 0))
	return model.PegInRegistered{
		Event:                 KindPegInRegistered,
		TxHash:                log.TxHash,
		BlockNumber:           log.BlockNumber,
		QuoteHash:             topicAt(log, 1),
		TransferredAmountWei:  amount.String(),
		TransferredAmountRBTC: RBTCFromWei(amount),
	}
}
