package model

import "strings"

// RawLog is one event log as served by the explorer or the node. Fields carry
// Blockscout's wire names so explorer pages decode straight into it; logs built
// from eth_getLogs responses are normalized into the same shape.
type RawLog struct {
	TxHash      string       `json:"transaction_hash"`
	BlockNumber int64        `json:"block_number"`
	LogIndex    int64        `json:"index"`
	Topics      []string     `json:"topics"`
	Data        string       `json:"data"`
	Decoded     *DecodedCall `json:"decoded"`
}

// Topic0 returns the lowercased event signature hash, or "" when absent.
func (l RawLog) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return strings.ToLower(l.Topics[0])
}

// DecodedCall is the explorer's server-side ABI decoding of a log.
type DecodedCall struct {
	MethodCall string         `json:"method_call"`
	MethodID   string         `json:"method_id"`
	Parameters []DecodedParam `json:"parameters"`
}

// DecodedParam is a single named parameter from a decoded log. Value keeps the
// explorer's representation: strings for integer and address types, bools for
// booleans.
type DecodedParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   any    `json:"value"`
	Indexed bool   `json:"indexed"`
}

// Params flattens decoded parameters into a name keyed map. Returns nil when
// the explorer supplied no decoding, which callers use to pick the positional
// strategy instead.
func (l RawLog) Params() map[string]any {
	if l.Decoded == nil || len(l.Decoded.Parameters) == 0 {
		return nil
	}
	params := make(map[string]any, len(l.Decoded.Parameters))
	for _, p := range l.Decoded.Parameters {
		params[p.Name] = p.Value
	}
	return params
}

// InternalTx is one internal transaction from the explorer.
type InternalTx struct {
	TxHash      string     `json:"transaction_hash"`
	BlockNumber int64      `json:"block_number"`
	From        AddressRef `json:"from"`
	To          AddressRef `json:"to"`
	Value       string     `json:"value"`
	Timestamp   string     `json:"timestamp"`
}

// AddressRef is the explorer's embedded address object.
type AddressRef struct {
	Hash string `json:"hash"`
}
