package bridge

import (
	"encoding/hex"
	"math/big"
	"strings"
	"unicode"

	"bridgeScope/internal/model"
)

var (
	two255 = new(big.Int).Lsh(big.NewInt(1), 255)
	two256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// topicAt returns the nth topic, or "" when the log has fewer topics or the
// explorer padded the slot with null.
func topicAt(log model.RawLog, n int) string {
	if n >= len(log.Topics) {
		return ""
	}
	return log.Topics[n]
}

// addressFromTopic extracts the address packed into the low 20 bytes of a
// 32-byte topic.
func addressFromTopic(topic string) string {
	if topic == "" {
		return ""
	}
	if len(topic) <= 40 {
		return topic
	}
	return "0x" + topic[len(topic)-40:]
}

// wordAt returns the nth 32-byte word of a 0x-prefixed hex payload, or ""
// when the payload is too short.
func wordAt(data string, n int) string {
	raw := strings.TrimPrefix(data, "0x")
	start := n * 64
	if start < 0 || len(raw) < start+64 {
		return ""
	}
	return raw[start : start+64]
}

// uintFromWord parses a hex word as an unsigned integer. Short or malformed
// words yield zero rather than an error.
func uintFromWord(word string) *big.Int {
	if word == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return new(big.Int)
	}
	return v
}

// intFromWord parses a hex word as a signed int256 in two's complement.
func intFromWord(word string) *big.Int {
	v := uintFromWord(word)
	if v.Cmp(two255) >= 0 {
		v.Sub(v, two256)
	}
	return v
}

// asciiFromData decodes the dynamic bytes parameter whose length word sits at
// index lenWord, with the payload following it. Truncated payloads decode as
// far as they go; non-ASCII or malformed payloads yield "".
func asciiFromData(data string, lenWord int) string {
	raw := strings.TrimPrefix(data, "0x")
	length := uintFromWord(wordAt(data, lenWord))
	if length.Sign() <= 0 || !length.IsInt64() {
		return ""
	}
	start := (lenWord + 1) * 64
	if start > len(raw) {
		return ""
	}
	want := length.Int64() * 2
	if want < 0 || want > int64(len(raw)-start) {
		want = int64(len(raw) - start)
	}
	decoded, err := hex.DecodeString(raw[start : start+int(want)])
	if err != nil {
		return ""
	}
	for _, b := range decoded {
		if b > unicode.MaxASCII {
			return ""
		}
	}
	return string(decoded)
}
