package bridge

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"bridgeScope/internal/model"
)

func TestDecoderRecognizesRegisteredTopics(t *testing.T) {
	d := NewDecoder(FlyoverEvents())

	kind, ok := d.Kind("0xBFC7404E6FE464F0646FE2C6AB942B92D56BE722BB39F8C6BC4830D2D32FB80D")
	if !ok || kind != KindCallForUser {
		t.Fatalf("expected CallForUser regardless of case, got %q ok=%v", kind, ok)
	}
	if _, ok := d.Kind("0x1069152f4f916cbf155ee32a695d92258481944edb5b6fd649718fc1b43e515e"); ok {
		t.Fatal("bridge topics must not decode through the flyover table")
	}
	if _, ok := d.Kind(""); ok {
		t.Fatal("empty topic0 must not decode")
	}
}

func TestDecoderAcceptsSyntheticTable(t *testing.T) {
	d := NewDecoder(EventTable{"0xABCDEF": "Custom"})
	kind, ok := d.Kind("0xabcdef")
	if !ok || kind != "Custom" {
		t.Fatalf("synthetic table not honored: %q ok=%v", kind, ok)
	}
}

func TestParseCallForUserStructured(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0x7d5a31",
		BlockNumber: 7431250,
		Topics:      []string{"0xbfc7404e6fe464f0646fe2c6ab942b92d56be722bb39f8c6bc4830d2d32fb80d"},
		Data:        "0x",
		Decoded: &model.DecodedCall{
			Parameters: []model.DecodedParam{
				{Name: "from", Type: "address", Value: "0x82a06ebdb97776a2da4041df8f2b2ea8d3257852", Indexed: true},
				{Name: "dest", Type: "address", Value: "0x9e4b1c5f0aa35bbd3f2c4a918d35f7c2e16101aa", Indexed: true},
				{Name: "gasLimit", Type: "uint256", Value: "35000"},
				{Name: "value", Type: "uint256", Value: "2500000000000000000"},
				{Name: "success", Type: "bool", Value: true},
				{Name: "quoteHash", Type: "bytes32", Value: "0x3fd2a15c"},
			},
		},
	}

	got := ParseCallForUser(log)
	want := model.CallForUser{
		Event:       KindCallForUser,
		TxHash:      "0x7d5a31",
		BlockNumber: 7431250,
		FromAddress: "0x82a06ebdb97776a2da4041df8f2b2ea8d3257852",
		DestAddress: "0x9e4b1c5f0aa35bbd3f2c4a918d35f7c2e16101aa",
		GasLimit:    "35000",
		ValueWei:    "2500000000000000000",
		ValueRBTC:   2.5,
		Success:     true,
		QuoteHash:   "0x3fd2a15c",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%+v != %+v", got, want)
	}
}

func TestParseCallForUserPositionalOmitsGasLimit(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0x7d5a31",
		BlockNumber: 7431250,
		Topics: []string{
			"0xbfc7404e6fe464f0646fe2c6ab942b92d56be722bb39f8c6bc4830d2d32fb80d",
			topicFromAddress("0x82a06ebdb97776a2da4041df8f2b2ea8d3257852"),
			topicFromAddress("0x9e4b1c5f0aa35bbd3f2c4a918d35f7c2e16101aa"),
		},
		Data: "0x00ff",
	}

	got := ParseCallForUser(log)
	if got.FromAddress != "0x82a06ebdb97776a2da4041df8f2b2ea8d3257852" {
		t.Fatalf("unexpected from address: %q", got.FromAddress)
	}
	if got.DestAddress != "0x9e4b1c5f0aa35bbd3f2c4a918d35f7c2e16101aa" {
		t.Fatalf("unexpected dest address: %q", got.DestAddress)
	}
	if got.ValueWei != "0" || got.ValueRBTC != 0 || got.Success {
		t.Fatalf("positional defaults not zeroed: %+v", got)
	}
	if got.RawData != "0x00ff" {
		t.Fatalf("raw payload not preserved: %q", got.RawData)
	}

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(encoded), "gas_limit") {
		t.Fatalf("positional records must omit gas_limit: %s", encoded)
	}
}

func TestParsePegOutDepositPositional(t *testing.T) {
	data := "0x" + unsignedWord(3_000_000_000_000_000_000) + unsignedWord(1739968128)
	log := model.RawLog{
		TxHash:      "0x88b2",
		BlockNumber: 7440010,
		Topics: []string{
			"0xb1bc7bfc0dab19777eb03aa0a5643378fc9f186c8fc5a36620d21136fbea570f",
			"0x9f3a00000000000000000000000000000000000000000000000000000000cafe",
			topicFromAddress("0x5db7c2a8f4e09d4290b32fc1ee4a1c11fc407c91"),
		},
		Data: data,
	}

	got := ParsePegOutDeposit(log)
	want := model.PegOutDeposit{
		Event:       KindPegOutDeposit,
		TxHash:      "0x88b2",
		BlockNumber: 7440010,
		QuoteHash:   "0x9f3a00000000000000000000000000000000000000000000000000000000cafe",
		Sender:      "0x5db7c2a8f4e09d4290b32fc1ee4a1c11fc407c91",
		AmountWei:   "3000000000000000000",
		AmountRBTC:  3.0,
		Timestamp:   1739968128,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%+v != %+v", got, want)
	}
}

func TestParsePegOutDepositShortData(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0x88b2",
		BlockNumber: 7440010,
		Topics:      []string{"0xb1bc7bfc0dab19777eb03aa0a5643378fc9f186c8fc5a36620d21136fbea570f"},
		Data:        "0x",
	}

	got := ParsePegOutDeposit(log)
	if got.QuoteHash != "" || got.Sender != "" {
		t.Fatalf("missing topics should decode as empty: %+v", got)
	}
	if got.AmountWei != "0" || got.AmountRBTC != 0 || got.Timestamp != 0 {
		t.Fatalf("short data should decode as zeroes: %+v", got)
	}
}

func TestParsePenalizedFallbackKeepsRawData(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0xfe01",
		BlockNumber: 7450100,
		Topics:      []string{"0x9685484093cc596fdaeab51abf645b1753dbb7d869bfd2eb21e2c646e47a36f4"},
		Data:        "0xdeadbeef",
	}

	got := ParsePenalized(log)
	want := model.Penalized{
		Event:       KindPenalized,
		TxHash:      "0xfe01",
		BlockNumber: 7450100,
		LPAddress:   "",
		PenaltyWei:  "0",
		PenaltyRBTC: 0,
		QuoteHash:   "",
		RawData:     "0xdeadbeef",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%+v != %+v", got, want)
	}
}

func TestParsePegOutUserRefundedStructured(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0xab10",
		BlockNumber: 7455000,
		Topics:      []string{"0x9ccbeffc442024e2a6ade18ff0978af9a4c4d6562ae38adb51ccf8256cf42b41"},
		Decoded: &model.DecodedCall{
			Parameters: []model.DecodedParam{
				{Name: "quoteHash", Type: "bytes32", Value: "0x11ef"},
				{Name: "value", Type: "uint256", Value: "750000000000000000"},
				{Name: "userAddress", Type: "address", Value: "0x5db7c2a8f4e09d4290b32fc1ee4a1c11fc407c91"},
			},
		},
	}

	got := ParsePegOutUserRefunded(log)
	if got.QuoteHash != "0x11ef" || got.UserAddress != "0x5db7c2a8f4e09d4290b32fc1ee4a1c11fc407c91" {
		t.Fatalf("unexpected decode: %+v", got)
	}
	if got.ValueWei != "750000000000000000" || got.ValueRBTC != 0.75 {
		t.Fatalf("unexpected value decode: %+v", got)
	}
}

func TestParsePegInRegisteredPositional(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0xcc42",
		BlockNumber: 7460400,
		Topics: []string{
			"0x0629ae9d1dc61501b0ca90670a9a9b88daaf7504b54537b53e1219de794c63d2",
			"0x00000000000000000000000000000000000000000000000000000000000042aa",
		},
		Data: "0x" + unsignedWord(1_250_000_000_000_000_000),
	}

	got := ParsePegInRegistered(log)
	if got.QuoteHash != "0x00000000000000000000000000000000000000000000000000000000000042aa" {
		t.Fatalf("unexpected quote hash: %q", got.QuoteHash)
	}
	if got.TransferredAmountWei != "1250000000000000000" || got.TransferredAmountRBTC != 1.25 {
		t.Fatalf("unexpected amount decode: %+v", got)
	}
}

func TestParsePegOutRefunded(t *testing.T) {
	log := model.RawLog{
		TxHash:      "0xdd43",
		BlockNumber: 7460500,
		Topics: []string{
			"0xb781856ec73fd0dc39351043d1634ea22cd3277b0866ab93e7ec1801766bb384",
			"0x000000000000000000000000000000000000000000000000000000000000b00b",
		},
	}

	got := ParsePegOutRefunded(log)
	if got.QuoteHash != "0x000000000000000000000000000000000000000000000000000000000000b00b" {
		t.Fatalf("unexpected quote hash: %q", got.QuoteHash)
	}
}
