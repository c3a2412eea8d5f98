package bridge

import (
	"encoding/hex"
	"fmt"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/nextion.go/pkg/nextion"
)

// Event kinds published on the event topic.
const (
	EventPage    = "page"
	EventTrigger = "trigger"
	EventRaw     = "raw"
)

type structValue = structpb.Value

func marshalFields(fields map[string]*structValue) ([]byte, error) {
	return proto.Marshal(&structpb.Struct{Fields: fields})
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func boolValue(b bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: b}}
}

// EncodePage encodes a page change event.
func EncodePage(page byte) ([]byte, error) {
	return marshalFields(map[string]*structValue{
		"kind": stringValue(EventPage),
		"page": numberValue(float64(page)),
	})
}

// EncodeTrigger encodes a trigger event.
func EncodeTrigger(id byte) ([]byte, error) {
	return marshalFields(map[string]*structValue{
		"kind": stringValue(EventTrigger),
		"id":   numberValue(float64(id)),
	})
}

// EncodeRaw encodes an event frame of another command group.
func EncodeRaw(group byte, payload []byte) ([]byte, error) {
	return marshalFields(map[string]*structValue{
		"kind":    stringValue(EventRaw),
		"group":   numberValue(float64(group)),
		"payload": stringValue(hex.EncodeToString(payload)),
	})
}

// Value is a polled attribute value.
type Value struct {
	Ref    string
	Number uint32
	Text   string
	IsText bool
	Failed bool
}

// EncodeValue encodes a polled value.
func EncodeValue(v Value) ([]byte, error) {
	fields := map[string]*structValue{"ref": stringValue(v.Ref)}
	switch {
	case v.Failed:
		fields["error"] = boolValue(true)
	case v.IsText:
		fields["text"] = stringValue(v.Text)
	default:
		fields["number"] = numberValue(float64(v.Number))
	}
	return marshalFields(fields)
}

// DecodeFields decodes a payload into plain values, mainly for tools
// and tests.
func DecodeFields(payload []byte) (map[string]interface{}, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	fields := make(map[string]interface{}, len(s.Fields))
	for key, val := range s.Fields {
		switch kind := val.GetKind().(type) {
		case *structpb.Value_NumberValue:
			fields[key] = kind.NumberValue
		case *structpb.Value_StringValue:
			fields[key] = kind.StringValue
		case *structpb.Value_BoolValue:
			fields[key] = kind.BoolValue
		}
	}
	return fields, nil
}

// DecodeSet decodes an assignment: {ref, number} or {ref, text}.
func DecodeSet(payload []byte) (nextion.Command, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	ref := s.Fields["ref"].GetStringValue()
	if ref == "" {
		return nil, fmt.Errorf("set: missing ref")
	}
	if val, ok := s.Fields["text"]; ok {
		return nextion.StringAssign{Ref: ref, Text: val.GetStringValue()}, nil
	}
	val, ok := s.Fields["number"]
	if !ok {
		return nil, fmt.Errorf("set %q: missing number or text", ref)
	}
	num := val.GetNumberValue()
	if num < 0 || num > 0xffffffff || num != float64(uint32(num)) {
		return nil, fmt.Errorf("set %q: invalid number %v", ref, num)
	}
	return nextion.NumericAssign{Ref: ref, Value: uint32(num)}, nil
}

// DecodeCmd decodes a raw command: {text}.
func DecodeCmd(payload []byte) (nextion.Command, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	text := s.Fields["text"].GetStringValue()
	if text == "" {
		return nil, fmt.Errorf("cmd: missing text")
	}
	return nextion.RawCommand{Text: text}, nil
}

// EncodeSet encodes an assignment accepted by DecodeSet.
func EncodeSet(cmd nextion.Command) ([]byte, error) {
	fields := make(map[string]*structValue)
	switch c := cmd.(type) {
	case nextion.NumericAssign:
		fields["ref"], fields["number"] = stringValue(c.Ref), numberValue(float64(c.Value))
	case nextion.StringAssign:
		fields["ref"], fields["text"] = stringValue(c.Ref), stringValue(c.Text)
	case nextion.RawCommand:
		fields["text"] = stringValue(c.Text)
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
	return marshalFields(fields)
}
