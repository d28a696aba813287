package repository

import (
	"fmt"
	"math"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
)

// toPayload converts record metadata into Qdrant values. CSV cells arrive as
// strings, so numeric and boolean text is stored with its parsed type to keep
// range filters usable.
func toPayload(md map[string]any) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(md)+1)
	for k, v := range md {
		payload[k] = toValue(v)
	}
	return payload
}

func toValue(v any) *pb.Value {
	switch tv := v.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{}}
	case string:
		return typedString(tv)
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float32:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: float64(tv)}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	case []string:
		values := make([]*pb.Value, len(tv))
		for i, s := range tv {
			values[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

// typedString stores integers and floats whose text round-trips exactly, and
// true/false, as their own kinds. Everything else stays a string, so "7.0"
// and "1e3" come back as written.
func typedString(s string) *pb.Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if strconv.FormatInt(i, 10) != s {
			// leading zeros or a sign: an identifier, not a number
			return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: i}}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		strconv.FormatFloat(f, 'f', -1, 64) == s {
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}}
	}
	switch s {
	case "true", "True", "TRUE":
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: true}}
	case "false", "False", "FALSE":
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: false}}
	}
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func fromPayload(payload map[string]*pb.Value) map[string]any {
	md := make(map[string]any, len(payload))
	for k, v := range payload {
		md[k] = fromValue(v)
	}
	return md
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromValue(item)
		}
		return out
	case *pb.Value_StructValue:
		return fromPayload(kind.StructValue.GetFields())
	default:
		return nil
	}
}
