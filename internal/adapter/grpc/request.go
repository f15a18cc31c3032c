package grpc

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// fields reads typed values out of a request struct
// The first parse failure is kept in err and every later read is a no-op.
type fields struct {
	values map[string]*structpb.Value
	err    error
}

func newFields(req *structpb.Struct) *fields {
	return &fields{values: req.GetFields()}
}

func (f *fields) fail(name, format string, args ...interface{}) {
	if f.err == nil {
		f.err = status.Errorf(codes.InvalidArgument, "%s: %s", name, fmt.Sprintf(format, args...))
	}
}

func (f *fields) has(name string) bool {
	v, ok := f.values[name]
	if !ok {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

// text reads a string, accepting numbers as their decimal representation
func (f *fields) text(name string) (string, bool) {
	if f.err != nil || !f.has(name) {
		return "", false
	}
	switch v := f.values[name].GetKind().(type) {
	case *structpb.Value_StringValue:
		return v.StringValue, true
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(v.NumberValue, 'f', -1, 64), true
	default:
		f.fail(name, "must be a string")
		return "", false
	}
}

func (f *fields) requiredString(name string) string {
	s, ok := f.text(name)
	if !ok && f.err == nil {
		f.fail(name, "is required")
	}
	return s
}

func (f *fields) optionalString(name string) *string {
	s, ok := f.text(name)
	if !ok {
		return nil
	}
	return &s
}

func (f *fields) requiredUUID(name string) uuid.UUID {
	s := f.requiredString(name)
	if f.err != nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		f.fail(name, "invalid uuid")
		return uuid.Nil
	}
	return id
}

func (f *fields) parseDecimal(name, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.fail(name, "invalid decimal %q", s)
		return decimal.Zero
	}
	return d
}

func (f *fields) requiredDecimal(name string) decimal.Decimal {
	s := f.requiredString(name)
	if f.err != nil {
		return decimal.Zero
	}
	return f.parseDecimal(name, s)
}

func (f *fields) optionalDecimal(name string) *decimal.Decimal {
	s, ok := f.text(name)
	if !ok {
		return nil
	}
	d := f.parseDecimal(name, s)
	if f.err != nil {
		return nil
	}
	return &d
}

func (f *fields) nullDecimal(name string) decimal.NullDecimal {
	d := f.optionalDecimal(name)
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// optionalTime parses an RFC3339 timestamp or a plain YYYY-MM-DD date
func (f *fields) optionalTime(name string) *time.Time {
	s, ok := f.text(name)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(time.DateOnly, s)
	}
	if err != nil {
		f.fail(name, "invalid timestamp %q", s)
		return nil
	}
	return &t
}

func (f *fields) requiredTime(name string) time.Time {
	t := f.optionalTime(name)
	if t == nil {
		if f.err == nil {
			f.fail(name, "is required")
		}
		return time.Time{}
	}
	return *t
}

func (f *fields) bool(name string) bool {
	if v := f.optionalBool(name); v != nil {
		return *v
	}
	return false
}

func (f *fields) optionalBool(name string) *bool {
	if f.err != nil || !f.has(name) {
		return nil
	}
	v, ok := f.values[name].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		f.fail(name, "must be a boolean")
		return nil
	}
	b := v.BoolValue
	return &b
}

// list returns the struct elements of a list field
func (f *fields) list(name string) []*structpb.Struct {
	if f.err != nil || !f.has(name) {
		return nil
	}
	lv, ok := f.values[name].GetKind().(*structpb.Value_ListValue)
	if !ok {
		f.fail(name, "must be a list")
		return nil
	}
	items := make([]*structpb.Struct, 0, len(lv.ListValue.GetValues()))
	for i, v := range lv.ListValue.GetValues() {
		sv, ok := v.GetKind().(*structpb.Value_StructValue)
		if !ok {
			f.fail(fmt.Sprintf("%s[%d]", name, i), "must be an object")
			return nil
		}
		items = append(items, sv.StructValue)
	}
	return items
}
