package analysis

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/iwvelando/property-analyzer/pkg/money"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

var (
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
	float64Type     = reflect.TypeOf(float64(0))
)

// DecodeHook converts loosely typed input (money strings such as
// "$1,234.56", bare numbers, "8%" percentages) into the record's field types.
// It is shared by the viper config loader and the HTTP decoder.
func DecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		switch to {
		case decimalType:
			return toDecimal(data)
		case nullDecimalType:
			if s, ok := data.(string); ok && strings.TrimSpace(s) == "" {
				return decimal.NullDecimal{}, nil
			}
			d, err := toDecimal(data)
			if err != nil {
				return nil, err
			}
			if dec, ok := d.(decimal.Decimal); ok {
				return decimal.NewNullDecimal(dec), nil
			}
			return d, nil
		case float64Type:
			if s, ok := data.(string); ok {
				return parsePercent(s)
			}
		}
		return data, nil
	}
}

func toDecimal(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return money.Parse(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	}
	return data, nil
}

func parsePercent(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "%")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}

// Decode builds a Record from a generic map such as a decoded JSON body or a
// YAML document.
func Decode(input interface{}) (Record, error) {
	var rec Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return Record{}, err
	}
	if err := decoder.Decode(input); err != nil {
		return Record{}, fmt.Errorf("decoding analysis record: %w", err)
	}
	return rec, nil
}
