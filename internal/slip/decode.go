package slip

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/slipcalc"
	"ricemill-backend/internal/timeutil"

	"github.com/go-viper/mapstructure/v2"
)

// Keys a client can never write.
var immutableKeys = []string{"id", "bill_no", "created_at", "updated_at", "total_paid_amount", "balance_amount"}

var timeKeys = func() []string {
	keys := []string{"date", "payment_due_date"}
	for n := 1; n <= slipcalc.InstalmentCount; n++ {
		keys = append(keys, slipcalc.InstalmentKey(n, "date"))
	}
	return keys
}()

func stripImmutable(f slipcalc.Fields) slipcalc.Fields {
	out := make(slipcalc.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	for _, k := range immutableKeys {
		delete(out, k)
	}
	return out
}

// parseTimes replaces date strings with IST times and drops blank ones.
func parseTimes(f slipcalc.Fields) error {
	for _, k := range timeKeys {
		v, ok := f[k]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			if v == nil {
				delete(f, k)
			}
			continue
		}
		if strings.TrimSpace(s) == "" {
			delete(f, k)
			continue
		}
		t, err := timeutil.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: %s %q", ErrInvalidPayload, k, s)
		}
		f[k] = t
	}
	return nil
}

// numbers may arrive as strings, blanks or nulls from the form
func floatHook(from reflect.Kind, to reflect.Kind, data any) (any, error) {
	if to == reflect.Float64 || to == reflect.Float32 {
		return slipcalc.Float(data, 0), nil
	}
	return data, nil
}

// decodeFields maps a computed record onto a slip.
func decodeFields(f slipcalc.Fields) (*models.PurchaseSlip, error) {
	f = stripNil(f)
	if err := parseTimes(f); err != nil {
		return nil, err
	}

	var out models.PurchaseSlip
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncKind(floatHook),
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(f)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &out, nil
}

func stripNil(f slipcalc.Fields) slipcalc.Fields {
	out := make(slipcalc.Fields, len(f))
	for k, v := range f {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// toFields flattens a stored slip back into the loose record the calculator
// works on.
func toFields(s *models.PurchaseSlip) (slipcalc.Fields, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var f slipcalc.Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f, nil
}
