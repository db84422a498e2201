package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FeatureVector is one scoring request. Field order matches the order the
// classifier was trained on; see Vector.
type FeatureVector struct {
	Recency                        int     `json:"Recency"`
	Frequency                      int     `json:"Frequency"`
	Monetary                       float64 `json:"Monetary"`
	MeanAmount                     float64 `json:"MeanAmount"`
	StdAmount                      float64 `json:"StdAmount"`
	AvgTransactionHour             float64 `json:"AvgTransactionHour"`
	AvgTransactionDay              float64 `json:"AvgTransactionDay"`
	AvgTransactionMonth            float64 `json:"AvgTransactionMonth"`
	AvgTransactionYear             float64 `json:"AvgTransactionYear"`
	TransactionVolatilityBinnedWoE float64 `json:"TransactionVolatility_binned_WoE"`
	MonetaryAmountBinnedWoE        float64 `json:"MonetaryAmount_binned_WoE"`
	NetCashFlowBinnedWoE           float64 `json:"NetCashFlow_binned_WoE"`
	DebitCreditRatioBinnedWoE      float64 `json:"DebitCreditRatio_binned_WoE"`
	LogRegRiskProbability          float64 `json:"logreg_risk_probability"`
	RandomForestRiskProbability    float64 `json:"rf_risk_probability"`
}

// NumFeatures is the length of FeatureVector.Vector.
const NumFeatures = 15

// field binds a wire name to exactly one of an int or float64 destination.
type field struct {
	name string
	i    *int
	f    *float64
}

func (fv *FeatureVector) fields() []field {
	return []field{
		{name: "Recency", i: &fv.Recency},
		{name: "Frequency", i: &fv.Frequency},
		{name: "Monetary", f: &fv.Monetary},
		{name: "MeanAmount", f: &fv.MeanAmount},
		{name: "StdAmount", f: &fv.StdAmount},
		{name: "AvgTransactionHour", f: &fv.AvgTransactionHour},
		{name: "AvgTransactionDay", f: &fv.AvgTransactionDay},
		{name: "AvgTransactionMonth", f: &fv.AvgTransactionMonth},
		{name: "AvgTransactionYear", f: &fv.AvgTransactionYear},
		{name: "TransactionVolatility_binned_WoE", f: &fv.TransactionVolatilityBinnedWoE},
		{name: "MonetaryAmount_binned_WoE", f: &fv.MonetaryAmountBinnedWoE},
		{name: "NetCashFlow_binned_WoE", f: &fv.NetCashFlowBinnedWoE},
		{name: "DebitCreditRatio_binned_WoE", f: &fv.DebitCreditRatioBinnedWoE},
		{name: "logreg_risk_probability", f: &fv.LogRegRiskProbability},
		{name: "rf_risk_probability", f: &fv.RandomForestRiskProbability},
	}
}

// FieldNames returns the wire names in vector order.
func FieldNames() []string {
	var fv FeatureVector
	fs := fv.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

// Vector returns the fields as a fixed-order numeric slice.
func (fv FeatureVector) Vector() []float64 {
	fs := fv.fields()
	out := make([]float64, len(fs))
	for i, f := range fs {
		if f.i != nil {
			out[i] = float64(*f.i)
		} else {
			out[i] = *f.f
		}
	}
	return out
}

// Validation error types, as reported in FieldError.Type.
const (
	ErrTypeMissing     = "missing"
	ErrTypeInt         = "int_type"
	ErrTypeIntFraction = "int_from_float"
	ErrTypeIntOverflow = "int_parsing_size"
	ErrTypeFloat       = "float_type"
	ErrTypeObject      = "model_attributes_type"
	ErrTypeJSONInvalid = "json_invalid"
)

// FieldError describes one rejected input location.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError lists every problem found in a request body.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(fe.Loc, "."), fe.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UnmarshalJSON decodes a request object strictly. Unknown keys are ignored.
func (fv *FeatureVector) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return &ValidationError{Errors: []FieldError{{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: ErrTypeObject,
		}}}
	}

	var decoded FeatureVector
	var errs []FieldError
	for _, f := range decoded.fields() {
		v, ok := raw[f.name]
		if !ok {
			errs = append(errs, FieldError{
				Loc: []string{"body", f.name}, Msg: "Field required", Type: ErrTypeMissing,
			})
			continue
		}
		if fe := decodeNumber(f, v); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	*fv = decoded
	return nil
}

func decodeNumber(f field, v json.RawMessage) *FieldError {
	s := string(bytes.TrimSpace(v))
	num, isNum := parseNumber(s)

	if f.i != nil {
		if !isNum {
			return &FieldError{Loc: []string{"body", f.name}, Msg: "Input should be a valid integer", Type: ErrTypeInt}
		}
		if n, err := strconv.ParseInt(s, 10, 0); err == nil {
			*f.i = int(n)
			return nil
		}
		if num != math.Trunc(num) {
			return &FieldError{
				Loc:  []string{"body", f.name},
				Msg:  "Input should be a valid integer, got a number with a fractional part",
				Type: ErrTypeIntFraction,
			}
		}
		// float64(MaxInt64) rounds up to 2^63, hence >=.
		if num >= math.MaxInt64 || num < math.MinInt64 {
			return &FieldError{
				Loc:  []string{"body", f.name},
				Msg:  "Input integer is too large to be represented",
				Type: ErrTypeIntOverflow,
			}
		}
		*f.i = int(num)
		return nil
	}

	if !isNum {
		return &FieldError{Loc: []string{"body", f.name}, Msg: "Input should be a valid number", Type: ErrTypeFloat}
	}
	*f.f = num
	return nil
}

// parseNumber reports whether s is a finite JSON number literal.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	switch s[0] {
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Decode parses a request body into a FeatureVector. Every failure,
// including malformed JSON, is returned as a *ValidationError.
func Decode(data []byte) (FeatureVector, error) {
	var fv FeatureVector
	err := json.Unmarshal(data, &fv)
	if err == nil {
		return fv, nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FeatureVector{}, ve
	}
	return FeatureVector{}, &ValidationError{Errors: []FieldError{{
		Loc:  []string{"body"},
		Msg:  "JSON decode error: " + err.Error(),
		Type: ErrTypeJSONInvalid,
	}}}
}
