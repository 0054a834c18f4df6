package discount

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/diegoholiveira/jsonlogic/v3"
)

// EvaluateRule applies a JSONLogic rule to data and reports whether the
// result is truthy.
func EvaluateRule(rule json.RawMessage, data any) (bool, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("encode rule data: %w", err)
	}
	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(rule), bytes.NewReader(payload), &out); err != nil {
		return false, fmt.Errorf("apply rule: %w", err)
	}
	raw := bytes.TrimSpace(out.Bytes())
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, fmt.Errorf("decode rule result: %w", err)
	}
	return truthy(result), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return true
	default:
		return false
	}
}

// ruleData is the document exposed to rules: {"cart": {...}, "code": {...}}.
func ruleData(c Code, cart Cart) map[string]any {
	items := make([]map[string]any, 0, len(cart.Items))
	for _, it := range cart.Items {
		item := map[string]any{"quantity": it.Quantity, "subtotal": it.Subtotal}
		if it.ProductID != nil {
			item["product_id"] = it.ProductID.String()
		}
		if it.CategoryID != nil {
			item["category_id"] = it.CategoryID.String()
		}
		items = append(items, item)
	}
	var qty int
	for _, it := range cart.Items {
		qty += it.Quantity
	}
	return map[string]any{
		"cart": map[string]any{
			"total":    cart.Total,
			"country":  cart.CountryCode,
			"quantity": qty,
			"items":    items,
		},
		"code": map[string]any{
			"code":       c.Code,
			"type":       string(c.Type),
			"used_count": c.UsedCount,
		},
	}
}
