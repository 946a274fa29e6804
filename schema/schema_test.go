package schema

import (
	"reflect"
	"testing"
)

func TestExtractEmptyValueReportsAllRequiredFields(t *testing.T) {
	res := Extract(map[string]any{}, RFQ())

	want := []string{
		"missing required field 'rfq_id'",
		"missing required field 'customer_name'",
		"missing required field 'items'",
	}
	if !reflect.DeepEqual(res.Anomalies, want) {
		t.Fatalf("anomalies = %v, want %v", res.Anomalies, want)
	}
	if len(res.Extracted) != 0 {
		t.Fatalf("expected empty extraction, got %v", res.Extracted)
	}
}

func TestExtractWellFormedRFQHasNoAnomalies(t *testing.T) {
	value := map[string]any{
		"rfq_id":        "R1",
		"customer_name": "Acme",
		"items": []any{
			map[string]any{"product_id": "P1", "quantity": float64(5)},
		},
	}

	res := Extract(value, RFQ())
	if len(res.Anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", res.Anomalies)
	}

	want := map[string]any{
		"rfq_id":        "R1",
		"customer_name": "Acme",
		"items": []any{
			map[string]any{"product_id": "P1", "quantity": float64(5)},
		},
	}
	if !reflect.DeepEqual(res.Extracted, want) {
		t.Fatalf("extracted = %v, want %v", res.Extracted, want)
	}
}

func TestExtractKindMismatchIsNonFatal(t *testing.T) {
	fields := []Field{
		{Name: "quantity", Kind: KindInteger, Required: true},
	}
	res := Extract(map[string]any{"quantity": "five"}, fields)

	if len(res.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", res.Anomalies)
	}
	if res.Anomalies[0] != "field 'quantity' expected integer, got string" {
		t.Errorf("unexpected anomaly: %q", res.Anomalies[0])
	}
	// The mismatched value is still copied through.
	if res.Extracted["quantity"] != "five" {
		t.Errorf("mismatched value not copied: %v", res.Extracted)
	}
}

func TestExtractListItemAnomaliesCarryIndex(t *testing.T) {
	value := map[string]any{
		"rfq_id":        "R2",
		"customer_name": "Initech",
		"items": []any{
			map[string]any{"product_id": "P1", "quantity": float64(2)},
			map[string]any{"quantity": "many"},
			"not-a-dict",
		},
	}

	res := Extract(value, RFQ())

	want := []string{
		"item 1 in list 'items': missing required field 'product_id'",
		"item 1 in list 'items': field 'quantity' expected integer, got string",
		"item 2 in list 'items' is not a dict",
	}
	if !reflect.DeepEqual(res.Anomalies, want) {
		t.Fatalf("anomalies = %v, want %v", res.Anomalies, want)
	}

	items := res.Extracted["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("expected 3 items copied through, got %d", len(items))
	}
	if items[2] != "not-a-dict" {
		t.Errorf("non-dict item should be copied as-is, got %v", items[2])
	}
}

func TestExtractUnexpectedFieldsReported(t *testing.T) {
	value := map[string]any{
		"rfq_id":        "R3",
		"customer_name": "Hooli",
		"items":         []any{},
		"zebra":         true,
		"alpha":         1,
	}

	res := Extract(value, RFQ())

	want := []string{
		"unexpected field 'alpha'",
		"unexpected field 'zebra'",
	}
	if !reflect.DeepEqual(res.Anomalies, want) {
		t.Fatalf("anomalies = %v, want %v", res.Anomalies, want)
	}
	if _, ok := res.Extracted["zebra"]; ok {
		t.Error("undeclared fields must not appear in extraction")
	}
}

func TestExtractNestedStructRecurses(t *testing.T) {
	value := map[string]any{
		"rfq_id":        "R4",
		"customer_name": "Globex",
		"items":         []any{},
		"shipping_address": map[string]any{
			"street": "1 Main St",
			"city":   42,
		},
	}

	res := Extract(value, RFQ())

	want := []string{
		"field 'shipping_address': field 'city' expected string, got integer",
	}
	if !reflect.DeepEqual(res.Anomalies, want) {
		t.Fatalf("anomalies = %v, want %v", res.Anomalies, want)
	}

	addr := res.Extracted["shipping_address"].(map[string]any)
	if addr["street"] != "1 Main St" || addr["city"] != 42 {
		t.Errorf("nested extraction wrong: %v", addr)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("RFQ"); ok {
		t.Fatal("empty registry should miss")
	}
	r.Register("RFQ", RFQ())
	fields, ok := r.Lookup("RFQ")
	if !ok || len(fields) == 0 {
		t.Fatal("registered schema not found")
	}
}
