package schema

import "sync"

// Registry maps intent labels to their extraction schemas. Intents without a
// registered schema are handled by the extractor as passthrough.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string][]Field
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string][]Field)}
}

// Register associates fields with an intent, replacing any previous schema.
func (r *Registry) Register(intent string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[intent] = fields
}

// Lookup returns the schema for an intent.
func (r *Registry) Lookup(intent string) ([]Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fields, ok := r.schemas[intent]
	return fields, ok
}

// RFQ returns the built-in request-for-quote schema: required identifier,
// customer and item list, optional contact and shipping details.
func RFQ() []Field {
	return []Field{
		{Name: "rfq_id", Kind: KindString, Required: true},
		{Name: "customer_name", Kind: KindString, Required: true},
		{Name: "items", Kind: KindList, Required: true, Item: &Field{
			Kind: KindStruct,
			Fields: []Field{
				{Name: "product_id", Kind: KindString, Required: true},
				{Name: "quantity", Kind: KindInteger, Required: true},
				{Name: "description", Kind: KindString},
			},
		}},
		{Name: "due_date", Kind: KindString},
		{Name: "contact_email", Kind: KindString},
		{Name: "shipping_address", Kind: KindStruct, Fields: []Field{
			{Name: "street", Kind: KindString},
			{Name: "city", Kind: KindString},
			{Name: "state", Kind: KindString},
			{Name: "zip", Kind: KindString},
		}},
		{Name: "notes", Kind: KindString},
	}
}
