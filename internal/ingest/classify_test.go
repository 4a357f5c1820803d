package ingest

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		rec      RawRecord
		wantKind EntityKind
		wantOK   bool
	}{
		{
			name:     "customer",
			rec:      RawRecord{"customer_id": "C1", "email": "a@b.co", "name": "Alice"},
			wantKind: KindCustomer,
			wantOK:   true,
		},
		{
			name:     "customer with nil email cell",
			rec:      RawRecord{"customer_id": "C1", "email": nil},
			wantKind: KindCustomer,
			wantOK:   true,
		},
		{
			name:     "product",
			rec:      RawRecord{"product_id": "P1", "price": 9.99},
			wantKind: KindProduct,
			wantOK:   true,
		},
		{
			name:     "order",
			rec:      RawRecord{"order_id": "O1", "customer_id": "C1", "order_date": "2024-01-01"},
			wantKind: KindOrder,
			wantOK:   true,
		},
		{
			name:     "order item",
			rec:      RawRecord{"order_id": "O1", "product_id": "P1", "quantity": 2.0},
			wantKind: KindOrderItem,
			wantOK:   true,
		},
		{
			name: "order item wins over order",
			rec: RawRecord{
				"order_id": "O1", "product_id": "P1", "quantity": 1.0,
				"customer_id": "C1", "order_date": "2024-01-01",
			},
			wantKind: KindOrderItem,
			wantOK:   true,
		},
		{
			name:   "customer keys plus order_id matches nothing",
			rec:    RawRecord{"customer_id": "C1", "email": "a@b.co", "order_id": "O1"},
			wantOK: false,
		},
		{
			name:   "product without price matches nothing",
			rec:    RawRecord{"product_id": "P1", "name": "Widget"},
			wantOK: false,
		},
		{
			name:   "unrelated fields",
			rec:    RawRecord{"foo": "bar"},
			wantOK: false,
		},
		{
			name:   "empty record",
			rec:    RawRecord{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Classify(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}
