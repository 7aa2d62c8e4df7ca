package warehouse

import "testing"

func TestKeySetsValid(t *testing.T) {
	ks := &KeySets{
		Customers: map[int64]struct{}{1: {}, 2: {}},
		Products:  map[int64]struct{}{10: {}},
		Dates:     map[int64]struct{}{100: {}},
	}

	tests := []struct {
		name string
		line OrderLine
		want bool
	}{
		{
			name: "all keys present",
			line: OrderLine{CustomerKey: 1, ProductKey: 10, DateKey: 100},
			want: true,
		},
		{
			name: "missing customer",
			line: OrderLine{CustomerKey: 99, ProductKey: 10, DateKey: 100},
			want: false,
		},
		{
			name: "missing product",
			line: OrderLine{CustomerKey: 2, ProductKey: 99, DateKey: 100},
			want: false,
		},
		{
			name: "missing date",
			line: OrderLine{CustomerKey: 1, ProductKey: 10, DateKey: 99},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ks.Valid(tt.line); got != tt.want {
				t.Errorf("Valid = %v, want %v", got, tt.want)
			}
		})
	}
}
