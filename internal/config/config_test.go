package config

import (
	"reflect"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"multiple", "a:1,b:2,c:3", []string{"a:1", "b:2", "c:3"}},
		{"trailing comma", "a:1,b:2,", []string{"a:1", "b:2"}},
		{"empty", "", []string{""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitCSV(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("splitCSV(%q) = %#v, want %#v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestHealthPortOffsetsFromGRPCPort(t *testing.T) {
	p := Pipeline{GRPCPort: "50051"}
	if got := p.HealthPort(); got != "50052" {
		t.Fatalf("HealthPort() = %q, want %q", got, "50052")
	}
}

func TestHealthPortFallsBackOnMalformedGRPCPort(t *testing.T) {
	p := Pipeline{GRPCPort: "not-a-port"}
	if got := p.HealthPort(); got != "8081" {
		t.Fatalf("HealthPort() = %q, want %q", got, "8081")
	}
}
