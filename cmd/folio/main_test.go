package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRewriteDirectNodeLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"folio"},
			want: []string{"folio"},
		},
		{
			name: "direct path first token",
			in:   []string{"folio", "1.2"},
			want: []string{"folio", "show", "1.2"},
		},
		{
			name: "direct path after value flag",
			in:   []string{"folio", "--dir", "./tmp-test-ws", "2"},
			want: []string{"folio", "--dir", "./tmp-test-ws", "show", "2"},
		},
		{
			name: "direct path after equals flag",
			in:   []string{"folio", "--dir=./tmp-test-ws", "1.1.1"},
			want: []string{"folio", "--dir=./tmp-test-ws", "show", "1.1.1"},
		},
		{
			name: "direct path after bool flag",
			in:   []string{"folio", "--pretty", "1"},
			want: []string{"folio", "--pretty", "show", "1"},
		},
		{
			name: "direct path after double dash",
			in:   []string{"folio", "--dir", "./ws", "--", "3.1"},
			want: []string{"folio", "--dir", "./ws", "--", "show", "3.1"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"folio", "read", "1.2"},
			want: []string{"folio", "read", "1.2"},
		},
		{
			name: "malformed path not rewritten",
			in:   []string{"folio", "1..2"},
			want: []string{"folio", "1..2"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"folio", "wat"},
			want: []string{"folio", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectNodeLookupArgs(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("rewriteDirectNodeLookupArgs (-want +got):\n%s", diff)
			}
		})
	}
}
