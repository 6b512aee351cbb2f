package export

import "testing"

func TestSanitizeCaseRef(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-CR-0042", "2025-CR-0042"},
		{"State v. Smith", "State_v_Smith"},
		{"café/éclair", "cafe_eclair"},
		{"  spaced  out  ", "spaced_out"},
		{"///", "UNSPECIFIED"},
		{"", "UNSPECIFIED"},
	}
	for _, tc := range cases {
		if got := sanitizeCaseRef(tc.in); got != tc.want {
			t.Errorf("sanitizeCaseRef(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		bytes int64
		want  SizeTier
	}{
		{0, TierSmall},
		{100 << 20, TierSmall},
		{100<<20 + 1, TierMedium},
		{1 << 30, TierMedium},
		{1<<30 + 1, TierLarge},
	}
	for _, tc := range cases {
		if got := TierFor(tc.bytes); got != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.bytes, got, tc.want)
		}
	}
}
