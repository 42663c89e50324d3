package eligibility

import "testing"

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		metadata    map[string]string
		wantVerdict Verdict
		wantSniff   bool
		wantType    string
	}{
		{name: "Tagged wav", contentType: "audio/wav", metadata: map[string]string{"transcoded": "true"}, wantVerdict: AlreadyDone, wantType: "audio/wav"},
		{name: "Tagged text", contentType: "text/plain", metadata: map[string]string{"transcoded": "true"}, wantVerdict: AlreadyDone, wantType: "text/plain"},
		{name: "Tag other value", contentType: "audio/wav", metadata: map[string]string{"transcoded": "false"}, wantVerdict: Eligible, wantType: "audio/wav"},
		{name: "audio/mp4", contentType: "audio/mp4", wantVerdict: AlreadyDone, wantType: "audio/mp4"},
		{name: "audio/x-m4a", contentType: "audio/x-m4a", wantVerdict: AlreadyDone, wantType: "audio/x-m4a"},
		{name: "audio/mp4 with params", contentType: "Audio/MP4; codecs=mp4a.40.2", wantVerdict: AlreadyDone, wantType: "audio/mp4"},
		{name: "text/plain", contentType: "text/plain", wantVerdict: Unsupported, wantType: "text/plain"},
		{name: "image/jpeg", contentType: "image/jpeg", wantVerdict: Unsupported, wantType: "image/jpeg"},
		{name: "audio/wav", contentType: "audio/wav", wantVerdict: Eligible, wantType: "audio/wav"},
		{name: "video/mp4", contentType: "video/mp4", wantVerdict: Eligible, wantType: "video/mp4"},
		{name: "octet-stream", contentType: "application/octet-stream", wantVerdict: Eligible, wantSniff: true, wantType: "application/octet-stream"},
		{name: "Empty type", contentType: "", wantVerdict: Eligible, wantSniff: true, wantType: "application/octet-stream"},
		{name: "Nil metadata", contentType: "audio/flac", metadata: nil, wantVerdict: Eligible, wantType: "audio/flac"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Decide(tt.contentType, tt.metadata)
			if got.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %v, want %v", got.Verdict, tt.wantVerdict)
			}
			if got.NeedsSniff != tt.wantSniff {
				t.Errorf("NeedsSniff = %v, want %v", got.NeedsSniff, tt.wantSniff)
			}
			if got.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", got.ContentType, tt.wantType)
			}
			if got.Verdict != Eligible && got.Reason == "" {
				t.Error("non-eligible decision has no reason")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sniffed     string
		wantVerdict Verdict
	}{
		{"audio/wav", Eligible},
		{"audio/mpeg", Eligible},
		{"video/webm", Eligible},
		{"audio/mp4", AlreadyDone},
		{"audio/x-m4a", AlreadyDone},
		{"text/plain", Unsupported},
		{"text/plain; charset=utf-8", Unsupported},
		{"application/octet-stream", Unsupported},
		{"", Unsupported},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.sniffed, func(t *testing.T) {
			t.Parallel()

			if got := Resolve(tt.sniffed); got.Verdict != tt.wantVerdict {
				t.Errorf("Resolve(%q) = %v, want %v", tt.sniffed, got.Verdict, tt.wantVerdict)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	t.Parallel()

	tests := map[Verdict]string{
		Eligible:    "eligible",
		AlreadyDone: "already_done",
		Unsupported: "unsupported",
		Verdict(9):  "verdict(9)",
	}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("Verdict(%d).String() = %q, want %q", int(v), got, want)
		}
	}
}
