package utils

import "testing"

func TestEscape(t *testing.T) {
	got := Escape(`<b>"Fajr" & 'Isha'</b>`)
	want := "&lt;b&gt;&#34;Fajr&#34; &amp; &#39;Isha&#39;&lt;/b&gt;"
	if got != want {
		t.Fatalf("Escape() = %q, want %q", got, want)
	}
}

func TestEmbedGUID(t *testing.T) {
	got := EmbedGUID("abc123")
	want := "\n(<code>abc123</code>)"
	if got != want {
		t.Fatalf("EmbedGUID() = %q, want %q", got, want)
	}
}
