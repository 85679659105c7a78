package buffer

import "testing"

func TestReserveFillAt(t *testing.T) {
	b := New(8)
	b.WriteString("head:")
	off := b.Reserve(4)
	b.WriteString(":tail")
	b.FillAt(off, []byte("1234"))

	got := string(b.Bytes())
	want := "head:1234:tail"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSHA1Hex(t *testing.T) {
	got := SHA1Hex(nil)
	want := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	if got != want {
		t.Fatalf("sha1 of empty input: got %q want %q", got, want)
	}
}

func TestGenesisIDLength(t *testing.T) {
	if len(GenesisID) != 40 {
		t.Fatalf("genesis id length = %d, want 40", len(GenesisID))
	}
}
