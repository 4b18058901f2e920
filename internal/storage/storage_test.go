package storage

import "testing"

func TestDownloadURL_EscapesKey(t *testing.T) {
	got := DownloadURL("shelf.appspot.com", "profiles/alice_1700000000000.png", "tok")
	want := "https://firebasestorage.googleapis.com/v0/b/shelf.appspot.com/o/profiles%2Falice_1700000000000.png?alt=media&token=tok"
	if got != want {
		t.Errorf("DownloadURL = %q, want %q", got, want)
	}
}
