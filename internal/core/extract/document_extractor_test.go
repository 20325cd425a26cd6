package extract

import "testing"

func TestPageCountRejectsNonPDF(t *testing.T) {
	if _, err := PageCount([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected an error for non-PDF input")
	}
}
