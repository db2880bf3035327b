package core

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ürün Adı", "urun adi"},
		{"  Ürün   Adı ", "urun adi"},
		{"URUN ADI", "urun adi"},
		{"İSİM", "isim"},
		{"Başlık", "baslik"},
		{"Açıklama", "aciklama"},
		{"Görsel", "gorsel"},
		{"Ölçü", "olcu"},
		{"Kırtasiye", "kirtasiye"},
		{"Café", "cafe"},
		{"Sale\tPrice", "sale price"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Fold(tt.input); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFold_Idempotent(t *testing.T) {
	for _, s := range []string{"Ürün Adı", "İSİM", "Satış Fiyatı", "plain"} {
		once := Fold(s)
		if twice := Fold(once); twice != once {
			t.Errorf("Fold(Fold(%q)) = %q, want %q", s, twice, once)
		}
	}
}
