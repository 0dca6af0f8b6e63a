package geminiservice

import (
	"strings"
	"testing"
)

func TestExtractProductName(t *testing.T) {
	tests := []struct {
		name     string
		analysis string
		want     string
	}{
		{
			name:     "emoji section heading",
			analysis: "📦 NAMA PRODUK\nKrupuk Enak\n\n📊 INFORMASI NILAI GIZI\nEnergi 150 kkal",
			want:     "Krupuk Enak",
		},
		{
			name:     "heading with decorations around the name",
			analysis: "📦 NAMA PRODUK\n**Susu Kental Manis**\n\n📊 INFORMASI NILAI GIZI",
			want:     "Susu Kental Manis",
		},
		{
			name:     "inline label fallback",
			analysis: "Nama Produk: Teh Botol Sosro\nEnergi: 80 kkal",
			want:     "Teh Botol Sosro",
		},
		{
			name:     "heading wins over inline label",
			analysis: "📦 NAMA PRODUK\nIndomie Goreng\n\nCatatan: nama produk: sesuatu yang lain",
			want:     "Indomie Goreng",
		},
		{
			name:     "unidentified marker under heading",
			analysis: "📦 NAMA PRODUK\nTidak teridentifikasi\n\n📊 INFORMASI NILAI GIZI",
			want:     PlaceholderProductName,
		},
		{
			name:     "english unidentified marker",
			analysis: "Nama Produk: Not identified",
			want:     PlaceholderProductName,
		},
		{
			name:     "no recognizable heading",
			analysis: "Produk ini mengandung gula tinggi.",
			want:     PlaceholderProductName,
		},
		{
			name:     "single character name rejected",
			analysis: "📦 NAMA PRODUK\nX\n\n📊 INFORMASI NILAI GIZI",
			want:     PlaceholderProductName,
		},
		{
			name:     "overlong name rejected",
			analysis: "📦 NAMA PRODUK\n" + strings.Repeat("a", 51) + "\n\nlanjut",
			want:     PlaceholderProductName,
		},
		{
			name:     "fifty character name accepted",
			analysis: "📦 NAMA PRODUK\n" + strings.Repeat("b", 50) + "\n\nlanjut",
			want:     strings.Repeat("b", 50),
		},
		{
			name:     "empty text",
			analysis: "",
			want:     PlaceholderProductName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractProductName(tt.analysis)
			if got != tt.want {
				t.Errorf("ExtractProductName() = %q, want %q", got, tt.want)
			}
		})
	}
}
