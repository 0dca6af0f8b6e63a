package geminiservice

import "fmt"

/* =================================================================================
						ANALYSIS PROMPT TEMPLATES
	Both variants demand the same fixed section order. Downstream parsing
	(product-name extraction, list previews) anchors on these headings, so the
	ordering contract here must not drift.
=================================================================================*/

// analysisSectionContract is the structural half of every analysis prompt.
const analysisSectionContract = `Susun jawaban PERSIS dengan urutan bagian berikut, gunakan judul bagian apa adanya:

📦 NAMA PRODUK
(nama produk pada label, atau "Tidak teridentifikasi" jika tidak terbaca)

📊 INFORMASI NILAI GIZI
(tabel ringkas: energi, lemak, lemak jenuh, protein, karbohidrat, gula, garam/natrium per sajian)

🔍 ANALISIS KANDUNGAN
(penjelasan kandungan utama dan bahan tambahan yang perlu diperhatikan)

⚠️ PERINGATAN
(hal yang perlu diwaspadai dari produk ini)

✅ REKOMENDASI
(saran konsumsi: porsi, frekuensi, alternatif yang lebih sehat)

💡 TIPS KONSUMSI
(tips praktis saat mengonsumsi produk ini)

⭐ KESIMPULAN
(ringkasan singkat dan rating kesehatan produk 1-5 bintang)`

const analysisPersonalizedTemplate = `Kamu adalah asisten gizi. Analisis label nutrisi pada foto berikut untuk pengguna dengan profil kesehatan ini:

%s

Aturan personalisasi:
- Sesuaikan seluruh analisis, peringatan, dan rekomendasi dengan profil di atas.
- HANYA berikan komentar untuk kondisi, alergi, dan preferensi yang tercantum pada profil. JANGAN menambahkan atau mengarang kondisi kesehatan lain.
- Gunakan bahasa Indonesia yang mudah dipahami.

%s`

const analysisGenericTemplate = `Kamu adalah asisten gizi. Analisis label nutrisi pada foto berikut untuk masyarakat umum.

Aturan:
- Berikan panduan gizi umum yang berlaku untuk orang sehat.
- Gunakan bahasa Indonesia yang mudah dipahami.

%s

Tutup jawaban dengan ajakan singkat agar pengguna melengkapi profil kesehatan untuk mendapatkan analisis yang lebih personal.`

// AnalysisInstruction selects the personalized or generic instruction text.
// The choice depends only on whether the profile summary is empty.
func AnalysisInstruction(profile HealthProfileSummary) string {
	if profile.IsEmpty() {
		return fmt.Sprintf(analysisGenericTemplate, analysisSectionContract)
	}
	return fmt.Sprintf(analysisPersonalizedTemplate, profile.Text(), analysisSectionContract)
}

/* =================================================================================
						CHAT PROMPT TEMPLATES
=================================================================================*/

// RefusalTemplate is the exact sentence the model must use for questions
// outside the nutrition scope.
const RefusalTemplate = "Maaf, saya hanya bisa membantu pertanyaan seputar nutrisi, gizi, dan pola makan terkait produk yang sudah dianalisis."

const chatSystemTemplate = `Kamu adalah asisten gizi yang sedang berdiskusi dengan pengguna tentang satu produk yang sudah dianalisis.

PROFIL KESEHATAN PENGGUNA:
%s

HASIL ANALISIS PRODUK:
%s

Aturan percakapan:
- Jawab hanya pertanyaan seputar nutrisi, gizi, diet, dan produk di atas.
- Jika pertanyaan di luar topik tersebut, jawab persis dengan kalimat: "%s"
- Jawab singkat, jelas, dan dalam bahasa Indonesia.`

const chatProfileAbsenceNotice = "(pengguna belum mengisi profil kesehatan, berikan jawaban untuk masyarakat umum)"

// chatSystemAck is the canned model acknowledgment that closes the synthetic
// opening pair.
const chatSystemAck = "Baik, saya siap membantu pertanyaan seputar nutrisi dan produk yang sudah dianalisis."

// ChatSystemInstruction renders the opening system message for a chat prompt
// from the conversation's fixed profile snapshot and analysis text.
func ChatSystemInstruction(convo *ConversationContext) string {
	profileText := convo.Profile().Text()
	if convo.Profile().IsEmpty() {
		profileText = chatProfileAbsenceNotice
	}
	return fmt.Sprintf(chatSystemTemplate, profileText, convo.Analysis(), RefusalTemplate)
}
