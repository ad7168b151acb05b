package handlers

// Advisory banner messages keyed by message id and locale. English is the
// fallback for locales with no entry.
var advisoryMessages = map[string]map[string]string{
	"credential_reselect": {
		"en": "Your API credential was rejected. Please select a credential again.",
		"id": "Kredensial API Anda ditolak. Silakan pilih kredensial lagi.",
	},
	"all_failed": {
		"en": "Generation failed for every item. Please adjust the prompt or try again.",
		"id": "Semua item gagal dibuat. Silakan ubah prompt atau coba lagi.",
	},
	"no_video": {
		"en": "The video job finished without producing a video. Please try again.",
		"id": "Proses video selesai tanpa menghasilkan video. Silakan coba lagi.",
	},
}

func advisory(id, locale string) string {
	byLocale, ok := advisoryMessages[id]
	if !ok {
		return ""
	}
	if msg, ok := byLocale[locale]; ok {
		return msg
	}
	return byLocale["en"]
}
