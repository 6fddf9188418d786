package i18n

// translations maps alert key -> language code -> format string.
// Supported languages: en (English), af (Afrikaans), zu (isiZulu).
var translations = map[string]map[string]string{

	// ─── Suspicious activity ────────────────────────────────────────────────
	"alert.suspicious_activity.title": {
		"en": "FraudShield Alert",
		"af": "FraudShield Waarskuwing",
		"zu": "Isexwayiso se-FraudShield",
	},
	// %s = severity, %s = alert title, %s = alert message
	"alert.suspicious_activity.body": {
		"en": "[%s] %s: %s",
		"af": "[%s] %s: %s",
		"zu": "[%s] %s: %s",
	},
	"alert.footer": {
		"en": "This is an automated alert from FraudShield.",
		"af": "Hierdie is 'n outomatiese waarskuwing van FraudShield.",
		"zu": "Lesi yisexwayiso esizenzakalelayo esivela ku-FraudShield.",
	},

	// ─── High risk entity (raised when a badge becomes flagged) ─────────────
	"alert.high_risk_entity.title": {
		"en": "High risk contact flagged",
		"af": "Hoë-risiko kontak gemerk",
		"zu": "Oxhumana naye onobungozi obukhulu umakiwe",
	},
	// %s = entity type, %s = entity id, %d = report count
	"alert.high_risk_entity.body": {
		"en": "The %s %s has been flagged by the community after %d fraud report(s). Do not pay or share documents.",
		"af": "Die %s %s is deur die gemeenskap gemerk na %d bedrogverslag(e). Moenie betaal of dokumente deel nie.",
		"zu": "I-%s %s imakwe ngumphakathi ngemuva kwemibiko yokukhwabanisa engu-%d. Ungakhokhi noma wabelane ngemibhalo.",
	},

	// ─── Payment verification ───────────────────────────────────────────────
	"alert.payment_unverified.title": {
		"en": "Payment could not be verified",
		"af": "Betaling kon nie geverifieer word nie",
		"zu": "Inkokhelo ayikwazanga ukuqinisekiswa",
	},
	// %s = formatted amount, %s = reference
	"alert.payment_unverified.body": {
		"en": "No provider confirmed the payment of %s with reference %s. Do not release goods yet.",
		"af": "Geen verskaffer het die betaling van %s met verwysing %s bevestig nie. Moenie goedere nou vrystel nie.",
		"zu": "Akekho umhlinzeki oqinisekise inkokhelo ka-%s enereferensi %s. Ungazikhiphi izimpahla okwamanje.",
	},

	// ─── Severity labels ────────────────────────────────────────────────────
	"severity.low": {
		"en": "LOW",
		"af": "LAAG",
		"zu": "OKUPHANSI",
	},
	"severity.medium": {
		"en": "MEDIUM",
		"af": "MEDIUM",
		"zu": "OKUPHAKATHI",
	},
	"severity.high": {
		"en": "HIGH",
		"af": "HOOG",
		"zu": "OKUPHEZULU",
	},
	"severity.critical": {
		"en": "CRITICAL",
		"af": "KRITIEK",
		"zu": "OKUBUCAYI",
	},
}
