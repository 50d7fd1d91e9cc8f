package telegrambot

import "fmt"

// Языки интерфейса
const (
	LangEnglish = "en"
	LangHausa   = "ha"
)

// Тексты на английском и хауса. Ключи совпадают между языками,
// при отсутствии перевода используется английский.
var messages = map[string]map[string]string{
	LangEnglish: {
		"choose_lang":    "Welcome to %s!\nZaɓi harshe / Choose your language:",
		"ask_email":      "Please enter your registered email address:",
		"ask_phone":      "Now enter your registered phone number:",
		"not_found":      "No record matches that email and phone. Please check your details and enter your email again, or contact support: %s",
		"verified":       "✅ You are verified, %s. Your session is valid for 24 hours.",
		"menu_title":     "What would you like to do?",
		"btn_view":       "📋 My details",
		"btn_edit":       "✏️ Edit a field",
		"btn_wallet":     "💰 Wallet",
		"btn_polls":      "🗳 Polls",
		"btn_support":    "☎️ Support",
		"btn_logout":     "🚪 Logout",
		"record_header":  "Your details:",
		"choose_field":   "Which field would you like to edit?",
		"enter_value":    "Send the new value for %s:",
		"updated":        "✅ %s updated.\nOld: %s\nNew: %s",
		"window_closed":  "Editing is closed right now. You will be notified when the edit window opens.",
		"window_open":    "✏️ The edit window is open for %d days. You can now update your details.",
		"days_left":      "You have %d day(s) left to edit your details.",
		"immutable":      "That field cannot be changed. Contact support: %s",
		"read_only":      "The roster is in read-only mode. Please try again later.",
		"not_verified":   "Please verify first with /start.",
		"wallet_balance": "💰 Your wallet balance: %.2f",
		"no_polls":       "There are no open polls at the moment.",
		"poll_closed":    "This poll is already closed.",
		"already_voted":  "You have already voted in this poll.",
		"vote_recorded":  "✅ Your vote has been recorded.",
		"new_poll":       "🗳 New poll: %s\nTap an option to vote.",
		"support_text":   "For help, contact %s or scan the code below.",
		"logged_out":     "You have been logged out. Use /start to verify again.",
		"error_generic":  "Something went wrong. Please try again later.",
	},
	LangHausa: {
		"choose_lang":    "Barka da zuwa %s!\nZaɓi harshe / Choose your language:",
		"ask_email":      "Da fatan za a shigar da adireshin imel da aka yi rajista da shi:",
		"ask_phone":      "Yanzu shigar da lambar wayar da aka yi rajista da ita:",
		"not_found":      "Babu bayanan da suka dace da wannan imel da waya. Da fatan za a duba bayananku a sake shigar da imel, ko tuntuɓi tawagar tallafi: %s",
		"verified":       "✅ An tabbatar da kai, %s. Zaman ka yana aiki na awa 24.",
		"menu_title":     "Me kake son yi?",
		"btn_view":       "📋 Bayanaina",
		"btn_edit":       "✏️ Gyara filin",
		"btn_wallet":     "💰 Walat",
		"btn_polls":      "🗳 Zaɓe",
		"btn_support":    "☎️ Tallafi",
		"btn_logout":     "🚪 Fita",
		"record_header":  "Bayananka:",
		"choose_field":   "Wane fili kake son gyarawa?",
		"enter_value":    "Aika sabon ƙima don %s:",
		"updated":        "✅ An sabunta %s.\nTsohon: %s\nSabon: %s",
		"window_closed":  "An rufe gyara a yanzu. Za a sanar da kai idan an buɗe lokacin gyara.",
		"window_open":    "✏️ An buɗe lokacin gyara na kwanaki %d. Yanzu za ka iya sabunta bayananka.",
		"days_left":      "Kwana %d ya rage maka don gyara bayananka.",
		"immutable":      "Ba za a iya canza wannan filin ba. Tuntuɓi tallafi: %s",
		"read_only":      "Ana karanta jerin kawai a yanzu. Da fatan za a sake gwadawa daga baya.",
		"not_verified":   "Da fatan za a fara tabbatarwa da /start.",
		"wallet_balance": "💰 Ragowar walat ɗinka: %.2f",
		"no_polls":       "Babu zaɓen da ke buɗe a halin yanzu.",
		"poll_closed":    "An riga an rufe wannan zaɓen.",
		"already_voted":  "Ka riga ka kada kuri'a a wannan zaɓen.",
		"vote_recorded":  "✅ An rubuta kuri'arka.",
		"new_poll":       "🗳 Sabon zaɓe: %s\nDanna zaɓi don kada kuri'a.",
		"support_text":   "Don taimako, tuntuɓi %s ko duba lambar da ke ƙasa.",
		"logged_out":     "An fitar da kai. Yi amfani da /start don sake tabbatarwa.",
		"error_generic":  "Wani abu ya ɓace. Da fatan za a sake gwadawa daga baya.",
	},
}

// tr возвращает перевод ключа для языка, с запасным английским вариантом.
func tr(lang, key string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := messages[LangEnglish][key]; ok {
		return s
	}
	return key
}

// trf возвращает перевод с подстановкой аргументов.
func trf(lang, key string, args ...any) string {
	return fmt.Sprintf(tr(lang, key), args...)
}
