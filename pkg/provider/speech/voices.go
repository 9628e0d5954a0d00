package speech

import "fmt"

// voices maps locale then gender to the service voice font name. The table
// mirrors the service catalogue for the synthesis endpoint.
var voices = map[string]map[string]string{
	"de-DE": {
		"Female": "Microsoft Server Speech Text to Speech Voice (de-DE, Hedda)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (de-DE, Stefan, Apollo)",
	},
	"en-AU": {
		"Female": "Microsoft Server Speech Text to Speech Voice (en-AU, Catherine)",
	},
	"en-CA": {
		"Female": "Microsoft Server Speech Text to Speech Voice (en-CA, Linda)",
	},
	"en-GB": {
		"Female": "Microsoft Server Speech Text to Speech Voice (en-GB, Susan, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (en-GB, George, Apollo)",
	},
	"en-IN": {
		"Male": "Microsoft Server Speech Text to Speech Voice (en-IN, Ravi, Apollo)",
	},
	"en-US": {
		"Female": "Microsoft Server Speech Text to Speech Voice (en-US, ZiraRUS)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (en-US, BenjaminRUS)",
	},
	"es-ES": {
		"Female": "Microsoft Server Speech Text to Speech Voice (es-ES, Laura, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (es-ES, Pablo, Apollo)",
	},
	"es-MX": {
		"Male": "Microsoft Server Speech Text to Speech Voice (es-MX, Raul, Apollo)",
	},
	"fr-CA": {
		"Female": "Microsoft Server Speech Text to Speech Voice (fr-CA, Caroline)",
	},
	"fr-FR": {
		"Female": "Microsoft Server Speech Text to Speech Voice (fr-FR, Julie, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (fr-FR, Paul, Apollo)",
	},
	"it-IT": {
		"Male": "Microsoft Server Speech Text to Speech Voice (it-IT, Cosimo, Apollo)",
	},
	"ja-JP": {
		"Female": "Microsoft Server Speech Text to Speech Voice (ja-JP, Ayumi, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (ja-JP, Ichiro, Apollo)",
	},
	"pt-BR": {
		"Male": "Microsoft Server Speech Text to Speech Voice (pt-BR, Daniel, Apollo)",
	},
	"ru-RU": {
		"Female": "Microsoft Server Speech Text to Speech Voice (ru-RU, Irina, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (ru-RU, Pavel, Apollo)",
	},
	"zh-CN": {
		"Female":  "Microsoft Server Speech Text to Speech Voice (zh-CN, Yaoyao, Apollo)",
		"Female2": "Microsoft Server Speech Text to Speech Voice (zh-CN, HuihuiRUS)",
		"Male":    "Microsoft Server Speech Text to Speech Voice (zh-CN, Kangkang, Apollo)",
	},
	"zh-HK": {
		"Female": "Microsoft Server Speech Text to Speech Voice (zh-HK, Tracy, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (zh-HK, Danny, Apollo)",
	},
	"zh-TW": {
		"Female": "Microsoft Server Speech Text to Speech Voice (zh-TW, Yating, Apollo)",
		"Male":   "Microsoft Server Speech Text to Speech Voice (zh-TW, Zhiwei, Apollo)",
	},
}

// voiceFor resolves the voice font for a locale/gender pair.
func voiceFor(locale, gender string) (string, error) {
	genders, ok := voices[locale]
	if !ok {
		return "", fmt.Errorf("speech: unsupported locale %q", locale)
	}
	voice, ok := genders[gender]
	if !ok {
		return "", fmt.Errorf("speech: no %s voice available for %s", gender, locale)
	}
	return voice, nil
}

// Locales returns all locales with at least one voice.
func Locales() []string {
	out := make([]string, 0, len(voices))
	for l := range voices {
		out = append(out, l)
	}
	return out
}
