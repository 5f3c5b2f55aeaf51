package inventory

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"skinvault/internal/model"
)

// weaponDisplay maps base item tokens to their market display names.
var weaponDisplay = map[string]string{
	"weapon_m4a1_silencer": "M4A1-S",
	"weapon_ak47":          "AK-47",
	"weapon_awp":           "AWP",
	"weapon_deagle":        "Desert Eagle",
	"weapon_glock":         "Glock-18",
	"weapon_usp_silencer":  "USP-S",
	"weapon_hkp2000":       "P2000",
	"weapon_elite":         "Dual Berettas",
	"weapon_fiveseven":     "Five-SeveN",
	"weapon_p250":          "P250",
	"weapon_tec9":          "Tec-9",
	"weapon_cz75a":         "CZ75-Auto",
	"weapon_revolver":      "R8 Revolver",
	"weapon_mac10":         "MAC-10",
	"weapon_mp9":           "MP9",
	"weapon_mp7":           "MP7",
	"weapon_mp5sd":         "MP5-SD",
	"weapon_ump45":         "UMP-45",
	"weapon_p90":           "P90",
	"weapon_bizon":         "PP-Bizon",
	"weapon_famas":         "FAMAS",
	"weapon_galilar":       "Galil AR",
	"weapon_m4a1":          "M4A4",
	"weapon_ssg08":         "SSG 08",
	"weapon_aug":           "AUG",
	"weapon_sg556":         "SG 553",
	"weapon_scar20":        "SCAR-20",
	"weapon_g3sg1":         "G3SG1",
	"weapon_nova":          "Nova",
	"weapon_xm1014":        "XM1014",
	"weapon_mag7":          "MAG-7",
	"weapon_sawedoff":      "Sawed-Off",
	"weapon_m249":          "M249",
	"weapon_negev":         "Negev",
	"weapon_knife":         "Knife",
}

var paintKitPattern = regexp.MustCompile(`(?i)#?PaintKit_([^_]+(?:_[^_]+)*)_Tag`)

var (
	nameAliases    = []string{"market_hash_name", "marketHashName"}
	sysItemAliases = []string{"sys_item_name", "sysItemName"}
	sysSkinAliases = []string{"sys_skin_name", "sysSkinName"}
	tokenAliases   = []string{"englishtoken", "englishToken"}
	wearAliases    = []string{"paint_wear", "paintWear", "float", "wear"}
	customAliases  = []string{"custom_name", "customName"}
)

// WearTier maps a wear float to its market tier label.
func WearTier(wear float64) string {
	switch {
	case wear < 0.07:
		return "Factory New"
	case wear < 0.15:
		return "Minimal Wear"
	case wear < 0.38:
		return "Field-Tested"
	case wear < 0.45:
		return "Well-Worn"
	default:
		return "Battle-Scarred"
	}
}

// titleSegments turns "so_orange_accents" into "So Orange Accents".
// Only the first rune of each segment is upper-cased; the rest is kept as is.
func titleSegments(token string) string {
	upper := cases.Upper(language.Und)
	parts := strings.Split(token, "_")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		out = append(out, upper.String(string(r))+p[size:])
	}
	return strings.Join(out, " ")
}

func weaponName(sysItem string) string {
	if name, ok := weaponDisplay[sysItem]; ok {
		return name
	}
	return titleSegments(strings.TrimPrefix(sysItem, "weapon_"))
}

func paintKitKey(token string) (string, bool) {
	m := paintKitPattern.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func skinName(raw model.RawItem) (string, bool) {
	if s := textField(raw, sysSkinAliases...); s != nil {
		if name := titleSegments(*s); name != "" {
			return name, true
		}
	}
	if tok := textField(raw, tokenAliases...); tok != nil {
		if key, ok := paintKitKey(*tok); ok {
			if name := titleSegments(key); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// nestedName reads the display name out of an embedded raw payload.
func nestedName(raw model.RawItem) (string, bool) {
	v, ok := lookup(raw, "raw")
	if !ok {
		return "", false
	}
	var nested model.RawItem
	switch x := v.(type) {
	case model.RawItem:
		nested = x
	case map[string]any:
		nested = x
	default:
		return "", false
	}
	if s := textField(nested, nameAliases...); s != nil {
		return *s, true
	}
	return "", false
}

// DeriveName returns the best display name available from the item's own fields.
// It reports false when nothing usable exists; callers supply identifier fallbacks.
func DeriveName(raw model.RawItem) (string, bool) {
	if s := textField(raw, nameAliases...); s != nil {
		return *s, true
	}
	if s, ok := nestedName(raw); ok {
		return s, true
	}

	sysItem := textField(raw, sysItemAliases...)
	if sysItem != nil {
		weapon := weaponName(*sysItem)
		if skin, ok := skinName(raw); ok && weapon != "" {
			if wear := floatField(raw, wearAliases...); wear != nil {
				return weapon + " | " + skin + " (" + WearTier(*wear) + ")", true
			}
			return weapon + " | " + skin, true
		}
	}

	if s := textField(raw, customAliases...); s != nil {
		return *s, true
	}

	if sysItem != nil {
		if weapon := weaponName(*sysItem); weapon != "" {
			return weapon, true
		}
		return *sysItem, true
	}

	return "", false
}
