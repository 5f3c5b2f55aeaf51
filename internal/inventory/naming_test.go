package inventory

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"skinvault/internal/model"
)

func TestDeriveName_ConstructedFromParts(t *testing.T) {
	raw := model.RawItem{
		"sys_item_name": "weapon_ak47",
		"englishtoken":  "#PaintKit_redline_Tag",
		"paint_wear":    0.10,
	}

	name, ok := DeriveName(raw)
	assert.True(t, ok)
	assert.Equal(t, "AK-47 | Redline (Minimal Wear)", name)
}

func TestDeriveName_IsDeterministic(t *testing.T) {
	raw := model.RawItem{
		"sys_item_name": "weapon_m4a1_silencer",
		"sys_skin_name": "so_orange_accents",
		"paint_wear":    "0.2",
	}

	first, ok := DeriveName(raw)
	assert.True(t, ok)
	for i := 0; i < 10; i++ {
		again, _ := DeriveName(raw)
		assert.Equal(t, first, again)
	}
}

func TestDeriveName_PriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  model.RawItem
		want string
	}{
		{
			name: "upstream name wins over parts",
			raw: model.RawItem{
				"market_hash_name": "AWP | Asiimov (Field-Tested)",
				"sys_item_name":    "weapon_ak47",
				"sys_skin_name":    "redline",
			},
			want: "AWP | Asiimov (Field-Tested)",
		},
		{
			name: "blank upstream name is ignored",
			raw: model.RawItem{
				"market_hash_name": "   ",
				"sys_item_name":    "weapon_awp",
			},
			want: "AWP",
		},
		{
			name: "nested raw payload name",
			raw: model.RawItem{
				"raw":           map[string]any{"market_hash_name": "Sticker | Crown (Foil)"},
				"sys_item_name": "weapon_awp",
			},
			want: "Sticker | Crown (Foil)",
		},
		{
			name: "custom name when no variant",
			raw: model.RawItem{
				"sys_item_name": "weapon_awp",
				"custom_name":   "Big Boy",
			},
			want: "Big Boy",
		},
		{
			name: "parts beat custom name",
			raw: model.RawItem{
				"sys_item_name": "weapon_awp",
				"sys_skin_name": "dragon_lore",
				"custom_name":   "Big Boy",
			},
			want: "AWP | Dragon Lore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveName(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveName_NothingUsable(t *testing.T) {
	_, ok := DeriveName(model.RawItem{"def_index": 1209, "custom_name": ""})
	assert.False(t, ok)
}

func TestWearTier_Boundaries(t *testing.T) {
	tests := []struct {
		wear float64
		want string
	}{
		{0, "Factory New"},
		{0.069, "Factory New"},
		{0.07, "Minimal Wear"},
		{0.149, "Minimal Wear"},
		{0.15, "Field-Tested"},
		{0.379, "Field-Tested"},
		{0.38, "Well-Worn"},
		{0.449, "Well-Worn"},
		{0.45, "Battle-Scarred"},
		{1, "Battle-Scarred"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WearTier(tt.wear), "wear %v", tt.wear)
	}
}

func TestTitleSegments(t *testing.T) {
	assert.Equal(t, "So Orange Accents", titleSegments("so_orange_accents"))
	assert.Equal(t, "Gs Glock18 Wrathys", titleSegments("gs_glock18_wrathys"))
	assert.Equal(t, "AbC", titleSegments("abC"), "rest of segment is kept as is")
	assert.Equal(t, "A B", titleSegments("__a__b__"))
	assert.Equal(t, "", titleSegments(""))
}

func TestPaintKitKey(t *testing.T) {
	key, ok := paintKitKey("#PaintKit_so_orange_accents_Tag")
	assert.True(t, ok)
	assert.Equal(t, "so_orange_accents", key)

	key, ok = paintKitKey("paintkit_cu_howl_tag")
	assert.True(t, ok)
	assert.Equal(t, "cu_howl", key)

	_, ok = paintKitKey("#StickerKit_crown_foil_Tag")
	assert.False(t, ok)
}

func TestDeriveName_Golden(t *testing.T) {
	cases := []struct {
		label string
		raw   model.RawItem
	}{
		{"upstream", model.RawItem{"market_hash_name": "AWP | Asiimov (Field-Tested)"}},
		{"nested", model.RawItem{"raw": map[string]any{"market_hash_name": "Sticker | Crown (Foil)"}}},
		{"skin-name", model.RawItem{"sys_item_name": "weapon_ak47", "sys_skin_name": "redline", "paint_wear": 0.10}},
		{"paintkit-token", model.RawItem{"sys_item_name": "weapon_m4a1_silencer", "englishtoken": "#PaintKit_so_orange_accents_Tag", "paint_wear": 0.5}},
		{"lowercase-token", model.RawItem{"sys_item_name": "weapon_glock", "englishtoken": "paintkit_gs_glock18_wrathys_tag", "paint_wear": 0.2}},
		{"unknown-weapon", model.RawItem{"sys_item_name": "weapon_zeus_x27", "sys_skin_name": "olympus"}},
		{"camel-aliases", model.RawItem{"sysItemName": "weapon_usp_silencer", "sysSkinName": "kill_confirmed", "paintWear": "0.01"}},
		{"custom", model.RawItem{"sys_item_name": "weapon_awp", "custom_name": "Big Boy"}},
		{"base-only", model.RawItem{"sys_item_name": "weapon_deagle"}},
		{"none", model.RawItem{"def_index": 1209}},
	}

	var buf bytes.Buffer
	for _, c := range cases {
		name, ok := DeriveName(c.raw)
		if !ok {
			name = "<none>"
		}
		fmt.Fprintf(&buf, "%s: %s\n", c.label, name)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "derived_names", buf.Bytes())
}
