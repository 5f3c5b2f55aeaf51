package inventory

import (
	"encoding/json"
	"errors"
	"fmt"

	"skinvault/internal/model"
)

// Rejection reasons. A rejected record is counted as skipped, never fatal.
var (
	ErrMissingID       = errors.New("item has no identifier")
	ErrMissingDefIndex = errors.New("item has no numeric def_index")
	ErrUnnamed         = errors.New("item has no derivable name")
)

var (
	idAliases         = []string{"id", "assetid", "asset_id"}
	defIndexAliases   = []string{"def_index", "defIndex", "defindex"}
	paintIndexAliases = []string{"paint_index", "paintIndex", "paintindex"}
)

// Rejection records why one raw item was dropped.
type Rejection struct {
	Index int
	ID    string
	Err   error
}

func (r Rejection) Error() string {
	if r.ID == "" {
		return fmt.Sprintf("item #%d: %v", r.Index, r.Err)
	}
	return fmt.Sprintf("item %s: %v", r.ID, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

// ItemID returns the identifier of a raw item using the same aliases as Normalize.
func ItemID(raw model.RawItem) (string, bool) {
	s := textField(raw, idAliases...)
	if s == nil {
		return "", false
	}
	return *s, true
}

// Normalize maps one raw record to its canonical row, or returns a rejection reason.
func Normalize(raw model.RawItem) (model.InventoryItem, error) {
	id, ok := ItemID(raw)
	if !ok {
		return model.InventoryItem{}, ErrMissingID
	}
	defIndex := intField(raw, defIndexAliases...)
	if defIndex == nil {
		return model.InventoryItem{}, ErrMissingDefIndex
	}
	paintIndex := intField(raw, paintIndexAliases...)

	name := displayName(raw, id, defIndex, paintIndex)
	if name == "" {
		return model.InventoryItem{}, ErrUnnamed
	}

	quantity := int64(1)
	if q := intField(raw, "quantity"); q != nil && *q > 1 {
		quantity = *q
	}

	item := model.InventoryItem{
		ID:             id,
		DefIndex:       *defIndex,
		PaintIndex:     paintIndex,
		MarketHashName: name,
		PaintWear:      floatField(raw, wearAliases...),
		Prefab:         textField(raw, "prefab"),
		ImagePath:      textField(raw, "image_path", "imagePath"),
		SysItemName:    textField(raw, sysItemAliases...),
		SysSkinName:    textField(raw, sysSkinAliases...),
		EnglishToken:   textField(raw, tokenAliases...),
		StickerID:      intField(raw, "sticker_id", "stickerId"),
		CasketID:       textField(raw, casketIDAliases...),
		CustomName:     textField(raw, customAliases...),
		Category:       textField(raw, "category"),
		SkinRarity:     textField(raw, "skin_rarity", "skinRarity"),
		Collection:     textField(raw, "collection"),
		Currency:       textField(raw, "currency"),
		Quantity:       quantity,
		Tradable:       boolField(raw, "tradable"),
		Marketable:     boolField(raw, "marketable"),
	}
	if payload, err := json.Marshal(raw); err == nil {
		item.Raw = payload
	}
	return item, nil
}

// displayName never returns empty while an identifier exists.
func displayName(raw model.RawItem, id string, defIndex, paintIndex *int64) string {
	if name, ok := DeriveName(raw); ok {
		return name
	}
	sysItem := textField(raw, sysItemAliases...)
	sysSkin := textField(raw, sysSkinAliases...)
	if sysItem != nil && sysSkin != nil {
		return *sysItem + " | " + *sysSkin
	}
	if defIndex != nil && paintIndex != nil {
		return fmt.Sprintf("def=%d paint=%d", *defIndex, *paintIndex)
	}
	if defIndex != nil {
		return fmt.Sprintf("def=%d", *defIndex)
	}
	if id != "" {
		return "item=" + id
	}
	return ""
}

// NormalizeAll normalizes a batch, collecting rejections instead of failing.
func NormalizeAll(raws []model.RawItem) ([]model.InventoryItem, []Rejection) {
	items := make([]model.InventoryItem, 0, len(raws))
	var rejected []Rejection
	for i, raw := range raws {
		item, err := Normalize(raw)
		if err != nil {
			id, _ := ItemID(raw)
			rejected = append(rejected, Rejection{Index: i, ID: id, Err: err})
			continue
		}
		items = append(items, item)
	}
	return items, rejected
}
