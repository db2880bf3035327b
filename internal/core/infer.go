package core

import "strings"

// inferenceRule maps headers containing any keyword to target. A header that
// also contains one of the excluded keywords is left for a later rule.
type inferenceRule struct {
	target   FieldTarget
	keywords []string
	excluded []string
}

var priceOriginalKeywords = []string{"market", "list", "without discount", "piyasa", "liste", "indirimsiz"}

// inferenceRules is evaluated in order; the first match wins. Keywords are
// already folded.
var inferenceRules = []inferenceRule{
	{target: TargetName, keywords: []string{"name", "title", "urun adi", "urun ismi", "isim", "baslik"}},
	{target: TargetDescription, keywords: []string{"description", "aciklama"}},
	{target: TargetPriceCurrent, keywords: []string{"sale price", "price", "fiyat", "satis fiyati"}, excluded: priceOriginalKeywords},
	{target: TargetPriceOriginal, keywords: priceOriginalKeywords},
	{target: TargetStock, keywords: []string{"stock", "quantity", "stok", "adet", "miktar"}},
	{target: TargetBrand, keywords: []string{"brand", "marka"}},
	{target: TargetCode, keywords: []string{"code", "barcode", "sku", "kod", "barkod"}},
	{target: TargetSpecColor, keywords: []string{"color", "colour", "renk"}},
	{target: TargetSpecSize, keywords: []string{"size", "dimension", "beden", "boyut", "olcu"}},
	{target: TargetSpecShippingType, keywords: []string{"shipping", "cargo", "kargo"}},
	{target: TargetCategoryName, keywords: []string{"category", "kategori"}},
	{target: TargetImageList, keywords: []string{"image", "picture", "photo", "resim", "gorsel", "fotograf", "foto"}},
}

// InferTarget guesses the target for a single header.
func InferTarget(header string) FieldTarget {
	folded := Fold(header)
	if folded == "" {
		return TargetIgnore
	}
	for _, rule := range inferenceRules {
		if containsAny(folded, rule.keywords) && !containsAny(folded, rule.excluded) {
			return rule.target
		}
	}
	return TargetIgnore
}

// Infer proposes a mapping with one entry per header, in header order.
// It depends only on the header strings.
func Infer(headers []string) FieldMapping {
	entries := make([]MappingEntry, len(headers))
	for i, h := range headers {
		entries[i] = MappingEntry{Header: h, Target: InferTarget(h)}
	}
	return FieldMapping{entries: entries}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
