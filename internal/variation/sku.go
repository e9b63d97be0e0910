package variation

import "strings"

// skuLedger acumula los SKU ya reservados en una sesión de guardado. Se pasa
// por valor a través del fold de SanitizeSKUs; el primero que llega gana.
type skuLedger struct {
	reserved map[string]struct{}
}

func newSKULedger(seed ...string) skuLedger {
	l := skuLedger{reserved: make(map[string]struct{}, len(seed))}
	for _, s := range seed {
		if k := normalizeSKU(s); k != "" {
			l.reserved[k] = struct{}{}
		}
	}
	return l
}

// claim devuelve el SKU a enviar: el mismo si está libre, vacío si choca con
// uno ya reservado o si está en blanco.
func (l skuLedger) claim(sku string) (string, skuLedger) {
	k := normalizeSKU(sku)
	if k == "" {
		return "", l
	}
	if _, taken := l.reserved[k]; taken {
		return "", l
	}
	l.reserved[k] = struct{}{}
	return sku, l
}

func normalizeSKU(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizeSKUs blanquea, en orden, los SKU que repiten (sin distinguir
// mayúsculas ni espacios) el del padre o el de una variación anterior.
func SanitizeSKUs(parentSKU string, skus []string) []string {
	ledger := newSKULedger(parentSKU)
	out := make([]string, len(skus))
	for i, s := range skus {
		out[i], ledger = ledger.claim(s)
	}
	return out
}
