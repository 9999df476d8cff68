package columns

// =============================================================================
// CANONICAL FIELDS
// =============================================================================

// Canonical keys of the columns the exports are expected to carry.
const (
	FieldOrgao            = "orgao"
	FieldFuncao           = "funcao descricao"
	FieldSubfuncao        = "subfuncao descricao"
	FieldCategoria        = "descricao categoria economica"
	FieldOrcadoInicial    = "orcado inicial"
	FieldOrcadoAtualizado = "orcado atualizado"
	FieldEmpenhadoNoMes   = "empenhado no mes"
	FieldEmpenhadoAteOMes = "empenhado ate o mes"
	FieldLiquidadoNoMes   = "liquidado no mes"
	FieldLiquidadoAteOMes = "liquidado ate o mes"
	FieldPagoNoMes        = "pago no mes"
	FieldPagoAteOMes      = "pago ate o mes"
)

var numericFields = []string{
	FieldOrcadoInicial,
	FieldOrcadoAtualizado,
	FieldEmpenhadoNoMes,
	FieldEmpenhadoAteOMes,
	FieldLiquidadoNoMes,
	FieldLiquidadoAteOMes,
	FieldPagoNoMes,
	FieldPagoAteOMes,
}

var dimensionFields = []string{
	FieldOrgao,
	FieldFuncao,
	FieldSubfuncao,
	FieldCategoria,
}

// NumericFields returns the eight monetary columns in display order.
func NumericFields() []string {
	return append([]string(nil), numericFields...)
}

// CanonicalFields returns every known column: dimensions first, then metrics.
func CanonicalFields() []string {
	fields := append([]string(nil), dimensionFields...)
	return append(fields, numericFields...)
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the first header, in file order, whose normalized form
// equals target. target is normalized as well, so raw labels are accepted.
func Resolve(headers []string, target string) (string, bool) {
	key := Normalize(target)
	if key == "" {
		return "", false
	}
	for _, h := range headers {
		if Normalize(h) == key {
			return h, true
		}
	}
	return "", false
}

// FieldMap records, for a fixed set of canonical keys, which raw header of a
// file carries each one. It is read-only once built.
type FieldMap struct {
	fields   []string
	resolved map[string]string
}

// BuildFieldMap resolves fields against headers. With no fields given, the
// canonical set is used.
func BuildFieldMap(headers []string, fields ...string) FieldMap {
	if len(fields) == 0 {
		fields = CanonicalFields()
	}

	fm := FieldMap{resolved: make(map[string]string, len(fields))}
	for _, f := range fields {
		key := Normalize(f)
		if key == "" || containsKey(fm.fields, key) {
			continue
		}
		fm.fields = append(fm.fields, key)
		if h, ok := Resolve(headers, key); ok {
			fm.resolved[key] = h
		}
	}
	return fm
}

// Lookup returns the raw header for a canonical key.
func (fm FieldMap) Lookup(field string) (string, bool) {
	h, ok := fm.resolved[Normalize(field)]
	return h, ok
}

// Fields returns the keys the map was built for.
func (fm FieldMap) Fields() []string {
	return append([]string(nil), fm.fields...)
}

// Missing lists the requested keys that no header resolved to.
func (fm FieldMap) Missing() []string {
	var missing []string
	for _, f := range fm.fields {
		if _, ok := fm.resolved[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
