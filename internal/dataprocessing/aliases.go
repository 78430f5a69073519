package dataprocessing

// Field is the canonical name of an input column
type Field string

// Transaction columns
const (
	FieldInvoiceNumber Field = "Numero_NF"
	FieldMovementType  Field = "TipoMov"
	FieldIssueDate     Field = "DataEmissao"
	FieldGrossAmount   Field = "TotalProduto"
	FieldCustomerID    Field = "CPF_CNPJ"
	FieldCustomerName  Field = "RazaoSocial"
	FieldCity          Field = "Cidade"
	FieldRegion        Field = "Estado"
	FieldSalesperson   Field = "Vendedor"
	FieldProductCode   Field = "CodigoProduto"
	FieldProductName   Field = "NomeProduto"
	FieldQuantity      Field = "Quantidade"
	FieldUnitPrice     Field = "PrecoUnit"
	FieldDueDates      Field = "DataVencimento"
	FieldBank          Field = "Banco"
	FieldPaymentDate   Field = "DataPagamento"
)

// Reference catalogue columns
const (
	FieldReferencePrice     Field = "PrecoReferencia"
	FieldProductGroup       Field = "Grupo"
	FieldProductDescription Field = "Descricao"
	FieldProductLine        Field = "Linha"
)

// FieldAliases maps every canonical field to the header spellings accepted
// for it. Headers are compared by HeaderKey, so case, accents, spaces and
// punctuation are ignored. The canonical name is always accepted.
var FieldAliases = map[Field][]string{
	FieldInvoiceNumber: {"Numero NF", "Nota Fiscal", "NF", "Num NF", "Numero Nota", "Documento"},
	FieldMovementType:  {"Tipo Movimento", "Tipo Mov", "Movimento", "Operacao", "Tipo Operacao"},
	FieldIssueDate:     {"Data Emissao", "Emissao", "Dt Emissao", "Data"},
	FieldGrossAmount:   {"Total Produto", "Valor Total", "Vlr Total", "Valor Liquido", "Vlr Liquido", "Valor Produto", "Total"},
	FieldCustomerID:    {"CPF/CNPJ", "CNPJ", "CPF", "CNPJ CPF", "Documento Cliente"},
	FieldCustomerName:  {"Razao Social", "Cliente", "Nome Cliente", "Nome"},
	FieldCity:          {"Municipio", "Cidade Cliente"},
	FieldRegion:        {"UF", "Regiao", "Estado Cliente"},
	FieldSalesperson:   {"Vendedora", "Representante", "Nome Vendedor", "Vend", "Vendedor Responsavel"},
	FieldProductCode:   {"Codigo Produto", "Cod Produto", "Cod Prod", "Codigo", "SKU"},
	FieldProductName:   {"Nome Produto", "Produto", "Descricao Produto"},
	FieldQuantity:      {"Qtd", "Qtde", "Quant", "Qtd Vendida"},
	FieldUnitPrice:     {"Preco Unitario", "Preco Unit", "Vlr Unitario", "Valor Unitario", "Preco"},
	FieldDueDates:      {"Data Vencimento", "Vencimento", "Vencimentos", "Dt Vencto", "Datas Vencimento", "Vencto"},
	FieldBank:          {"Portador", "Banco Cobranca", "Banco Portador"},
	FieldPaymentDate:   {"Data Pagamento", "Pagamento", "Dt Pagamento", "Data Baixa", "Baixa"},

	FieldReferencePrice:     {"Preco Referencia", "Preco Ref", "Preco Tabela", "Valor Referencia", "Referencia"},
	FieldProductGroup:       {"Grupo Produto", "Familia"},
	FieldProductDescription: {"Descricao Catalogo", "Desc"},
	FieldProductLine:        {"Linha Produto"},
}

var aliasLookup = buildAliasLookup(FieldAliases)

func buildAliasLookup(aliases map[Field][]string) map[string]Field {
	lookup := make(map[string]Field)
	for field, names := range aliases {
		lookup[HeaderKey(string(field))] = field
		for _, name := range names {
			lookup[HeaderKey(name)] = field
		}
	}
	return lookup
}

// HeaderIndex maps canonical fields to column positions of one table
type HeaderIndex map[Field]int

// ResolveHeaders maps the header row of a table onto canonical fields. When
// two columns resolve to the same field the leftmost one wins.
func ResolveHeaders(headers []string) HeaderIndex {
	index := make(HeaderIndex)
	for i, header := range headers {
		field, ok := aliasLookup[HeaderKey(header)]
		if !ok {
			continue
		}
		if _, taken := index[field]; taken {
			continue
		}
		index[field] = i
	}
	return index
}

// Has reports whether the table carries the field
func (h HeaderIndex) Has(field Field) bool {
	_, ok := h[field]
	return ok
}

// Cell returns the trimmed value of field in cells, or "" when absent
func (h HeaderIndex) Cell(cells []string, field Field) string {
	i, ok := h[field]
	if !ok || i >= len(cells) {
		return ""
	}
	return trimCell(cells[i])
}

// Missing lists the given fields that the table lacks
func (h HeaderIndex) Missing(fields ...Field) []Field {
	var missing []Field
	for _, f := range fields {
		if !h.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
