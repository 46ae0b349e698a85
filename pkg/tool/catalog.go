package tool

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Tool names. The model may only call tools in this catalog.
const (
	SearchCompanies       = "search_companies"
	SearchBonds           = "search_bonds"
	ResolveBond           = "resolve_bond"
	GetBondPricing        = "get_bond_pricing"
	GetGuarantors         = "get_guarantors"
	GetCorporateStructure = "get_corporate_structure"
	SearchDocuments       = "search_documents"
	GetChanges            = "get_changes"
	SearchCovenants       = "search_covenants"
	GetFinancials         = "get_financials"
	ResearchCompany       = "research_company"
)

// Catalog is the fixed set of tool names
var Catalog = []string{
	SearchCompanies,
	SearchBonds,
	ResolveBond,
	GetBondPricing,
	GetGuarantors,
	GetCorporateStructure,
	SearchDocuments,
	GetChanges,
	SearchCovenants,
	GetFinancials,
	ResearchCompany,
}
