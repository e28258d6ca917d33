package tsetmc

// Industry is one industrial group from the TSETMC static-data taxonomy.
// Code is the short group identifier, zero-padded when purely numeric, and
// is treated as an opaque string everywhere.
type Industry struct {
	Code string
	Name string
}

// Company is one instrument fetched under an industry. ID is the exchange's
// internal instrument code, unique within one industry's result set.
type Company struct {
	ID     string
	Symbol string
	Name   string
}

// CompanyRow joins a Company with the industry it was fetched under. Rows
// exist only in the combined output and are never deduplicated across
// industries: a company listed in two groups appears twice.
type CompanyRow struct {
	Industry string
	ID       string
	Symbol   string
	Name     string
}
