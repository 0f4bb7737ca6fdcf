package psw

import "sort"

// Data sources that may know a security.
const (
	SourceMasterlist = "Masterlist"
	SourceNordic     = "Börsdata Nordic"
	SourceGlobal     = "Börsdata Global"
	SourceManual     = "Manual Data"
)

// Source is a named set of ISINs.
type Source struct {
	Name  string
	isins map[string]bool
}

// NewSource returns the source name knowing the given ISINs.
func NewSource(name string, isins []string) Source {
	s := Source{Name: name, isins: make(map[string]bool, len(isins))}
	for _, isin := range isins {
		if isin = NormalizeISIN(isin); isin != "" {
			s.isins[isin] = true
		}
	}
	return s
}

// Knows reports whether the source has the ISIN.
func (s Source) Knows(isin string) bool { return s.isins[NormalizeISIN(isin)] }

// Company status after reconciliation.
const (
	StatusSupported   = "supported"
	StatusManual      = "manual"
	StatusUnsupported = "unsupported"
)

// HeldCompany is a company of the portfolio to reconcile.
type HeldCompany struct {
	ISIN   string `json:"isin"`
	Name   string `json:"company_name"`
	Ticker string `json:"ticker"`
	Value  Money  `json:"current_value_sek"`
}

// ReconciledCompany is a held company with the sources that know it.
type ReconciledCompany struct {
	HeldCompany
	Status  string   `json:"status"`
	Sources []string `json:"sources"`
}

// Reconciliation is the result of [Reconcile].
type Reconciliation struct {
	Checked     int                 `json:"checked"`
	Unsupported []ReconciledCompany `json:"unsupported"`
	Manual      []ReconciledCompany `json:"manual"`
}

// Reconcile finds the held companies that no data source covers.
//
// A company known by any source other than [SourceManual] is supported; a
// company only known by manual data is reported in Manual; everything else is
// unsupported. Companies are reported once per ISIN, sorted by ISIN.
func Reconcile(held []HeldCompany, sources ...Source) Reconciliation {
	var r Reconciliation
	seen := make(map[string]bool, len(held))
	for _, h := range held {
		isin := NormalizeISIN(h.ISIN)
		if isin == "" || seen[isin] {
			continue
		}
		seen[isin] = true
		r.Checked++

		c := ReconciledCompany{HeldCompany: h, Sources: []string{}}
		c.ISIN = isin
		automated := false
		for _, s := range sources {
			if !s.Knows(isin) {
				continue
			}
			c.Sources = append(c.Sources, s.Name)
			if s.Name != SourceManual {
				automated = true
			}
		}
		switch {
		case automated:
			continue
		case len(c.Sources) > 0:
			c.Status = StatusManual
			r.Manual = append(r.Manual, c)
		default:
			c.Status = StatusUnsupported
			r.Unsupported = append(r.Unsupported, c)
		}
	}
	sort.Slice(r.Unsupported, func(i, j int) bool { return r.Unsupported[i].ISIN < r.Unsupported[j].ISIN })
	sort.Slice(r.Manual, func(i, j int) bool { return r.Manual[i].ISIN < r.Manual[j].ISIN })
	return r
}
