// Package psw provides the domain logic of PSW, a dividend portfolio tracker
// whose home currency is the Swedish krona (SEK).
//
// The package is deliberately free of storage and transport concerns. It holds:
//   - Money types: exact decimal amounts tagged with an ISO currency, share
//     quantities and percentages.
//   - Security identification: ISIN validation and the country and region an
//     ISIN belongs to.
//   - Trade calculation: the derived amounts of a trade (totals, net amounts,
//     implied exchange rate, settlement date).
//   - Reporting: allocation of holdings by country, region, sector, currency
//     and position size, and dividend estimates.
//   - Reconciliation: detection of held companies unknown to every data source.
//   - Broker CSV parsing for dividend statements.
//
// The store, web and cmd packages build the PSW application on top of it.
package psw
