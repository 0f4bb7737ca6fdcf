package store

import (
	"time"

	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
)

// models lists every table created by Migrate.
var models = []any{
	&MasterlistEntry{},
	&Trade{},
	&Dividend{},
	&Holding{},
	&BuylistEntry{},
	&BuylistHistory{},
	&BuylistMasterlistLog{},
	&BuylistStatus{},
	&NewCompany{},
	&NewCompanyStatus{},
	&ManualCompany{},
	&Broker{},
	&AccountGroup{},
	&StrategyGroup{},
	&Sector{},
	&NordicInstrument{},
	&GlobalInstrument{},
	&LatestPrice{},
	&FXRate{},
	&User{},
}

// MasterlistEntry is a security of the canonical company list.
type MasterlistEntry struct {
	ISIN         string    `gorm:"primaryKey;size:12" json:"isin"`
	Ticker       string    `gorm:"size:20;index" json:"ticker"`
	Name         string    `gorm:"size:255;index" json:"name"`
	Country      string    `gorm:"size:64" json:"country"`
	Market       string    `gorm:"size:64" json:"market"`
	ShareTypeID  int       `json:"share_type_id"`
	Delisted     bool      `gorm:"not null;default:false" json:"delisted"`
	DelistedDate date.Date `json:"delisted_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (MasterlistEntry) TableName() string { return "masterlist" }

// Trade is a row of the trade log. Amounts are stored in the local currency
// of the security and in SEK.
type Trade struct {
	ID                      uint            `gorm:"column:trade_id;primaryKey" json:"trade_id"`
	TradeDate               date.Date       `gorm:"index;not null" json:"trade_date"`
	SettlementDate          date.Date       `json:"settlement_date"`
	ISIN                    string          `gorm:"size:12;index;not null" json:"isin"`
	Ticker                  string          `gorm:"size:20" json:"ticker"`
	TradeType               string          `gorm:"size:32;not null" json:"trade_type"`
	SharesTraded            decimal.Decimal `gorm:"type:decimal(20,6)" json:"shares_traded"`
	PricePerShareLocal      decimal.Decimal `gorm:"type:decimal(20,6)" json:"price_per_share_local"`
	TotalAmountLocal        decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount_local"`
	CurrencyLocal           string          `gorm:"size:3" json:"currency_local"`
	PricePerShareSEK        decimal.Decimal `gorm:"type:decimal(20,6)" json:"price_per_share_sek"`
	TotalAmountSEK          decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount_sek"`
	ExchangeRateUsed        decimal.Decimal `gorm:"type:decimal(20,6)" json:"exchange_rate_used"`
	BrokerFeesLocal         decimal.Decimal `gorm:"type:decimal(20,6)" json:"broker_fees_local"`
	BrokerFeesSEK           decimal.Decimal `gorm:"type:decimal(20,6)" json:"broker_fees_sek"`
	TftTaxLocal             decimal.Decimal `gorm:"type:decimal(20,6)" json:"tft_tax_local"`
	TftTaxSEK               decimal.Decimal `gorm:"type:decimal(20,6)" json:"tft_tax_sek"`
	NetAmountLocal          decimal.Decimal `gorm:"type:decimal(20,6)" json:"net_amount_local"`
	NetAmountSEK            decimal.Decimal `gorm:"type:decimal(20,6)" json:"net_amount_sek"`
	BrokerID                *uint           `gorm:"index" json:"broker_id"`
	PortfolioAccountGroupID *uint           `gorm:"index" json:"portfolio_account_group_id"`
	BrokerTransactionID     string          `gorm:"size:64" json:"broker_transaction_id"`
	OrderType               string          `gorm:"size:32" json:"order_type"`
	ExecutionStatus         string          `gorm:"size:32" json:"execution_status"`
	DataSource              string          `gorm:"size:32" json:"data_source"`
	Notes                   string          `json:"notes"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`

	CompanyName       string  `gorm:"->;-:migration" json:"company_name"`
	BrokerName        string  `gorm:"->;-:migration" json:"broker_name"`
	AccountGroupName  string  `gorm:"->;-:migration" json:"account_group_name"`
	BrokerFeesPercent float64 `gorm:"-" json:"broker_fees_percent"`
}

func (Trade) TableName() string { return "log_trades" }

// Dividend is a row of the dividend log.
type Dividend struct {
	ID                      uint                `gorm:"column:dividend_id;primaryKey" json:"dividend_id"`
	ExDate                  date.Date           `gorm:"index" json:"ex_date"`
	PayDate                 date.Date           `gorm:"index;not null" json:"pay_date"`
	ISIN                    string              `gorm:"size:12;index;not null" json:"isin"`
	Ticker                  string              `gorm:"size:20" json:"ticker"`
	SharesOnPayDate         decimal.Decimal     `gorm:"type:decimal(20,6)" json:"shares"`
	PerShareOriginal        decimal.Decimal     `gorm:"column:dividend_per_share_original_currency;type:decimal(20,6)" json:"dividend_per_share_original_currency"`
	TotalOriginal           decimal.Decimal     `gorm:"column:dividend_total_original_currency;type:decimal(20,6)" json:"dividend_total_original_currency"`
	OriginalCurrency        string              `gorm:"size:3" json:"original_currency"`
	DividendTotalSEK        decimal.Decimal     `gorm:"type:decimal(20,6)" json:"dividend_total_sek"`
	WithholdingTaxPercent   float64             `json:"withholding_tax_percent"`
	WithholdingTaxSEK       decimal.Decimal     `gorm:"type:decimal(20,6)" json:"withholding_tax_sek"`
	NetDividendSEK          decimal.Decimal     `gorm:"type:decimal(20,6)" json:"net_dividend_sek"`
	FXRateToSEK             decimal.NullDecimal `gorm:"column:fx_rate_to_sek;type:decimal(20,6)" json:"fx_rate_to_sek"`
	BrokerID                *uint               `json:"broker_id"`
	PortfolioAccountGroupID *uint               `json:"portfolio_account_group_id"`
	IsComplete              bool                `gorm:"not null" json:"is_complete"`
	IncompleteFields        string              `json:"incomplete_fields,omitempty"`
	ImportBatch             string              `gorm:"size:36;index" json:"import_batch,omitempty"`
	Notes                   string              `json:"notes"`
	CreatedAt               time.Time           `json:"created_at"`

	CompanyName string `gorm:"->;-:migration" json:"company_name"`
	Country     string `gorm:"->;-:migration" json:"country_name"`
}

func (Dividend) TableName() string { return "log_dividends" }

// Holding is a position of the portfolio. There is one row per ISIN.
type Holding struct {
	ID               uint            `gorm:"column:portfolio_id;primaryKey" json:"portfolio_id"`
	ISIN             string          `gorm:"size:12;uniqueIndex;not null" json:"isin"`
	Ticker           string          `gorm:"size:20" json:"ticker"`
	CompanyName      string          `gorm:"size:255" json:"company_name"`
	SharesHeld       decimal.Decimal `gorm:"type:decimal(20,6)" json:"shares_held"`
	AverageCostSEK   decimal.Decimal `gorm:"type:decimal(20,6)" json:"average_cost_sek"`
	TotalCostSEK     decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_cost_sek"`
	LatestPriceLocal decimal.Decimal `gorm:"type:decimal(20,6)" json:"latest_price_local"`
	CurrencyLocal    string          `gorm:"size:3" json:"currency_local"`
	FXRate           decimal.Decimal `gorm:"column:fx_rate;type:decimal(20,6)" json:"fx_rate"`
	CurrentValueSEK  decimal.Decimal `gorm:"type:decimal(20,6)" json:"current_value_sek"`
	Sector           string          `gorm:"size:128" json:"sector"`
	IsActive         bool            `gorm:"not null;index" json:"is_active"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Holding) TableName() string { return "portfolio" }

// BuylistEntry is a company a user considers buying.
type BuylistEntry struct {
	ID                    uint                `gorm:"column:buylist_id;primaryKey" json:"buylist_id"`
	UserID                uint                `gorm:"index;not null" json:"user_id"`
	CompanyName           string              `gorm:"size:255;not null" json:"company_name"`
	Ticker                string              `gorm:"size:20;not null" json:"ticker"`
	ISIN                  string              `gorm:"size:12" json:"isin"`
	Country               string              `gorm:"size:64" json:"country"`
	Currency              string              `gorm:"size:3" json:"currency"`
	Exchange              string              `gorm:"size:64" json:"exchange"`
	StatusID              uint                `gorm:"index" json:"status_id"`
	Priority              int                 `gorm:"not null;default:3" json:"priority"`
	RiskLevel             int                 `gorm:"not null;default:3" json:"risk_level"`
	MarketCap             string              `gorm:"size:16" json:"market_cap_category"`
	TargetPrice           decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"target_price"`
	TargetQuantity        int                 `json:"target_quantity"`
	Notes                 string              `json:"notes"`
	AddedToMasterlist     bool                `gorm:"not null;default:false" json:"added_to_masterlist"`
	AddedToMasterlistDate date.Date           `json:"added_to_masterlist_date"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`

	StatusName string `gorm:"->;-:migration" json:"status_name"`
}

func (BuylistEntry) TableName() string { return "buylist" }

// BuylistHistory records a field change of a buylist entry.
type BuylistHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuylistID uint      `gorm:"index;not null" json:"buylist_id"`
	FieldName string    `gorm:"size:64" json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy uint      `json:"changed_by"`
	ChangedAt time.Time `gorm:"autoCreateTime" json:"changed_at"`
}

func (BuylistHistory) TableName() string { return "buylist_history" }

// BuylistMasterlistLog records the promotion of a buylist entry to the masterlist.
type BuylistMasterlistLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuylistID uint      `gorm:"index;not null" json:"buylist_id"`
	ISIN      string    `gorm:"size:12" json:"isin"`
	Action    string    `gorm:"size:32" json:"action"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (BuylistMasterlistLog) TableName() string { return "buylist_masterlist_log" }

// BuylistStatus is a stage of the buylist workflow.
type BuylistStatus struct {
	ID   uint   `gorm:"column:status_id;primaryKey" json:"status_id"`
	Name string `gorm:"column:status_name;size:64;uniqueIndex" json:"status_name"`
}

func (BuylistStatus) TableName() string { return "buylist_status" }

// NewCompany is a company under evaluation.
type NewCompany struct {
	ID                uint                `gorm:"column:new_company_id;primaryKey" json:"new_company_id"`
	Company           string              `gorm:"size:255" json:"company"`
	Ticker            string              `gorm:"size:20" json:"ticker"`
	ISIN              string              `gorm:"size:12;index" json:"isin"`
	CountryName       string              `gorm:"size:64" json:"country_name"`
	Yield             decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"yield"`
	StatusID          *uint               `json:"new_companies_status_id"`
	StrategyGroupID   *uint               `json:"strategy_group_id"`
	BrokerID          *uint               `json:"broker_id"`
	Comments          string              `json:"comments"`
	BorsdataAvailable bool                `gorm:"not null;default:false" json:"borsdata_available"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	YieldData

	StatusName        string `gorm:"->;-:migration" json:"status_name"`
	StrategyGroupName string `gorm:"->;-:migration" json:"strategy_group_name"`
	BrokerName        string `gorm:"->;-:migration" json:"broker_name"`
}

func (NewCompany) TableName() string { return "new_companies" }

// YieldData is the dividend yield history of a new company, as synced from
// the Börsdata KPIs. Averages and growth rates are percentages.
type YieldData struct {
	YieldCurrent       decimal.NullDecimal `gorm:"column:yield_current;type:decimal(10,4)" json:"yield_current"`
	Yield1YAvg         decimal.NullDecimal `gorm:"column:yield_1y_avg;type:decimal(10,4)" json:"yield_1y_avg"`
	Yield1YCAGR        decimal.NullDecimal `gorm:"column:yield_1y_cagr;type:decimal(10,4)" json:"yield_1y_cagr"`
	Yield3YAvg         decimal.NullDecimal `gorm:"column:yield_3y_avg;type:decimal(10,4)" json:"yield_3y_avg"`
	Yield3YCAGR        decimal.NullDecimal `gorm:"column:yield_3y_cagr;type:decimal(10,4)" json:"yield_3y_cagr"`
	Yield5YAvg         decimal.NullDecimal `gorm:"column:yield_5y_avg;type:decimal(10,4)" json:"yield_5y_avg"`
	Yield5YCAGR        decimal.NullDecimal `gorm:"column:yield_5y_cagr;type:decimal(10,4)" json:"yield_5y_cagr"`
	Yield10YAvg        decimal.NullDecimal `gorm:"column:yield_10y_avg;type:decimal(10,4)" json:"yield_10y_avg"`
	Yield10YCAGR       decimal.NullDecimal `gorm:"column:yield_10y_cagr;type:decimal(10,4)" json:"yield_10y_cagr"`
	YieldDataUpdatedAt *time.Time          `gorm:"column:yield_data_updated_at" json:"yield_data_updated_at"`
	YieldSource        string              `gorm:"column:yield_source;size:32" json:"yield_source"`
}

// NewCompanyStatus is a stage of the new companies evaluation.
type NewCompanyStatus struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Status string `gorm:"size:64;uniqueIndex" json:"status"`
}

func (NewCompanyStatus) TableName() string { return "new_companies_status" }

// ManualCompany is a company Börsdata does not cover, entered by hand.
type ManualCompany struct {
	ID                uint      `gorm:"column:manual_id;primaryKey" json:"manual_id"`
	ISIN              string    `gorm:"size:12;uniqueIndex;not null" json:"isin"`
	Ticker            string    `gorm:"size:20" json:"ticker"`
	CompanyName       string    `gorm:"size:255;not null" json:"company_name"`
	Country           string    `gorm:"size:64" json:"country"`
	Currency          string    `gorm:"size:3" json:"currency"`
	Sector            string    `gorm:"size:128" json:"sector"`
	MarketExchange    string    `gorm:"size:64" json:"market_exchange"`
	CompanyType       string    `gorm:"size:32" json:"company_type"`
	DividendFrequency string    `gorm:"size:32" json:"dividend_frequency"`
	Notes             string    `json:"notes"`
	CreatedBy         uint      `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (ManualCompany) TableName() string { return "manual_company_data" }

// Broker is a bank or broker holding an account.
type Broker struct {
	ID   uint   `gorm:"column:broker_id;primaryKey" json:"broker_id"`
	Name string `gorm:"column:broker_name;size:64;uniqueIndex" json:"broker_name"`
}

func (Broker) TableName() string { return "brokers" }

// AccountGroup is an account type such as ISK or KF.
type AccountGroup struct {
	ID   uint   `gorm:"column:portfolio_account_group_id;primaryKey" json:"portfolio_account_group_id"`
	Name string `gorm:"column:portfolio_group_name;size:64;uniqueIndex" json:"portfolio_group_name"`
}

func (AccountGroup) TableName() string { return "portfolio_account_groups" }

// StrategyGroup is an investment strategy a company is evaluated for.
type StrategyGroup struct {
	ID   uint   `gorm:"column:strategy_group_id;primaryKey" json:"strategy_group_id"`
	Name string `gorm:"column:strategy_name;size:64;uniqueIndex" json:"strategy_name"`
}

func (StrategyGroup) TableName() string { return "portfolio_strategy_groups" }

// Sector is a Börsdata sector.
type Sector struct {
	ID   uint   `gorm:"column:sector_id;primaryKey;autoIncrement:false" json:"sector_id"`
	Name string `gorm:"column:sector_name;size:128" json:"sector_name"`
}

func (Sector) TableName() string { return "sectors" }

// Instrument is a security known to Börsdata.
type Instrument struct {
	InsID    int    `gorm:"primaryKey;autoIncrement:false" json:"ins_id"`
	Name     string `gorm:"size:255" json:"name"`
	Ticker   string `gorm:"size:20" json:"ticker"`
	ISIN     string `gorm:"size:12;index" json:"isin"`
	SectorID int    `json:"sector_id"`
	Country  string `gorm:"size:64" json:"country"`
	Currency string `gorm:"size:3" json:"currency"`
}

// NordicInstrument is an instrument of the Börsdata Nordic market.
type NordicInstrument struct{ Instrument }

func (NordicInstrument) TableName() string { return "nordic_instruments" }

// GlobalInstrument is an instrument of the Börsdata global markets.
type GlobalInstrument struct{ Instrument }

func (GlobalInstrument) TableName() string { return "global_instruments" }

// LatestPrice is the last close of an instrument.
type LatestPrice struct {
	InsID int             `gorm:"primaryKey;autoIncrement:false" json:"ins_id"`
	Date  date.Date       `json:"date"`
	Close decimal.Decimal `gorm:"type:decimal(20,6)" json:"close"`
}

func (LatestPrice) TableName() string { return "latest_prices" }

// FXRate is the value of one unit of Base in Target on a date.
type FXRate struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Base     string          `gorm:"size:3;uniqueIndex:idx_fx_pair_date" json:"base"`
	Target   string          `gorm:"size:3;uniqueIndex:idx_fx_pair_date" json:"target"`
	Date     date.Date       `gorm:"uniqueIndex:idx_fx_pair_date" json:"date"`
	Rate     decimal.Decimal `gorm:"type:decimal(20,8)" json:"rate"`
	Provider string          `gorm:"size:32" json:"provider"`
}

func (FXRate) TableName() string { return "fx_rates" }

// Roles of a user.
const (
	RoleAdmin = 1
	RoleUser  = 2
)

// User is an account of the application.
type User struct {
	ID           uint       `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"size:255" json:"full_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	RoleID       int        `gorm:"not null;default:2" json:"role_id"`
	Format       string     `gorm:"column:format_preference;size:8;not null;default:sv" json:"format_preference"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.RoleID == RoleAdmin }
